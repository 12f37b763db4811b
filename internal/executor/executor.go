// SPDX-License-Identifier: MPL-2.0

// Package executor realizes a build plan against a container engine. Each
// target builds as one backend invocation selecting its stage of a shared
// multi-stage Dockerfile; independent targets build concurrently and one
// target's failure does not stop the others.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/imago-dev/imago/internal/container"
	"github.com/imago-dev/imago/internal/plan"
	"github.com/imago-dev/imago/internal/testutil"
	"github.com/imago-dev/imago/internal/translate"
	"github.com/imago-dev/imago/pkg/imagofile"
)

// DefaultConcurrency bounds parallel backend builds when Options does not
// set a limit.
const DefaultConcurrency = 4

// tagFingerprintLen is how much of the node fingerprint goes into the tag.
const tagFingerprintLen = 12

type (
	// Options configures an execution run.
	Options struct {
		// Engine is the build backend.
		Engine container.Engine
		// ContextDir is the build context directory.
		ContextDir string
		// CacheDir holds the rendered Dockerfile and the build manifest.
		CacheDir string
		// TagPrefix is the repository part of generated tags.
		TagPrefix string
		// Concurrency bounds parallel builds; zero means DefaultConcurrency.
		Concurrency int
		// NoCache forces rebuilds and passes --no-cache to the backend.
		NoCache bool
		// BuildOutput receives the backend's build output, if non-nil.
		BuildOutput io.Writer
		// Logger receives progress logging; nil uses the default logger.
		Logger *log.Logger
		// Clock provides build timestamps; nil uses the system clock.
		Clock testutil.Clock
	}

	// Result is the outcome for one target, in plan output order.
	Result struct {
		Image imagofile.Image
		// Cached is true when the manifest and the engine already had
		// this fingerprint.
		Cached bool
		Err    error
	}

	// TargetsFailedError aggregates per-target build failures.
	TargetsFailedError struct {
		Failed int
		Total  int
	}
)

func (e *TargetsFailedError) Error() string {
	return fmt.Sprintf("%d of %d targets failed to build", e.Failed, e.Total)
}

// Execute builds every output of the plan. It returns one Result per
// output, and a TargetsFailedError when any of them failed. Other error
// returns mean execution could not start at all.
func Execute(ctx context.Context, p *plan.Plan, opts Options) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.TagPrefix == "" {
		opts.TagPrefix = "imago"
	}
	if opts.Clock == nil {
		opts.Clock = testutil.RealClock{}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	dockerfile, err := translate.Dockerfile(p)
	if err != nil {
		return nil, err
	}
	dockerfilePath, err := writeDockerfile(opts.CacheDir, dockerfile)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(opts.CacheDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(p.Outputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, out := range p.Outputs {
		g.Go(func() error {
			results[i] = buildTarget(gctx, p, out, dockerfilePath, manifest, opts, logger)
			// Build failures land in the Result so sibling targets
			// keep going; only context cancellation aborts the group.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	if err := manifest.Save(); err != nil {
		logger.Warn("could not persist build manifest", "err", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, &TargetsFailedError{Failed: failed, Total: len(results)}
	}
	return results, nil
}

func buildTarget(ctx context.Context, p *plan.Plan, out plan.Output, dockerfilePath string, manifest *Manifest, opts Options, logger *log.Logger) Result {
	node := p.Node(out.Node)
	tag := fmt.Sprintf("%s:%s", opts.TagPrefix, node.Fingerprint[:tagFingerprintLen])
	res := Result{Image: imagofile.Image{
		Fact:        out.Fact,
		Tag:         tag,
		Fingerprint: node.Fingerprint,
	}}

	if !opts.NoCache {
		if entry, ok := manifest.Lookup(node.Fingerprint); ok {
			exists, err := opts.Engine.ImageExists(ctx, entry.Tag)
			if err == nil && exists {
				logger.Info("target up to date", "target", out.Fact.String(), "tag", entry.Tag)
				res.Image.Tag = entry.Tag
				res.Cached = true
				return res
			}
		}
	}

	logger.Info("building target",
		"target", out.Fact.String(),
		"stage", translate.StageName(out.Node),
		"tag", tag)
	start := opts.Clock.Now()
	err := opts.Engine.Build(ctx, container.BuildOptions{
		ContextDir: opts.ContextDir,
		Dockerfile: dockerfilePath,
		Target:     translate.StageName(out.Node),
		Tag:        tag,
		NoCache:    opts.NoCache,
		Stdout:     opts.BuildOutput,
		Stderr:     opts.BuildOutput,
	})
	if err != nil {
		logger.Error("target failed", "target", out.Fact.String(), "err", err)
		res.Err = err
		return res
	}

	logger.Info("target built",
		"target", out.Fact.String(),
		"tag", tag,
		"duration", opts.Clock.Since(start).Round(time.Millisecond))
	manifest.Record(node.Fingerprint, ManifestEntry{
		Tag:     tag,
		Fact:    out.Fact.String(),
		BuiltAt: opts.Clock.Now().UTC(),
	})
	return res
}

// writeDockerfile stores the rendered Dockerfile under the cache
// directory so the backend can read it with -f while the context
// directory stays untouched.
func writeDockerfile(cacheDir, content string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	path := filepath.Join(cacheDir, "Dockerfile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write rendered Dockerfile: %w", err)
	}
	return path, nil
}
