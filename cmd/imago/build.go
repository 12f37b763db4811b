// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imago-dev/imago/internal/config"
	"github.com/imago-dev/imago/internal/container"
	"github.com/imago-dev/imago/internal/evaluate"
	"github.com/imago-dev/imago/pkg/imagofile"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildFile        string
	buildContextDir  string
	buildCacheDir    string
	buildEngine      string
	buildTagPrefix   string
	buildConcurrency int
	buildNoCache     bool

	buildCmd = &cobra.Command{
		Use:   "build <query>",
		Short: "Build the images a query derives",
		Long: `Build resolves the query against the Imagofile, compiles the
derivations into a deduplicated build plan, and executes the plan
through the configured container engine. Each solution of the query
becomes one tagged image.`,
		Example: `  imago build 'app("prod")'
  imago build 'app(X)'
  imago build --no-cache --engine podman 'app("dev")'`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildFile, "file", "f", "", "path to the Imagofile (default: <context>/Imagofile)")
	buildCmd.Flags().StringVar(&buildContextDir, "context", ".", "build context directory")
	buildCmd.Flags().StringVar(&buildCacheDir, "cache-dir", "", "directory for generated Dockerfiles and the build manifest")
	buildCmd.Flags().StringVar(&buildEngine, "engine", "", "container engine (auto, docker or podman)")
	buildCmd.Flags().StringVar(&buildTagPrefix, "tag-prefix", "", "image repository prefix for built targets")
	buildCmd.Flags().IntVar(&buildConcurrency, "concurrency", 0, "max targets building in parallel")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "rebuild every target, ignoring cached images")
}

func runBuild(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()

	contextDir, err := filepath.Abs(buildContextDir)
	if err != nil {
		return failWithIssue(stderr, fmt.Errorf("resolve context directory: %w", err))
	}

	source, programPath, err := imagofile.Read(contextDir, buildFile)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	engine, err := selectEngine(buildEngine)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	cacheDir, err := resolveCacheDir(buildCacheDir)
	if err != nil {
		return failWithIssue(stderr, err)
	}

	tagPrefix := buildTagPrefix
	if tagPrefix == "" {
		tagPrefix = string(cfg.TagPrefix)
	}
	concurrency := buildConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}

	logger := newBuildLogger()
	logger.Debug("evaluating program", "path", programPath, "query", args[0], "engine", engine.Name())

	outcome, err := evaluate.Run(cmd.Context(), evaluate.Request{
		Source:      source,
		Query:       args[0],
		Engine:      engine,
		ContextDir:  contextDir,
		CacheDir:    cacheDir,
		TagPrefix:   tagPrefix,
		Concurrency: concurrency,
		NoCache:     buildNoCache,
		BuildOutput: stderr,
		Logger:      logger,
	})

	if outcome != nil {
		printResults(cmd, outcome)
	}
	if err != nil {
		return failWithIssue(stderr, err)
	}
	return nil
}

// printResults writes one line per target: tag, whether it was cached, and
// any per-target failure.
func printResults(cmd *cobra.Command, outcome *evaluate.Outcome) {
	stdout := cmd.OutOrStdout()

	for _, res := range outcome.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n",
				ErrorStyle.Render("✗"), res.Image.Fact.String(), res.Err)
		case res.Cached:
			fmt.Fprintf(stdout, "%s %s %s %s\n",
				SuccessStyle.Render("✓"), res.Image.Fact.String(),
				TagStyle.Render(res.Image.Tag), SubtitleStyle.Render("(cached)"))
		default:
			fmt.Fprintf(stdout, "%s %s %s\n",
				SuccessStyle.Render("✓"), res.Image.Fact.String(),
				TagStyle.Render(res.Image.Tag))
		}
	}
}

// selectEngine picks the container engine from the flag, falling back to the
// configured engine, wrapped for sandbox awareness by the container package.
func selectEngine(flagValue string) (container.Engine, error) {
	choice := config.ContainerEngine(flagValue)
	if flagValue == "" {
		choice = cfg.ContainerEngine
	}
	if err := choice.Validate(); err != nil {
		return nil, err
	}

	switch choice {
	case config.ContainerEngineDocker:
		return container.NewEngine(container.EngineTypeDocker)
	case config.ContainerEnginePodman:
		return container.NewEngine(container.EngineTypePodman)
	default:
		return container.AutoDetectEngine()
	}
}

// resolveCacheDir picks the cache directory from the flag, the config, or
// the platform default, in that order.
func resolveCacheDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.CacheDir != "" {
		return string(cfg.CacheDir), nil
	}
	return config.DefaultCacheDir()
}

// newBuildLogger builds the progress logger for executor output.
func newBuildLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "imago",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
