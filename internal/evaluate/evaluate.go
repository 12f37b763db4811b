// SPDX-License-Identifier: MPL-2.0

// Package evaluate wires the pipeline together: parse the program,
// resolve the query into derivations, compile them to a build plan, and
// hand the plan to the executor.
package evaluate

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/imago-dev/imago/internal/container"
	"github.com/imago-dev/imago/internal/executor"
	"github.com/imago-dev/imago/internal/logic"
	"github.com/imago-dev/imago/internal/plan"
	"github.com/imago-dev/imago/internal/resolve"
)

type (
	// Request carries everything one evaluation needs.
	Request struct {
		// Source is the program text.
		Source string
		// Query is the target expression, e.g. `app("prod")`.
		Query string

		// Engine is the build backend; unused by planning alone.
		Engine container.Engine
		// ContextDir is the build context for copy() sources.
		ContextDir string
		// CacheDir holds rendered Dockerfiles and the build manifest.
		CacheDir string
		// TagPrefix overrides the default image tag repository.
		TagPrefix string
		// Concurrency bounds parallel builds.
		Concurrency int
		// NoCache forces rebuilding every target.
		NoCache bool
		// BuildOutput receives the backend's build output.
		BuildOutput io.Writer
		// Logger receives progress logging.
		Logger *log.Logger
	}

	// Outcome is the result of a full evaluation.
	Outcome struct {
		Plan    *plan.Plan
		Results []executor.Result
	}
)

// Check parses and statically validates a program.
func Check(source string) (*logic.Program, error) {
	prog, err := logic.Parse(source)
	if err != nil {
		return nil, err
	}
	if err := logic.Validate(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// BuildPlan runs the pipeline up to (and excluding) execution.
func BuildPlan(source, query string) (*plan.Plan, error) {
	prog, err := Check(source)
	if err != nil {
		return nil, err
	}
	lit, err := logic.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	solutions, err := resolve.Resolve(prog, lit)
	if err != nil {
		return nil, err
	}
	return plan.Compile(solutions)
}

// Run evaluates the query and builds every resulting target.
func Run(ctx context.Context, req Request) (*Outcome, error) {
	p, err := BuildPlan(req.Source, req.Query)
	if err != nil {
		return nil, err
	}
	results, err := executor.Execute(ctx, p, executor.Options{
		Engine:      req.Engine,
		ContextDir:  req.ContextDir,
		CacheDir:    req.CacheDir,
		TagPrefix:   req.TagPrefix,
		Concurrency: req.Concurrency,
		NoCache:     req.NoCache,
		BuildOutput: req.BuildOutput,
		Logger:      req.Logger,
	})
	out := &Outcome{Plan: p, Results: results}
	if err != nil {
		return out, err
	}
	return out, nil
}
