// Package verify runs ordered, non-fatal test categories against an
// assembled package and aggregates a report. Individual failures never
// abort the suite; only infrastructure errors (a package path that does not
// exist at all) surface as hard errors.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/log"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
)

// TestCase is one stateless, re-runnable verification predicate.
type TestCase struct {
	Name     string
	Category Category

	// Slow marks cases skipped when Options.SkipSlow is set
	Slow bool

	// Run returns pass/fail plus diagnostic output. It must respect ctx;
	// the engine additionally bounds it with CaseTimeout.
	Run func(ctx context.Context) (bool, string)
}

// Options configures a verification run.
type Options struct {
	// Verbose logs each case as it runs
	Verbose bool

	// SkipCategories lists category names excluded from the run
	SkipCategories []string

	// SkipSlow excludes cases marked Slow
	SkipSlow bool

	// TestProject optionally points at a sample project compiled during
	// the integration category instead of the built-in throwaway sample
	TestProject string

	// MainExecutable overrides the in-package CLI launcher path
	MainExecutable string

	// ServerExecutable overrides the in-package server launcher path
	ServerExecutable string

	// Interpreter overrides the embedded interpreter path
	Interpreter string

	// CaseTimeout bounds each test case (default DefaultCommandTimeout)
	CaseTimeout time.Duration

	// Logger receives run progress. Nil means the default logger.
	Logger *log.Logger
}

// Engine verifies one assembled package for one platform target. The engine
// only reads the package tree; temp and log files go elsewhere.
type Engine struct {
	layout manifest.Layout
	target platform.Target
	opts   Options
	logger *log.Logger
}

// NewEngine creates an Engine. A package path that is not a directory is an
// infrastructure error, not a test failure.
func NewEngine(packagePath string, target platform.Target, opts Options) (*Engine, error) {
	if !fsutil.DirExists(packagePath) {
		return nil, errors.NewPackageNotFoundError(packagePath)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	if opts.CaseTimeout <= 0 {
		opts.CaseTimeout = DefaultCommandTimeout
	}

	return &Engine{
		layout: manifest.NewLayout(packagePath),
		target: target,
		opts:   opts,
		logger: logger.With("component", "verifier", "platform", target.Identifier()),
	}, nil
}

// Run executes all selected categories sequentially, in fixed order, and
// returns the aggregated report. Execution is deterministic: no category or
// case level parallelism, so repeated runs against an unmodified package
// yield identical counts.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	skipped := make(map[string]bool, len(e.opts.SkipCategories))
	for _, name := range e.opts.SkipCategories {
		skipped[name] = true
	}

	report := &Report{}
	for _, category := range Categories() {
		if skipped[string(category)] {
			e.logger.Info("category skipped", "category", string(category))
			continue
		}

		cases := e.casesFor(category)
		e.logger.Info("running category", "category", string(category), "cases", len(cases))

		for _, testCase := range cases {
			if e.opts.SkipSlow && testCase.Slow {
				continue
			}
			result := e.runCase(ctx, testCase)
			report.Add(result)

			if e.opts.Verbose || !result.Passed {
				status := "pass"
				if !result.Passed {
					status = "fail"
					if result.TimedOut {
						status = "timeout"
					}
				}
				e.logger.Info("case finished", "case", result.Name, "status", status,
					"duration", result.Duration.String())
			}
		}
	}

	e.logger.Info("verification finished", "total", report.Total(),
		"passed", report.Passed(), "failed", report.Failed())
	return report, nil
}

// runCase runs one predicate under the case timeout. A predicate that
// exceeds its budget is recorded as a distinguishable timeout failure; the
// suite moves on.
func (e *Engine) runCase(ctx context.Context, testCase TestCase) CaseResult {
	caseCtx, cancel := context.WithTimeout(ctx, e.opts.CaseTimeout)
	defer cancel()

	type outcome struct {
		passed bool
		output string
	}
	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		passed, output := testCase.Run(caseCtx)
		done <- outcome{passed: passed, output: output}
	}()

	select {
	case o := <-done:
		return CaseResult{
			Name:     testCase.Name,
			Category: testCase.Category,
			Passed:   o.passed,
			Output:   o.output,
			Duration: time.Since(started),
		}
	case <-caseCtx.Done():
		return CaseResult{
			Name:     testCase.Name,
			Category: testCase.Category,
			Passed:   false,
			TimedOut: true,
			Output:   fmt.Sprintf("test case exceeded its %s budget", e.opts.CaseTimeout),
			Duration: time.Since(started),
		}
	}
}

// casesFor builds the test cases of one category.
func (e *Engine) casesFor(category Category) []TestCase {
	switch category {
	case CategoryStructure:
		return e.structureCases()
	case CategoryRuntime:
		return e.runtimeCases()
	case CategoryCLI:
		return e.cliCases()
	case CategoryPlatform:
		return e.platformCases()
	case CategoryComponents:
		return e.componentCases()
	case CategoryIntegration:
		return e.integrationCases()
	default:
		return nil
	}
}

// interpreter returns the embedded interpreter path for the engine's target,
// unless overridden in Options.
func (e *Engine) interpreter() string {
	if e.opts.Interpreter != "" {
		return e.opts.Interpreter
	}
	return e.layout.InterpreterPath(e.target.ExecutableSuffix())
}

// mainLauncher returns the CLI entry point exercised by the cli category.
func (e *Engine) mainLauncher() string {
	if e.opts.MainExecutable != "" {
		return e.opts.MainExecutable
	}
	return e.launcherPath("distapp")
}

// serverLauncher returns the server entry point supervised during the
// platform category.
func (e *Engine) serverLauncher() string {
	if e.opts.ServerExecutable != "" {
		return e.opts.ServerExecutable
	}
	return e.launcherPath("distapp-server")
}

// launcherPath returns the full path of a named launcher for the target.
func (e *Engine) launcherPath(name string) string {
	return filepath.Join(e.layout.LauncherPath(), name+e.target.LauncherSuffix())
}
