package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var cliSemverPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?`)

// cliCases exercises the CLI surface through the generated launcher, each
// command bounded by the case timeout.
func (e *Engine) cliCases() []TestCase {
	launcher := e.mainLauncher()

	run := func(ctx context.Context, args ...string) CommandResult {
		return runCommand(ctx, e.target, e.opts.CaseTimeout, launcher, args...)
	}

	expectPattern := func(result CommandResult, what, pattern string) (bool, string) {
		if result.TimedOut {
			return false, what + " timed out"
		}
		if result.ExitCode != 0 {
			return false, fmt.Sprintf("%s exited %d: %s", what, result.ExitCode, result.Output)
		}
		if pattern != "" && !strings.Contains(strings.ToLower(result.Output), pattern) {
			return false, fmt.Sprintf("%s output lacks %q: %s", what, pattern, result.Output)
		}
		return true, result.Output
	}

	return []TestCase{
		{
			Name:     "version query reports a semantic version",
			Category: CategoryCLI,
			Run: func(ctx context.Context) (bool, string) {
				result := run(ctx, "--version")
				if result.TimedOut {
					return false, "version query timed out"
				}
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("version query exited %d: %s", result.ExitCode, result.Output)
				}
				if !cliSemverPattern.MatchString(result.Output) {
					return false, "no semantic version in output: " + result.Output
				}
				return true, result.Output
			},
		},
		{
			Name:     "help output describes usage",
			Category: CategoryCLI,
			Run: func(ctx context.Context) (bool, string) {
				return expectPattern(run(ctx, "--help"), "help query", "usage")
			},
		},
		{
			Name:     "list subcommand succeeds",
			Category: CategoryCLI,
			Run: func(ctx context.Context) (bool, string) {
				result := run(ctx, "list")
				passed, output := expectPattern(result, "list subcommand", "")
				if passed && strings.TrimSpace(result.Output) == "" {
					return false, "list subcommand produced no output"
				}
				return passed, output
			},
		},
		{
			Name:     "describe subcommand succeeds",
			Category: CategoryCLI,
			Run: func(ctx context.Context) (bool, string) {
				return expectPattern(run(ctx, "describe", "default"), "describe subcommand", "")
			},
		},
	}
}
