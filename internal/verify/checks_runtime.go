package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/distkit/distkit/internal/fsutil"
)

// runtimeCases validates that the embedded interpreter actually runs.
func (e *Engine) runtimeCases() []TestCase {
	return []TestCase{
		{
			Name:     "embedded interpreter present",
			Category: CategoryRuntime,
			Run: func(context.Context) (bool, string) {
				path := e.interpreter()
				if !fsutil.FileExists(path) {
					return false, "interpreter not found: " + path
				}
				return true, ""
			},
		},
		{
			Name:     "embedded interpreter executes",
			Category: CategoryRuntime,
			Run: func(ctx context.Context) (bool, string) {
				result := runCommand(ctx, e.target, e.opts.CaseTimeout, e.interpreter(), "--version")
				if result.TimedOut {
					return false, "interpreter version query timed out"
				}
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				if strings.TrimSpace(result.Output) == "" {
					return false, "interpreter reported no version"
				}
				return true, result.Output
			},
		},
		{
			Name:     "core modules import",
			Category: CategoryRuntime,
			Run: func(ctx context.Context) (bool, string) {
				result := runCommand(ctx, e.target, e.opts.CaseTimeout, e.interpreter(),
					"-c", "import json, os, sys")
				if result.TimedOut {
					return false, "module import check timed out"
				}
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				return true, ""
			},
		},
	}
}
