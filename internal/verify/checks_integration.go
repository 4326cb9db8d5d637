package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// sampleProgram is the throwaway source compiled when no test project is
// supplied. It only has to be syntactically valid.
const sampleProgram = `import json
import sys


def main() -> int:
    print(json.dumps({"ok": True}))
    return 0


if __name__ == "__main__":
    sys.exit(main())
`

// integrationCases exercises the package end to end: the embedded
// interpreter compiling real source, written outside the package tree so
// verification never mutates what it checks.
func (e *Engine) integrationCases() []TestCase {
	return []TestCase{
		{
			Name:     "embedded interpreter compiles a sample program",
			Category: CategoryIntegration,
			Slow:     true,
			Run: func(ctx context.Context) (bool, string) {
				scratch, err := os.MkdirTemp("", "distkit-integration-")
				if err != nil {
					return false, err.Error()
				}
				defer os.RemoveAll(scratch)

				sample := filepath.Join(scratch, "sample.py")
				if err := os.WriteFile(sample, []byte(sampleProgram), 0o644); err != nil {
					return false, err.Error()
				}

				result := runCommand(ctx, e.target, e.opts.CaseTimeout,
					e.interpreter(), "-m", "py_compile", sample)
				if result.TimedOut {
					return false, "compilation timed out"
				}
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				return true, ""
			},
		},
		{
			Name:     "embedded interpreter compiles the test project",
			Category: CategoryIntegration,
			Slow:     true,
			Run: func(ctx context.Context) (bool, string) {
				if e.opts.TestProject == "" {
					return true, "no test project supplied"
				}

				sources, err := pythonSources(e.opts.TestProject)
				if err != nil {
					return false, err.Error()
				}
				if len(sources) == 0 {
					return false, "test project has no python sources: " + e.opts.TestProject
				}

				args := append([]string{"-m", "py_compile"}, sources...)
				result := runCommand(ctx, e.target, e.opts.CaseTimeout, e.interpreter(), args...)
				if result.TimedOut {
					return false, "compilation timed out"
				}
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				return true, fmt.Sprintf("compiled %d files", len(sources))
			},
		},
	}
}

// pythonSources collects the .py files under root, depth-first.
func pythonSources(root string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".py" {
			sources = append(sources, path)
		}
		return nil
	})
	return sources, err
}
