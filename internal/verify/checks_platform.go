package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/supervise"
)

// platformCases validates OS-dependent behaviors: batch/cmd semantics on
// windows; executable bits, shebangs, line endings, symlinks, signal
// handling, and paths with spaces on POSIX.
func (e *Engine) platformCases() []TestCase {
	if e.target.UsesBatchLauncher {
		return e.windowsPlatformCases()
	}
	return e.posixPlatformCases()
}

func (e *Engine) windowsPlatformCases() []TestCase {
	return []TestCase{
		{
			Name:     "batch launchers carry CRLF endings",
			Category: CategoryPlatform,
			Run: func(context.Context) (bool, string) {
				return e.forEachLauncher(func(path string, data []byte) (bool, string) {
					if !strings.HasSuffix(path, ".cmd") {
						return false, "non-batch launcher on windows target: " + path
					}
					if !fsutil.HasCRLFEndings(data) {
						return false, "launcher is not CRLF: " + path
					}
					return true, ""
				})
			},
		},
		{
			Name:     "no posix launchers present",
			Category: CategoryPlatform,
			Run: func(context.Context) (bool, string) {
				return e.forEachLauncher(func(path string, data []byte) (bool, string) {
					if fsutil.HasLFOnlyEndings(data) {
						return false, "LF-only launcher on windows target: " + path
					}
					return true, ""
				})
			},
		},
	}
}

func (e *Engine) posixPlatformCases() []TestCase {
	cases := []TestCase{
		{
			Name:     "launchers carry shebang and LF endings",
			Category: CategoryPlatform,
			Run: func(context.Context) (bool, string) {
				return e.forEachLauncher(func(path string, data []byte) (bool, string) {
					if !strings.HasPrefix(string(data), "#!") {
						return false, "launcher lacks shebang: " + path
					}
					if !fsutil.HasLFOnlyEndings(data) {
						return false, "launcher is not LF-only: " + path
					}
					return true, ""
				})
			},
		},
		{
			Name:     "launchers are executable",
			Category: CategoryPlatform,
			Run: func(context.Context) (bool, string) {
				return e.forEachLauncher(func(path string, data []byte) (bool, string) {
					if !fsutil.IsExecutable(path) {
						return false, "launcher lacks executable bit: " + path
					}
					return true, ""
				})
			},
		},
		{
			Name:     "runtime binaries are executable",
			Category: CategoryPlatform,
			Run: func(context.Context) (bool, string) {
				binDir := filepath.Join(e.layout.RuntimePath(), "bin")
				entries, err := os.ReadDir(binDir)
				if err != nil {
					return false, err.Error()
				}
				for _, entry := range entries {
					if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
						continue
					}
					path := filepath.Join(binDir, entry.Name())
					if !fsutil.IsExecutable(path) {
						return false, "runtime binary lacks executable bit: " + path
					}
				}
				return true, ""
			},
		},
		{
			Name:     "launcher works from a path with spaces",
			Category: CategoryPlatform,
			Slow:     true,
			Run: func(ctx context.Context) (bool, string) {
				scratch, err := os.MkdirTemp("", "distkit verify *")
				if err != nil {
					return false, err.Error()
				}
				defer os.RemoveAll(scratch)

				relocated := filepath.Join(scratch, "pkg")
				if err := fsutil.CopyTree(e.layout.Root, relocated); err != nil {
					return false, "failed to copy package: " + err.Error()
				}

				result := runCommand(ctx, e.target, e.opts.CaseTimeout,
					filepath.Join(relocated, "bin", "distapp"), "--version")
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				return true, result.Output
			},
		},
		{
			Name:     "launcher works via symlink",
			Category: CategoryPlatform,
			Slow:     true,
			Run: func(ctx context.Context) (bool, string) {
				scratch, err := os.MkdirTemp("", "distkit-verify-")
				if err != nil {
					return false, err.Error()
				}
				defer os.RemoveAll(scratch)

				link := filepath.Join(scratch, "distapp")
				if err := os.Symlink(e.mainLauncher(), link); err != nil {
					return false, "failed to create symlink: " + err.Error()
				}

				result := runCommand(ctx, e.target, e.opts.CaseTimeout, link, "--version")
				if result.ExitCode != 0 {
					return false, fmt.Sprintf("exit %d: %s", result.ExitCode, result.Output)
				}
				return true, result.Output
			},
		},
	}

	if e.target.SupportsSignals {
		cases = append(cases, TestCase{
			Name:     "server starts and shuts down under supervision",
			Category: CategoryPlatform,
			Slow:     true,
			Run: func(ctx context.Context) (bool, string) {
				logPath := filepath.Join(os.TempDir(),
					fmt.Sprintf("distkit-server-%d.log", os.Getpid()))
				defer os.Remove(logPath)

				sup := supervise.New(supervise.Options{
					LogPath:         logPath,
					SupportsSignals: e.target.SupportsSignals,
					Logger:          e.logger,
				})
				defer sup.Stop()

				state, err := sup.Start(ctx, e.serverLauncher(), nil, 30*time.Second)
				if err != nil {
					return false, fmt.Sprintf("startup ended in %s: %v", state, err)
				}
				if err := sup.Stop(); err != nil {
					return false, "shutdown failed: " + err.Error()
				}
				if sup.State() != supervise.StateTerminated {
					return false, "unexpected final state: " + sup.State().String()
				}
				return true, ""
			},
		})
	}

	return cases
}

// forEachLauncher applies a check to every launcher file's path and content.
func (e *Engine) forEachLauncher(check func(path string, data []byte) (bool, string)) (bool, string) {
	entries, err := os.ReadDir(e.layout.LauncherPath())
	if err != nil {
		return false, err.Error()
	}
	if len(entries) == 0 {
		return false, "no launchers present"
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(e.layout.LauncherPath(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return false, err.Error()
		}
		if ok, msg := check(path, data); !ok {
			return false, msg
		}
	}
	return true, ""
}
