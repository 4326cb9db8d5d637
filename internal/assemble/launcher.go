package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
)

// posixLauncherTemplate locates the package root relative to the script's
// own location, following symlinks, so the package survives relocation,
// paths with spaces, symlinked invocation, and foreign working directories.
const posixLauncherTemplate = `#!/bin/sh
# {{NAME}} launcher. Resolves the package root relative to this script.
SCRIPT="$0"
while [ -h "$SCRIPT" ]; do
  DIR=$(cd "$(dirname "$SCRIPT")" >/dev/null 2>&1 && pwd)
  LINK=$(readlink "$SCRIPT")
  case "$LINK" in
    /*) SCRIPT="$LINK" ;;
    *) SCRIPT="$DIR/$LINK" ;;
  esac
done
ROOT=$(cd "$(dirname "$SCRIPT")/.." >/dev/null 2>&1 && pwd)
exec "$ROOT/runtime/bin/python3" -m {{MODULE}} "$@"
`

// batchLauncherTemplate is the cmd.exe dialect. %~dp0 is the directory of
// the script itself, so relocation and spaces in the path are handled the
// same way as on POSIX.
const batchLauncherTemplate = `@echo off
rem {{NAME}} launcher. Resolves the package root relative to this script.
setlocal
set "ROOT=%~dp0.."
"%ROOT%\runtime\python.exe" -m {{MODULE}} %*
exit /b %ERRORLEVEL%
`

// GenerateLauncher writes one launcher script for the given entry point and
// target into the package's launcher directory, and returns its path.
// Batch launchers carry CRLF endings; POSIX launchers carry LF endings, a
// shebang, and the executable bit.
func GenerateLauncher(layout manifest.Layout, target platform.Target, entry EntryPoint) (string, error) {
	var template string
	if target.UsesBatchLauncher {
		template = batchLauncherTemplate
	} else {
		template = posixLauncherTemplate
	}

	script := strings.ReplaceAll(template, "{{NAME}}", entry.Name)
	script = strings.ReplaceAll(script, "{{MODULE}}", entry.Module)

	if target.UsesBatchLauncher {
		// The template source is LF; batch files must be CRLF throughout.
		script = strings.ReplaceAll(script, "\n", "\r\n")
	}

	path := filepath.Join(layout.LauncherPath(), entry.Name+target.LauncherSuffix())
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("failed to write launcher %s: %w", entry.Name, err)
	}

	if target.IsPOSIX() {
		if err := fsutil.MarkExecutable(path); err != nil {
			return "", fmt.Errorf("failed to mark launcher executable: %w", err)
		}
	}
	return path, nil
}

// GenerateLaunchers emits one launcher per entry point.
func GenerateLaunchers(layout manifest.Layout, target platform.Target, entries []EntryPoint) ([]string, error) {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path, err := GenerateLauncher(layout, target, entry)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
