package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
)

// embedRuntime copies the pre-fetched runtime into the package tree. On
// POSIX targets the runtime binaries get their executable bits re-applied,
// since archive extraction does not guarantee preservation.
func embedRuntime(runtimePath string, layout manifest.Layout, target platform.Target) error {
	if err := fsutil.CopyTree(runtimePath, layout.RuntimePath()); err != nil {
		return fmt.Errorf("failed to copy embedded runtime: %w", err)
	}

	if target.IsPOSIX() {
		binDir := filepath.Join(layout.RuntimePath(), "bin")
		if fsutil.DirExists(binDir) {
			if err := fsutil.MarkTreeExecutable(binDir); err != nil {
				return fmt.Errorf("failed to mark runtime binaries executable: %w", err)
			}
		}
	}
	return nil
}

// Installer installs the application and its dependencies into the embedded
// runtime. Installation failure is fatal and aborts assembly.
type Installer interface {
	Install(ctx context.Context, layout manifest.Layout, target platform.Target, appSource string) error
}

// PipInstaller installs with the embedded runtime's own package manager,
// offline: no index access, wheels taken from the application source dir.
type PipInstaller struct {
	// Timeout bounds the install subprocess (default 5 minutes)
	Timeout time.Duration
}

// Install implements Installer.
func (p PipInstaller) Install(ctx context.Context, layout manifest.Layout, target platform.Target, appSource string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interpreter := layout.InterpreterPath(target.ExecutableSuffix())
	cmd := exec.CommandContext(ctx, interpreter,
		"-m", "pip", "install",
		"--no-index",
		"--find-links", appSource,
		"--target", layout.AppPath(),
		"distapp")

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("application install failed: %w\n%s", err, output.String())
	}
	return nil
}
