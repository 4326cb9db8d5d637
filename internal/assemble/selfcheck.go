package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/distkit/distkit/internal/platform"
)

// semverPattern matches the leading semantic version in a version query
// response, e.g. "distapp 1.4.0" or "1.4.0-rc.1".
var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?`)

// SelfCheck invokes a generated launcher with a version query and verifies
// the response carries a semantic version. A failing self-check downgrades
// the whole assembly to failure even though files were written.
func SelfCheck(ctx context.Context, launcherPath string, target platform.Target, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if target.UsesCmdWrapper {
		// Batch files are not directly executable; spawn through cmd.exe.
		cmd = exec.CommandContext(ctx, "cmd", "/c", launcherPath, "--version")
	} else {
		cmd = exec.CommandContext(ctx, launcherPath, "--version")
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("launcher self-check failed: %w\n%s", err, output.String())
	}

	response := output.String()
	version := semverPattern.FindString(response)
	if version == "" {
		return "", fmt.Errorf("launcher self-check returned no semantic version: %q", response)
	}
	return version, nil
}
