package verify

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/distkit/distkit/internal/platform"
)

// DefaultCommandTimeout bounds each subprocess a test case spawns, so a hung
// process fails one case instead of stalling the suite.
const DefaultCommandTimeout = 10 * time.Second

// CommandResult is the outcome of one bounded subprocess run.
type CommandResult struct {
	ExitCode int
	Output   string
	TimedOut bool
}

// runCommand executes a command with a hard timeout. Launchers on targets
// with a cmd wrapper are spawned through the interpreter, since batch files
// are not directly executable.
func runCommand(ctx context.Context, target platform.Target, timeout time.Duration, name string, args ...string) CommandResult {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if target.UsesCmdWrapper {
		wrapped := append([]string{"/c", name}, args...)
		cmd = exec.CommandContext(ctx, "cmd", wrapped...)
	} else {
		cmd = exec.CommandContext(ctx, name, args...)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()

	result := CommandResult{Output: output.String()}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Output = err.Error()
		}
	}
	return result
}
