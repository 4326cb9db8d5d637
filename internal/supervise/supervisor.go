// Package supervise starts, observes, and terminates the packaged server
// process during verification.
//
// The supervisor owns one OS process and one log sink. Readiness is detected
// by a bounded poll over the accumulated log; termination escalates from a
// graceful signal to a forced kill. Callers defer Stop so cleanup runs on
// every exit path:
//
//	sup := supervise.New(opts)
//	defer sup.Stop()
//	state, err := sup.Start(ctx, exe, args, 30*time.Second)
package supervise

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/log"
)

const (
	// DefaultPollInterval is how often the log is inspected during startup
	DefaultPollInterval = 200 * time.Millisecond

	// DefaultGracePeriod is how long Stop waits after the graceful signal
	// before escalating to a forced kill
	DefaultGracePeriod = 2 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	// LogPath is where process output is redirected. Required.
	LogPath string

	// Markers are the fatal/success marker classes. Zero value means
	// DefaultMarkers.
	Markers Markers

	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration

	// GracePeriod overrides DefaultGracePeriod when positive.
	GracePeriod time.Duration

	// SupportsSignals controls whether Stop attempts SIGTERM first.
	// Targets without signal delivery go straight to the forced kill.
	SupportsSignals bool

	// Logger receives supervision progress. Nil means the default logger.
	Logger *log.Logger
}

// Supervisor manages the lifecycle of one supervised process. It is safe for
// use from the goroutine that created it plus concurrent Stop calls.
type Supervisor struct {
	opts    Options
	markers Markers
	logger  *log.Logger

	mu      sync.Mutex
	state   State
	cmd     *exec.Cmd
	logSink *os.File
	exited  chan struct{}
	waitErr error
}

// New creates a Supervisor in the NotStarted state.
func New(opts Options) *Supervisor {
	markers := opts.Markers
	if len(markers.Fatal) == 0 && len(markers.Success) == 0 {
		markers = DefaultMarkers()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Supervisor{
		opts:    opts,
		markers: markers,
		logger:  logger.With("component", "supervisor"),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the supervised process ID, or 0 before Start.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// LogPath returns the path of the log sink.
func (s *Supervisor) LogPath() string {
	return s.opts.LogPath
}

// Start launches the executable with output redirected to the log sink and
// waits for initialization. startupTimeout bounds the wait; the poll loop
// resolves to Initialized on a success marker, short-circuits to Failed on a
// fatal marker or early process exit, and resolves to TimedOut when the
// budget elapses with neither marker present.
//
// The returned state is also recorded; TimedOut and Failed come back with a
// non-nil error.
func (s *Supervisor) Start(ctx context.Context, executable string, args []string, startupTimeout time.Duration) (State, error) {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return s.state, fmt.Errorf("supervisor already started (state %s)", s.state)
	}

	logSink, err := os.Create(s.opts.LogPath)
	if err != nil {
		s.mu.Unlock()
		return StateNotStarted, fmt.Errorf("failed to create log sink: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logSink
	cmd.Stderr = logSink

	if err := cmd.Start(); err != nil {
		logSink.Close()
		s.mu.Unlock()
		return StateNotStarted, errors.Wrap(errors.ErrCodeProcessNotStarted,
			fmt.Sprintf("failed to start %s", executable), err)
	}

	s.cmd = cmd
	s.logSink = logSink
	s.state = StateStarting
	s.exited = make(chan struct{})
	s.mu.Unlock()

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		close(s.exited)
		s.mu.Unlock()
	}()

	s.logger.Info("process started", "executable", executable, "pid", cmd.Process.Pid, "log", s.opts.LogPath)

	state, err := s.awaitInitialization(ctx, fileLogSource{path: s.opts.LogPath}, startupTimeout)

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Warn("startup detection finished", "state", state.String())
	} else {
		s.logger.Info("startup detection finished", "state", state.String())
	}
	return state, err
}

// awaitInitialization is the bounded poll loop. Every blocking wait here
// carries an explicit upper bound.
func (s *Supervisor) awaitInitialization(ctx context.Context, source LogSource, startupTimeout time.Duration) (State, error) {
	deadline := time.NewTimer(startupTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return StateFailed, fmt.Errorf("startup wait cancelled: %w", ctx.Err())
		case <-deadline.C:
			return StateTimedOut, errors.NewProcessTimeoutError(s.cmd.Path, startupTimeout.String())
		case <-ticker.C:
			logText, err := source.Contents()
			if err != nil {
				return StateFailed, fmt.Errorf("failed to read process log: %w", err)
			}

			fatal, success := s.markers.scan(logText)
			if fatal {
				return StateFailed, errors.New(errors.ErrCodeProcessFailed,
					"fatal marker observed during startup").
					WithSuggestion("Inspect the process log: " + s.opts.LogPath)
			}
			if success {
				return StateInitialized, nil
			}

			// Any exit before a success marker is a startup failure,
			// regardless of exit code or signal.
			if s.hasExited() {
				return StateFailed, errors.New(errors.ErrCodeProcessFailed,
					fmt.Sprintf("process exited before initializing: %v", s.exitError())).
					WithSuggestion("Inspect the process log: " + s.opts.LogPath)
			}
		}
	}
}

func (s *Supervisor) hasExited() bool {
	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()
	if exited == nil {
		return false
	}
	select {
	case <-exited:
		return true
	default:
		return false
	}
}

func (s *Supervisor) exitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

// Stop tears down the supervised process: graceful signal, bounded wait,
// forced kill if still alive. Only once the process is confirmed gone does
// the state become Terminated and the log sink close. Stop is idempotent;
// calling it before Start or after termination is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.state == StateNotStarted || s.state == StateTerminated || s.state == StateTerminating {
		s.mu.Unlock()
		return nil
	}
	s.state = StateTerminating
	cmd := s.cmd
	exited := s.exited
	s.mu.Unlock()

	if !s.hasExited() {
		if s.opts.SupportsSignals {
			s.logger.Debug("sending graceful termination signal", "pid", cmd.Process.Pid)
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				s.logger.Debug("graceful signal failed", "error", err.Error())
			}

			select {
			case <-exited:
			case <-time.After(s.opts.GracePeriod):
				s.logger.Warn("grace period elapsed, escalating to kill", "pid", cmd.Process.Pid)
				_ = cmd.Process.Kill()
				<-exited
			}
		} else {
			// No signal delivery on this target; kill outright.
			_ = cmd.Process.Kill()
			<-exited
		}
	}

	s.mu.Lock()
	if s.logSink != nil {
		s.logSink.Close()
		s.logSink = nil
	}
	s.state = StateTerminated
	s.mu.Unlock()

	s.logger.Info("process terminated", "pid", cmd.Process.Pid)
	return nil
}

// fileLogSource reads the accumulated log from the redirect file.
type fileLogSource struct {
	path string
}

// Contents implements LogSource.
func (f fileLogSource) Contents() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
