package supervise

// State is the lifecycle state of a supervised process.
//
// Transitions: NotStarted -> Starting -> {Initialized | Failed | TimedOut}
// -> Terminating -> Terminated. Stop is legal from any state and is a no-op
// once Terminated.
type State int

const (
	// StateNotStarted means Start has not been called yet
	StateNotStarted State = iota
	// StateStarting means the process is launched but initialization has
	// not been observed yet
	StateStarting
	// StateInitialized means a success marker was observed in the log
	StateInitialized
	// StateFailed means a fatal marker was observed, or the process exited
	// before initializing
	StateFailed
	// StateTimedOut means the startup budget elapsed with neither marker
	// class present; reported as failure but kept distinct for diagnostics
	StateTimedOut
	// StateTerminating means Stop is in progress
	StateTerminating
	// StateTerminated means the process is confirmed gone and the log sink
	// is closed
	StateTerminated
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarting:
		return "starting"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed-out"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
