package supervise

import "strings"

// Markers are the two disjoint marker classes scanned for in the supervised
// process log. A fatal marker short-circuits startup detection immediately;
// a success marker completes it.
type Markers struct {
	Fatal   []string
	Success []string
}

// DefaultMarkers returns the marker set for the packaged Python server.
func DefaultMarkers() Markers {
	return Markers{
		Fatal: []string{
			"Traceback (most recent call last)",
			"FATAL ERROR",
			"Unhandled exception",
			"ModuleNotFoundError",
		},
		Success: []string{
			"Initialization complete",
			"Server listening on",
		},
	}
}

// scan classifies accumulated log output. Fatal markers win over success
// markers so a crash after a spurious success line is not missed.
func (m Markers) scan(logText string) (fatal, success bool) {
	for _, marker := range m.Fatal {
		if strings.Contains(logText, marker) {
			return true, false
		}
	}
	for _, marker := range m.Success {
		if strings.Contains(logText, marker) {
			return false, true
		}
	}
	return false, false
}

// LogSource provides the accumulated log output of a supervised process.
// The default implementation polls a log file; a streaming implementation
// can replace it without touching the supervisor state machine.
type LogSource interface {
	// Contents returns everything the process has logged so far.
	Contents() (string, error)
}
