// Package power halts the host the dispenser runs on.
package power

// Halter powers the machine off. Implementations return once the request was
// handed to the system; the process may be killed at any point afterwards.
type Halter interface {
	Halt() error
}

// Logger is the logging interface used by halters.
type Logger interface {
	Infof(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...interface{}) {}
