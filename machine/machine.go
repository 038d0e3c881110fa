// Package machine drives the pump relays of the dispenser.
package machine

// Machine is the hardware of the dispenser: a fixed number of pump channels
// that can be switched on and off.
type Machine interface {
	Start() error
	Stop() error
	Channels() int
	SetChannel(channel int, on bool)
}

// AllOff switches every channel of m off.
func AllOff(m Machine) {
	for ch := 0; ch < m.Channels(); ch++ {
		m.SetChannel(ch, false)
	}
}

// Logger is the logging interface used by machine implementations.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}
