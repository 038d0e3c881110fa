package power

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus"
)

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = "/org/freedesktop/login1"
	logindMethod = "org.freedesktop.login1.Manager.PowerOff"
)

// LogindHalter asks systemd-logind over the system bus to power off.
type LogindHalter struct {
	log Logger
}

// Compile time check for protocol compatibility
var _ Halter = (*LogindHalter)(nil)

func NewLogindHalter(logger Logger) *LogindHalter {
	h := &LogindHalter{log: logger}
	if h.log == nil {
		h.log = noopLogger{}
	}

	return h
}

func (h *LogindHalter) Halt() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return errors.Errorf("Could not connect to system bus: %v", err)
	}

	h.log.Infof("Requesting power off from logind")

	// The boolean disables interactive authorization prompts.
	call := conn.Object(logindDest, dbus.ObjectPath(logindPath)).Call(logindMethod, 0, false)
	if call.Err != nil {
		return errors.Errorf("Could not power off: %v", call.Err)
	}

	return nil
}
