package power

import (
	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

// SyscallHalter flushes file systems and powers off through the reboot
// syscall. It needs CAP_SYS_BOOT and is meant for appliances running the
// daemon without an init system that could do it instead.
type SyscallHalter struct {
	log Logger
}

// Compile time check for protocol compatibility
var _ Halter = (*SyscallHalter)(nil)

func NewSyscallHalter(logger Logger) *SyscallHalter {
	h := &SyscallHalter{log: logger}
	if h.log == nil {
		h.log = noopLogger{}
	}

	return h
}

func (h *SyscallHalter) Halt() error {
	h.log.Infof("Syncing file systems and powering off")

	unix.Sync()

	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return errors.Errorf("Could not power off: %v", err)
	}

	return nil
}
