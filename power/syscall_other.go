//go:build !linux

package power

import "github.com/go-errors/errors"

type SyscallHalter struct{}

// Compile time check for protocol compatibility
var _ Halter = (*SyscallHalter)(nil)

func NewSyscallHalter(logger Logger) *SyscallHalter {
	return &SyscallHalter{}
}

func (h *SyscallHalter) Halt() error {
	return errors.New("syscall halt is only supported on linux")
}
