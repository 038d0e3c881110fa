package power

import (
	"os/exec"
	"strings"

	"github.com/go-errors/errors"
)

// DefaultCommand is run by the command halter unless configured otherwise.
const DefaultCommand = "shutdown -h now"

// CommandHalter runs an external command to power off.
type CommandHalter struct {
	command []string
	log     Logger
}

// Compile time check for protocol compatibility
var _ Halter = (*CommandHalter)(nil)

func NewCommandHalter(command string, logger Logger) (*CommandHalter, error) {
	if command == "" {
		command = DefaultCommand
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty halt command")
	}

	h := &CommandHalter{command: fields, log: logger}
	if h.log == nil {
		h.log = noopLogger{}
	}

	return h, nil
}

func (h *CommandHalter) Halt() error {
	h.log.Infof("Running %s", strings.Join(h.command, " "))

	out, err := exec.Command(h.command[0], h.command[1:]...).CombinedOutput()
	if err != nil {
		return errors.Errorf("Could not run %s: %v (%s)", h.command[0], err, strings.TrimSpace(string(out)))
	}

	return nil
}
