package machine

import (
	"fmt"
	"sync"

	"github.com/go-errors/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// DefaultPins are the BCM pins of the four pump relays.
var DefaultPins = []int{26, 16, 21, 19}

type DispenserMachineConfig struct {
	// Pins are BCM pin numbers, one per channel.
	Pins []int
	// ActiveHigh is set for relay boards that switch on a high level. Most
	// boards are active low.
	ActiveHigh bool
	Logger     Logger
}

// DispenserMachine switches relays connected to the GPIO header of a
// Raspberry Pi.
type DispenserMachine struct {
	pinNumbers []int
	activeHigh bool
	pins       []gpio.PinIO
	mu         sync.Mutex
	log        Logger
}

// Compile time check for protocol compatibility
var _ Machine = (*DispenserMachine)(nil)

func NewDispenserMachine(config *DispenserMachineConfig) *DispenserMachine {
	m := &DispenserMachine{
		pinNumbers: config.Pins,
		activeHigh: config.ActiveHigh,
	}

	if len(m.pinNumbers) == 0 {
		m.pinNumbers = DefaultPins
	}

	if config.Logger != nil {
		m.log = config.Logger
	} else {
		m.log = noopLogger{}
	}

	return m
}

// Start initializes periph and drives every relay to off.
func (m *DispenserMachine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := host.Init(); err != nil {
		return errors.Errorf("Could not initialize periph: %v", err)
	}

	m.pins = m.pins[:0]

	for _, n := range m.pinNumbers {
		name := fmt.Sprintf("GPIO%d", n)

		pin := gpioreg.ByName(name)
		if pin == nil {
			return errors.Errorf("Could not find pin %s", name)
		}

		if err := pin.Out(m.level(false)); err != nil {
			return errors.Errorf("Could not set pin %s to output: %v", name, err)
		}

		m.pins = append(m.pins, pin)
	}

	m.log.Infof("Initialized %d relay pins %v (active high: %v)", len(m.pins), m.pinNumbers, m.activeHigh)

	return nil
}

// Stop drives every relay to off.
func (m *DispenserMachine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed error

	for i, pin := range m.pins {
		if err := pin.Out(m.level(false)); err != nil {
			m.log.Errorf("Could not switch off channel %d: %v", i, err)
			failed = errors.Errorf("Could not switch off channel %d: %v", i, err)
		}
	}

	return failed
}

func (m *DispenserMachine) Channels() int {
	return len(m.pinNumbers)
}

// SetChannel switches one relay. Write failures are logged.
func (m *DispenserMachine) SetChannel(channel int, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if channel < 0 || channel >= len(m.pins) {
		m.log.Errorf("Could not set unknown channel %d", channel)
		return
	}

	m.log.Debugf("Setting channel %d (GPIO%d) to %v", channel, m.pinNumbers[channel], on)

	if err := m.pins[channel].Out(m.level(on)); err != nil {
		m.log.Errorf("Could not set channel %d to %v: %v", channel, on, err)
	}
}

func (m *DispenserMachine) level(on bool) gpio.Level {
	return gpio.Level(on == m.activeHigh)
}
