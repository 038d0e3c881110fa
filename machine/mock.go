package machine

import (
	"sync"
)

// Call is one recorded SetChannel invocation.
type Call struct {
	Channel int
	On      bool
}

type MockMachineConfig struct {
	Channels int
	Logger   Logger
}

// MockMachine stands in for the relay board. It remembers every call and
// the current level of each channel.
type MockMachine struct {
	mu      sync.Mutex
	levels  []bool
	calls   []Call
	started bool
	log     Logger
}

// Compile time check for protocol compatibility
var _ Machine = (*MockMachine)(nil)

func NewMockMachine(config *MockMachineConfig) *MockMachine {
	m := &MockMachine{
		levels: make([]bool, config.Channels),
	}

	if config.Logger != nil {
		m.log = config.Logger
	} else {
		m.log = noopLogger{}
	}

	return m
}

func (m *MockMachine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = true

	return nil
}

func (m *MockMachine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch := range m.levels {
		m.levels[ch] = false
	}

	m.started = false

	return nil
}

func (m *MockMachine) Channels() int {
	return len(m.levels)
}

func (m *MockMachine) SetChannel(channel int, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Mock channel %d set to %v", channel, on)

	m.calls = append(m.calls, Call{Channel: channel, On: on})

	if channel >= 0 && channel < len(m.levels) {
		m.levels[channel] = on
	}
}

// Calls returns a copy of all recorded calls.
func (m *MockMachine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)

	return calls
}

// On reports the current level of a channel.
func (m *MockMachine) On(channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return channel >= 0 && channel < len(m.levels) && m.levels[channel]
}

// AnyOn reports whether any channel is currently on.
func (m *MockMachine) AnyOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, on := range m.levels {
		if on {
			return true
		}
	}

	return false
}

// Started reports whether Start was called without a later Stop.
func (m *MockMachine) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.started
}
