package gpio

import (
	"fmt"
	"sync"
)

// Memory is an in-process pin table. It backs hosted runs without hardware
// and records every write for tests.
type Memory struct {
	mu     sync.Mutex
	pins   []bool
	writes int
	fail   map[int]error
}

// NewMemory returns an uninitialised in-memory driver.
func NewMemory() *Memory {
	return &Memory{fail: make(map[int]error)}
}

// Init sizes the pin table.
func (m *Memory) Init(count int) error {
	if count < 1 {
		return fmt.Errorf("gpio: invalid pin count %d", count)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins = make([]bool, count)
	return nil
}

// SetPin stores level for channel, or returns the failure injected with FailOn.
func (m *Memory) SetPin(channel int, level bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail[channel]; err != nil {
		return err
	}
	if channel < 1 || channel > len(m.pins) {
		return fmt.Errorf("gpio: channel %d not initialised", channel)
	}
	m.pins[channel-1] = level
	m.writes++
	return nil
}

// Pin reports the last level written to channel.
func (m *Memory) Pin(channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channel < 1 || channel > len(m.pins) {
		return false
	}
	return m.pins[channel-1]
}

// Writes returns the number of successful SetPin calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailOn makes every later SetPin on channel return err. A nil err clears it.
func (m *Memory) FailOn(channel int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, channel)
		return
	}
	m.fail[channel] = err
}
