package relay

import (
	"errors"
	"fmt"
	"sync"
)

// MaxChannels is the largest bank size addressable by the single-digit
// request format.
const MaxChannels = 9

// ErrInvalidChannel is returned for a channel outside [1, Count()].
var ErrInvalidChannel = errors.New("relay: invalid channel")

// PinDriver drives the physical output behind each channel.
// Channels are 1-based, matching the bank.
type PinDriver interface {
	Init(count int) error
	SetPin(channel int, level bool) error
}

// Bank owns the on/off state of a fixed set of relay channels.
//
// The flag and the physical output are updated together under the bank's
// lock: if the driver rejects a write, the flag keeps its previous value.
type Bank struct {
	mu     sync.RWMutex
	driver PinDriver
	levels []bool
}

// New initialises the driver for count channels and drives every output low.
func New(driver PinDriver, count int) (*Bank, error) {
	if driver == nil {
		return nil, errors.New("relay: pin driver required")
	}
	if count < 1 || count > MaxChannels {
		return nil, fmt.Errorf("relay: channel count %d out of range [1, %d]", count, MaxChannels)
	}

	if err := driver.Init(count); err != nil {
		return nil, fmt.Errorf("relay: init outputs: %w", err)
	}
	for ch := 1; ch <= count; ch++ {
		if err := driver.SetPin(ch, false); err != nil {
			return nil, fmt.Errorf("relay: reset channel %d: %w", ch, err)
		}
	}

	return &Bank{
		driver: driver,
		levels: make([]bool, count),
	}, nil
}

// Count returns the number of channels.
func (b *Bank) Count() int {
	return len(b.levels)
}

// SetLevel drives channel to level and records it.
func (b *Bank) SetLevel(channel int, level bool) error {
	if !b.valid(channel) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.driver.SetPin(channel, level); err != nil {
		return fmt.Errorf("relay: drive channel %d: %w", channel, err)
	}
	b.levels[channel-1] = level
	return nil
}

// Level reports the stored level of channel.
func (b *Bank) Level(channel int) (bool, error) {
	if !b.valid(channel) {
		return false, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.levels[channel-1], nil
}

// Levels returns a copy of every channel's level, index 0 being channel 1.
// The copy is taken under one read lock, so it never mixes states from
// before and after a concurrent SetLevel.
func (b *Bank) Levels() []bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]bool, len(b.levels))
	copy(out, b.levels)
	return out
}

func (b *Bank) valid(channel int) bool {
	return channel >= 1 && channel <= len(b.levels)
}
