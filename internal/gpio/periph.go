package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph drives relay outputs through periph.io. Channel n maps to the
// n-th configured pin name (e.g. "GPIO16" on a Raspberry Pi).
type Periph struct {
	names []string
	pins  []pgpio.PinIO

	hostInit func() error
	lookup   func(name string) pgpio.PinIO
}

// NewPeriph returns a driver for the given pin names in channel order.
func NewPeriph(names []string) *Periph {
	return &Periph{
		names: append([]string(nil), names...),
		hostInit: func() error {
			_, err := host.Init()
			return err
		},
		lookup: gpioreg.ByName,
	}
}

// Init loads the host drivers and resolves every pin name.
func (p *Periph) Init(count int) error {
	if count != len(p.names) {
		return fmt.Errorf("gpio: %d channels requested but %d pins configured", count, len(p.names))
	}
	if err := p.hostInit(); err != nil {
		return fmt.Errorf("gpio: host init: %w", err)
	}

	p.pins = make([]pgpio.PinIO, count)
	for i, name := range p.names {
		pin := p.lookup(name)
		if pin == nil {
			return fmt.Errorf("gpio: pin %q not found", name)
		}
		p.pins[i] = pin
	}
	return nil
}

// SetPin drives the channel's pin as an output at level.
func (p *Periph) SetPin(channel int, level bool) error {
	if channel < 1 || channel > len(p.pins) {
		return fmt.Errorf("gpio: channel %d not initialised", channel)
	}
	pin := p.pins[channel-1]
	if err := pin.Out(pgpio.Level(level)); err != nil {
		return fmt.Errorf("gpio: %s out: %w", pin.Name(), err)
	}
	return nil
}
