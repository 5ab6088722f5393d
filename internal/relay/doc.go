// Package relay holds the canonical state of the board's relay channels.
//
// A Bank is created once at startup with every channel off and is shared by
// the connection server (which mutates it) and the status publisher (which
// reads it). Channel numbers are 1-based, as they appear on the wire.
//
//	bank, err := relay.New(gpio.NewMemory(), 4)
//	if err != nil {
//	    return err
//	}
//	if err := bank.SetLevel(1, true); errors.Is(err, relay.ErrInvalidChannel) {
//	    // reply FAIL
//	}
package relay
