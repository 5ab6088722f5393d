// Package gpio provides the physical output drivers behind relay channels.
//
// Memory keeps levels in process and is used on hosts without relay
// hardware and in tests. Periph drives real pins through periph.io and is
// selected with `driver: periph` in the board configuration.
//
// Both implement relay.PinDriver.
package gpio
