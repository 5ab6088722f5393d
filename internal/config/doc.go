// Package config loads the relay board configuration file.
//
// The file is YAML. Keys that are absent keep the values from Default, so a
// minimal file can override a single setting:
//
//	listen: ":8080"
//	driver: periph
//	relays:
//	  - pin: GPIO5
//	  - pin: GPIO6
//
// Channel N is the Nth entry of relays; at most nine relays are allowed so
// that every channel is a single digit on the wire.
//
// # Configuration File Location
//
// Without an explicit path the file is looked up in the platform config
// directory (see GetConfigDir). A missing file there is not an error.
package config
