package config

import "time"

// Config is the relay board configuration file.
type Config struct {
	Version int `yaml:"version"`

	Listen            string `yaml:"listen"`
	SSID              string `yaml:"ssid"`
	LogLevel          string `yaml:"log_level,omitempty"`
	ReadBuffer        int    `yaml:"read_buffer"`
	ConnTimeoutMS     int    `yaml:"conn_timeout_ms"`     // 0 disables the per-connection deadline
	PublishIntervalMS int    `yaml:"publish_interval_ms"` // status document refresh period
	PageFile          string `yaml:"page_file,omitempty"` // empty = embedded page

	Driver string  `yaml:"driver"` // memory | periph
	Relays []Relay `yaml:"relays"` // channel N is Relays[N-1]

	MDNS    MDNS    `yaml:"mdns"`
	Metrics Metrics `yaml:"metrics"`
}

// Relay binds one channel to a GPIO line.
type Relay struct {
	Pin string `yaml:"pin"` // periph pin name, e.g. "GPIO16"
}

// MDNS controls the service announcement.
type MDNS struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
	Domain   string `yaml:"domain"`
}

// Metrics controls the companion HTTP listener serving /metrics and the
// websocket status feed.
type Metrics struct {
	Listen string `yaml:"listen,omitempty"` // empty = disabled
}

// Driver names.
const (
	DriverMemory = "memory"
	DriverPeriph = "periph"
)

// Default returns the stock four-relay board on GPIO16-19.
func Default() *Config {
	return &Config{
		Version:           1,
		Listen:            ":80",
		SSID:              "relayboard",
		ReadBuffer:        1024,
		ConnTimeoutMS:     5000,
		PublishIntervalMS: 2000,
		Driver:            DriverMemory,
		Relays: []Relay{
			{Pin: "GPIO16"},
			{Pin: "GPIO17"},
			{Pin: "GPIO18"},
			{Pin: "GPIO19"},
		},
		MDNS: MDNS{
			Enabled:  true,
			Instance: "relayboard",
			Service:  "_http._tcp",
			Domain:   "local.",
		},
	}
}

// ConnTimeout is ConnTimeoutMS as a duration.
func (c *Config) ConnTimeout() time.Duration {
	return time.Duration(c.ConnTimeoutMS) * time.Millisecond
}

// PublishInterval is PublishIntervalMS as a duration.
func (c *Config) PublishInterval() time.Duration {
	return time.Duration(c.PublishIntervalMS) * time.Millisecond
}

// PinNames returns the configured pins in channel order.
func (c *Config) PinNames() []string {
	names := make([]string, len(c.Relays))
	for i, r := range c.Relays {
		names[i] = r.Pin
	}
	return names
}
