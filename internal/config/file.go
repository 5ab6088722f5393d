package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "relayboard"
	configFile = "config.yaml"

	// maxRelays keeps every channel addressable by one ASCII digit.
	maxRelays = 9
)

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/relayboard or $HOME/.config/relayboard
//   - macOS: $HOME/.config/relayboard
//   - Windows: %LOCALAPPDATA%\relayboard
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(profile, "AppData", "Local", appName), nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	}
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads and validates the configuration at path. An empty path means
// the default location, and a missing file there yields Default(). A missing
// file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default() and validates the result, so a
// file only needs the keys it changes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the board cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected 1)", c.Version))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.ReadBuffer <= 0 {
		errs = append(errs, fmt.Errorf("read_buffer must be positive, got %d", c.ReadBuffer))
	}
	if c.ConnTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("conn_timeout_ms must not be negative, got %d", c.ConnTimeoutMS))
	}
	if c.PublishIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("publish_interval_ms must be positive, got %d", c.PublishIntervalMS))
	}

	switch c.Driver {
	case DriverMemory, DriverPeriph:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverMemory, DriverPeriph))
	}

	if n := len(c.Relays); n == 0 || n > maxRelays {
		errs = append(errs, fmt.Errorf("relays: need 1 to %d entries, got %d", maxRelays, n))
	}
	seen := make(map[string]int, len(c.Relays))
	for i, r := range c.Relays {
		if r.Pin == "" {
			errs = append(errs, fmt.Errorf("relays[%d]: pin is required", i))
			continue
		}
		if prev, dup := seen[r.Pin]; dup {
			errs = append(errs, fmt.Errorf("relays[%d]: pin %s already used by relays[%d]", i, r.Pin, prev))
			continue
		}
		seen[r.Pin] = i
	}

	if c.MDNS.Enabled {
		if c.MDNS.Instance == "" || c.MDNS.Service == "" {
			errs = append(errs, errors.New("mdns: instance and service are required when enabled"))
		}
	}

	return errors.Join(errs...)
}

// Save writes the configuration to path, creating its directory. The write
// goes through a temporary file and a rename.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# Relay board configuration\n#\n# Location: " + path + "\n\n")
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
