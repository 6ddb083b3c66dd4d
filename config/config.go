// Package config provides configuration management for Wireless Manager.
// It handles loading and saving the static startup parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/wifi-manager/common"
)

// Bus selectors accepted by Config.Bus.
const (
	BusSystem  = "system"
	BusSession = "session"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// Interface pins the wireless device by name (e.g. "wlan0"). Empty picks the first Wi-Fi device.
	Interface string `yaml:"interface"`
	// Bus selects where NetworkManager and the daemon live: "system", "session", or a bus address.
	Bus string `yaml:"bus"`
	// PollInterval is how often the daemon re-queries state for notifications.
	PollInterval time.Duration `yaml:"poll_interval"`
	// CallTimeout bounds every bus round trip.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// ConnectTimeout bounds a connect attempt including activation.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// ScanSettle is the pause between requesting a scan and reading results.
	ScanSettle time.Duration `yaml:"scan_settle"`
	// Workers is the reactive model's worker pool size.
	Workers int `yaml:"workers"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogToFile enables the rotated log file.
	LogToFile bool `yaml:"log_to_file"`
	// History enables recording notification events to sqlite.
	History bool `yaml:"history"`
	// ShowNotifications enables desktop notifications from the tray.
	ShowNotifications bool `yaml:"show_notifications"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bus:               BusSystem,
		PollInterval:      common.PollInterval,
		CallTimeout:       common.CallTimeout,
		ConnectTimeout:    common.ConnectionTimeout,
		ScanSettle:        common.ScanSettle,
		Workers:           common.DefaultWorkers,
		LogLevel:          "info",
		LogToFile:         false,
		History:           true,
		ShowNotifications: true,
	}
}

// DefaultPath returns the config file location in the user's config directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}

// Load loads the configuration from path. An empty path means DefaultPath().
// If the file doesn't exist, the defaults are returned without writing anything.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing configuration: %v", common.ErrConfigLoad, err)
	}

	config.validate()

	return config, nil
}

// validate resets out-of-range values to their defaults.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.Bus == "" {
		c.Bus = def.Bus
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ScanSettle < 0 {
		c.ScanSettle = def.ScanSettle
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if !slices.Contains(validLevels, c.LogLevel) {
		c.LogLevel = def.LogLevel
	}
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}
