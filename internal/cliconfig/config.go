package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultListenAddr is where the presentation server listens by default.
const DefaultListenAddr = "127.0.0.1:8080"

// Config holds CLI configuration for probecast.
type Config struct {
	// WatchDir is watched for processed frames dropped by the device.
	WatchDir string
	// RawDir holds the raw data files served by export requests.
	RawDir string
	// Debounce delays reading a frame file until writes to it settle.
	Debounce time.Duration

	ExportDir   string
	CatalogPath string
	NoCatalog   bool

	ListenAddr  string
	QueueSize   int
	EventBuffer int
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Debounce:    100 * time.Millisecond,
		ExportDir:   defaultExportDir(),
		ListenAddr:  DefaultListenAddr,
		QueueSize:   16,
		EventBuffer: 64,
		LogLevel:    "info",
	}
}

func defaultExportDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".probecast", "exports")
	}
	return ""
}

// CatalogPathFor returns the default catalog location for exportDir.
func CatalogPathFor(exportDir string) string {
	return filepath.Join(exportDir, "exports.db")
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return fmt.Errorf("watch-dir is required")
	}
	if c.RawDir == "" {
		c.RawDir = filepath.Join(c.WatchDir, "raw")
	}

	if c.ExportDir == "" {
		return fmt.Errorf("export-dir is required")
	}
	if c.CatalogPath == "" && !c.NoCatalog {
		c.CatalogPath = CatalogPathFor(c.ExportDir)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event buffer must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
