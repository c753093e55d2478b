package cliconfig

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded before reading PROBECAST_* variables, if present.
const DefaultEnvFile = ".env"

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (PROBECAST_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch-dir", os.Getenv("PROBECAST_WATCH_DIR"), &cfg.WatchDir)
	s.setString("raw-dir", os.Getenv("PROBECAST_RAW_DIR"), &cfg.RawDir)
	s.setString("export-dir", os.Getenv("PROBECAST_EXPORT_DIR"), &cfg.ExportDir)
	s.setString("catalog", os.Getenv("PROBECAST_CATALOG_PATH"), &cfg.CatalogPath)
	s.setString("listen", os.Getenv("PROBECAST_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("log-level", os.Getenv("PROBECAST_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("debounce", os.Getenv("PROBECAST_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	if err := s.setIntFromString("queue-size", os.Getenv("PROBECAST_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}
	if err := s.setIntFromString("event-buffer", os.Getenv("PROBECAST_EVENT_BUFFER"), &cfg.EventBuffer); err != nil {
		return err
	}

	s.setBoolFromString("no-catalog", os.Getenv("PROBECAST_NO_CATALOG"), &cfg.NoCatalog)

	return nil
}
