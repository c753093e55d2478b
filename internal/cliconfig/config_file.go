package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WatchDir    string `toml:"watch_dir"`
	RawDir      string `toml:"raw_dir"`
	Debounce    string `toml:"debounce"`
	ExportDir   string `toml:"export_dir"`
	CatalogPath string `toml:"catalog_path"`
	NoCatalog   *bool  `toml:"no_catalog"`
	ListenAddr  string `toml:"listen_addr"`
	QueueSize   int    `toml:"queue_size"`
	EventBuffer int    `toml:"event_buffer"`
	LogLevel    string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.probecast/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".probecast", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("watch-dir", fc.WatchDir, &cfg.WatchDir)
	s.setString("raw-dir", fc.RawDir, &cfg.RawDir)
	s.setString("export-dir", fc.ExportDir, &cfg.ExportDir)
	s.setString("catalog", fc.CatalogPath, &cfg.CatalogPath)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setInt("queue-size", fc.QueueSize, &cfg.QueueSize)
	s.setInt("event-buffer", fc.EventBuffer, &cfg.EventBuffer)

	s.setBool("no-catalog", fc.NoCatalog, &cfg.NoCatalog)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
