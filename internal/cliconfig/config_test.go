package cliconfig

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %v, want %v", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want 100ms", cfg.Debounce)
	}
	if cfg.QueueSize != 16 || cfg.EventBuffer != 64 {
		t.Errorf("QueueSize, EventBuffer = %d, %d; want 16, 64", cfg.QueueSize, cfg.EventBuffer)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func validConfig() Config {
	return Config{
		WatchDir:    "/tmp/frames",
		ExportDir:   "/tmp/exports",
		ListenAddr:  ":8080",
		Debounce:    time.Millisecond,
		QueueSize:   1,
		EventBuffer: 1,
		LogLevel:    "debug",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid minimal config", func(*Config) {}, false},
		{"missing watch dir", func(c *Config) { c.WatchDir = "" }, true},
		{"missing export dir", func(c *Config) { c.ExportDir = "" }, true},
		{"missing listen address", func(c *Config) { c.ListenAddr = "" }, true},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, true},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, true},
		{"negative event buffer", func(c *Config) { c.EventBuffer = -1 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"empty log level", func(c *Config) { c.LogLevel = "" }, true},
		{"warn level", func(c *Config) { c.LogLevel = "warn" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	c1 := validConfig()
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if want := filepath.Join("/tmp/frames", "raw"); c1.RawDir != want {
		t.Errorf("RawDir = %v, want %v", c1.RawDir, want)
	}
	if want := filepath.Join("/tmp/exports", "exports.db"); c1.CatalogPath != want {
		t.Errorf("CatalogPath = %v, want %v", c1.CatalogPath, want)
	}

	// Explicit values are kept
	c2 := validConfig()
	c2.RawDir = "/data/raw"
	c2.CatalogPath = "/data/catalog.db"
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.RawDir != "/data/raw" || c2.CatalogPath != "/data/catalog.db" {
		t.Errorf("RawDir, CatalogPath = %v, %v; explicit values overwritten", c2.RawDir, c2.CatalogPath)
	}

	// No catalog path is derived when the catalog is disabled
	c3 := validConfig()
	c3.NoCatalog = true
	if err := c3.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c3.CatalogPath != "" {
		t.Errorf("CatalogPath = %v, want empty", c3.CatalogPath)
	}
}
