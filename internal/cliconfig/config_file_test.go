package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				WatchDir:   "/data/frames",
				ExportDir:  "/data/exports",
				Debounce:   "250ms",
				QueueSize:  32,
				LogLevel:   "debug",
				NoCatalog:  &trueVal,
				ListenAddr: ":9000",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WatchDir:   "/data/frames",
				ExportDir:  "/data/exports",
				Debounce:   250 * time.Millisecond,
				QueueSize:  32,
				LogLevel:   "debug",
				NoCatalog:  true,
				ListenAddr: ":9000",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				WatchDir:  "/config/frames",
				ExportDir: "/config/exports",
			},
			changed: map[string]bool{"watch-dir": true},
			initial: Config{
				WatchDir: "/flag/frames",
			},
			expected: Config{
				WatchDir:  "/flag/frames", // unchanged because flag was set
				ExportDir: "/config/exports",
			},
		},
		{
			name: "zero values keep defaults",
			fileConfig: FileConfig{
				QueueSize: 0,
			},
			changed:  map[string]bool{},
			initial:  Config{QueueSize: 16, LogLevel: "info"},
			expected: Config{QueueSize: 16, LogLevel: "info"},
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				Debounce: "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
watch_dir = "/tmp/frames"
export_dir = "/tmp/exports"
debounce = "50ms"
queue_size = 8
no_catalog = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.WatchDir != "/tmp/frames" {
		t.Errorf("WatchDir = %v, want /tmp/frames", fc.WatchDir)
	}
	if fc.ExportDir != "/tmp/exports" {
		t.Errorf("ExportDir = %v, want /tmp/exports", fc.ExportDir)
	}
	if fc.Debounce != "50ms" {
		t.Errorf("Debounce = %v, want 50ms", fc.Debounce)
	}
	if fc.QueueSize != 8 {
		t.Errorf("QueueSize = %v, want 8", fc.QueueSize)
	}
	if fc.NoCatalog == nil || !*fc.NoCatalog {
		t.Errorf("NoCatalog = %v, want true", fc.NoCatalog)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
watch_dir = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".probecast") {
		t.Errorf("DefaultConfigPath() = %v, should contain .probecast", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
