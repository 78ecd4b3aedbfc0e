package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configData  string
		expectError bool
		errorMsg    string
		wantErr     error
	}{
		{
			name: "valid config",
			configData: `
version: "1.0"
metadata:
  name: "workstation"
engines:
  clamav:
    enabled: true
    binary: "/usr/local/bin/clamscan"
    min_version: "0.103"
    extra_args: ["--max-filesize=100M"]
  defender:
    enabled: false
simulation:
  enabled: true
  duration: "2s"
  probability: 0.25
  max_detections: 3
disposition:
  quarantine_base: "/var/quarantine"
  trash_fallback: "/var/trash"
  confirm_token: "ERASE"
ui:
  animate: false
  refresh_interval: "100ms"
storage:
  audit: true
  database_path: "/var/lib/cyberscan/audit.db"
log_level: "debug"
allowlist_file: "allow.json"
`,
			expectError: false,
		},
		{
			name: "partial config keeps defaults",
			configData: `
version: "1.0"
log_level: "info"
`,
			expectError: false,
		},
		{
			name: "missing version",
			configData: `
version: ""
`,
			expectError: true,
			wantErr:     ErrVersionRequired,
		},
		{
			name: "clamav enabled without binary",
			configData: `
version: "1.0"
engines:
  clamav:
    enabled: true
    binary: ""
`,
			expectError: true,
			wantErr:     ErrClamAVBinaryRequired,
		},
		{
			name: "invalid min version",
			configData: `
version: "1.0"
engines:
  clamav:
    min_version: "latest"
`,
			expectError: true,
			wantErr:     ErrInvalidMinVersion,
		},
		{
			name: "probability out of range",
			configData: `
version: "1.0"
simulation:
  probability: 1.5
`,
			expectError: true,
			wantErr:     ErrInvalidProbability,
		},
		{
			name: "bad simulation duration",
			configData: `
version: "1.0"
simulation:
  duration: "soon"
`,
			expectError: true,
			wantErr:     ErrInvalidDuration,
		},
		{
			name: "audit without database path",
			configData: `
version: "1.0"
storage:
  audit: true
  database_path: ""
`,
			expectError: true,
			wantErr:     ErrDatabasePathRequired,
		},
		{
			name:        "invalid yaml",
			configData:  "version: [unclosed",
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cyberscan.yaml", tt.configData)

			cfg, err := LoadConfig(path)
			if tt.expectError {
				if err == nil {
					t.Fatal("LoadConfig() expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("LoadConfig() error = %q, want it to contain %q", err, tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() unexpected error: %v", err)
			}
			if cfg == nil {
				t.Fatal("LoadConfig() returned nil config")
			}
		})
	}
}

func TestLoadConfig_Values(t *testing.T) {
	path := writeFile(t, "cyberscan.yaml", `
version: "1.0"
engines:
  clamav:
    enabled: true
    binary: "clamdscan"
    extra_args: ["--fdpass"]
simulation:
  duration: "1500ms"
ui:
  refresh_interval: "80ms"
disposition:
  confirm_token: "ERASE"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engines.ClamAV.Binary != "clamdscan" {
		t.Errorf("Binary = %q, want clamdscan", cfg.Engines.ClamAV.Binary)
	}
	if len(cfg.Engines.ClamAV.ExtraArgs) != 1 || cfg.Engines.ClamAV.ExtraArgs[0] != "--fdpass" {
		t.Errorf("ExtraArgs = %v", cfg.Engines.ClamAV.ExtraArgs)
	}
	if got := cfg.Simulation.GetDuration(); got != 1500*time.Millisecond {
		t.Errorf("GetDuration() = %v, want 1.5s", got)
	}
	if got := cfg.UI.GetRefreshInterval(); got != 80*time.Millisecond {
		t.Errorf("GetRefreshInterval() = %v, want 80ms", got)
	}
	if cfg.Disposition.ConfirmToken != "ERASE" {
		t.Errorf("ConfirmToken = %q, want ERASE", cfg.Disposition.ConfirmToken)
	}
	// Untouched sections keep their defaults.
	if cfg.Disposition.QuarantineBase != DefaultQuarantineBase {
		t.Errorf("QuarantineBase = %q, want default", cfg.Disposition.QuarantineBase)
	}
	if !cfg.Engines.Defender.Enabled {
		t.Error("Defender should stay enabled by default")
	}
	if cfg.Simulation.Enabled {
		t.Error("Simulation must be opt-in")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadOrDefault("")
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.Version != DefaultVersion {
			t.Errorf("Version = %q, want default", cfg.Version)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.LogLevel != DefaultLogLevel {
			t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
		}
	})

	t.Run("broken file is an error", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "version: [")
		if _, err := LoadOrDefault(path); err == nil {
			t.Error("LoadOrDefault() should surface parse errors")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Simulation.GetDuration() != DefaultSimulationTime {
		t.Errorf("simulation duration = %v", cfg.Simulation.GetDuration())
	}
	if cfg.UI.GetRefreshInterval() != DefaultRefreshInterval {
		t.Errorf("refresh interval = %v", cfg.UI.GetRefreshInterval())
	}
	if cfg.Storage.Audit {
		t.Error("audit store must be opt-in")
	}
}

func TestDispositionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DispositionConfig
		wantErr error
	}{
		{"complete", DispositionConfig{"q", "t", "CONFIRM"}, nil},
		{"missing quarantine", DispositionConfig{"", "t", "CONFIRM"}, ErrQuarantineBaseRequired},
		{"missing trash", DispositionConfig{"q", "", "CONFIRM"}, ErrTrashFallbackRequired},
		{"missing token", DispositionConfig{"q", "t", ""}, ErrConfirmTokenRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetDurationFallbacks(t *testing.T) {
	s := SimulationConfig{Duration: "-1s"}
	if got := s.GetDuration(); got != DefaultSimulationTime {
		t.Errorf("negative duration should fall back, got %v", got)
	}
	u := UIConfig{RefreshInterval: "fast"}
	if got := u.GetRefreshInterval(); got != DefaultRefreshInterval {
		t.Errorf("invalid interval should fall back, got %v", got)
	}
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := DefaultConfig()
	cfg.Engines.ClamAV.MinVersion = "1.0.0"
	cfg.AllowlistFile = "allow.yaml"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}
	if loaded.Engines.ClamAV.MinVersion != "1.0.0" {
		t.Errorf("MinVersion = %q, want 1.0.0", loaded.Engines.ClamAV.MinVersion)
	}
	if loaded.AllowlistFile != "allow.yaml" {
		t.Errorf("AllowlistFile = %q", loaded.AllowlistFile)
	}
}

func TestSaveConfig_BadPath(t *testing.T) {
	err := SaveConfig(DefaultConfig(), filepath.Join(t.TempDir(), "missing", "dir", "c.yaml"))
	if err == nil {
		t.Error("SaveConfig() expected error for unwritable path")
	}
}
