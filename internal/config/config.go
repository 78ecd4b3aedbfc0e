// Package config provides configuration management for cyberscan.
// It handles the YAML settings file covering engines, simulation,
// disposition paths, the interface and the audit store.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/version"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration validation
var (
	ErrVersionRequired        = errors.New("version is required")
	ErrClamAVBinaryRequired   = errors.New("clamav binary is required when clamav is enabled")
	ErrInvalidMinVersion      = errors.New("clamav min_version is not a valid version")
	ErrInvalidProbability     = errors.New("simulation probability must be between 0 and 1")
	ErrInvalidMaxDetections   = errors.New("simulation max_detections must be at least 1")
	ErrInvalidDuration        = errors.New("invalid duration")
	ErrQuarantineBaseRequired = errors.New("disposition quarantine_base is required")
	ErrTrashFallbackRequired  = errors.New("disposition trash_fallback is required")
	ErrConfirmTokenRequired   = errors.New("disposition confirm_token is required")
	ErrDatabasePathRequired   = errors.New("storage database_path is required when audit is enabled")
)

// Defaults applied when a field is left empty.
const (
	DefaultVersion         = "1.0"
	DefaultClamAVBinary    = "clamscan"
	DefaultSimulationTime  = 4 * time.Second
	DefaultProbability     = 0.5
	DefaultMaxDetections   = 5
	DefaultQuarantineBase  = "cyber_quarantine"
	DefaultTrashFallback   = "cyber_trash"
	DefaultConfirmToken    = "CONFIRM"
	DefaultRefreshInterval = 50 * time.Millisecond
	DefaultDatabasePath    = "cyberscan.db"
	DefaultLogLevel        = "warn"
	DefaultTitle           = "CYBER SCAN"
)

// Config represents the top-level configuration structure.
type Config struct {
	Version       string            `yaml:"version"`
	Metadata      Metadata          `yaml:"metadata"`
	Engines       EnginesConfig     `yaml:"engines"`
	Simulation    SimulationConfig  `yaml:"simulation"`
	Disposition   DispositionConfig `yaml:"disposition"`
	UI            UIConfig          `yaml:"ui"`
	Storage       StorageConfig     `yaml:"storage"`
	LogLevel      string            `yaml:"log_level"`
	AllowlistFile string            `yaml:"allowlist_file"` // Path to JSON/YAML file of paths never reported
}

// Metadata represents metadata about the configuration.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Created     string `yaml:"created"`
	Updated     string `yaml:"updated"`
}

// EnginesConfig configures the real scanning engines.
type EnginesConfig struct {
	ClamAV   ClamAVConfig   `yaml:"clamav"`
	Defender DefenderConfig `yaml:"defender"`
}

// ClamAVConfig configures the clamscan adapter.
type ClamAVConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Binary     string   `yaml:"binary"`
	MinVersion string   `yaml:"min_version"` // e.g. "0.103"; empty disables the check
	ExtraArgs  []string `yaml:"extra_args"`
}

// DefenderConfig configures the Microsoft Defender adapter.
type DefenderConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Candidates []string `yaml:"candidates"` // MpCmdRun.exe locations; empty uses the built-in list
}

// SimulationConfig configures the demonstration engine.
type SimulationConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Duration      string  `yaml:"duration"`
	Probability   float64 `yaml:"probability"`
	MaxDetections int     `yaml:"max_detections"`
}

// GetDuration parses and returns the simulated scan duration
func (s *SimulationConfig) GetDuration() time.Duration {
	return parseDurationOr(s.Duration, DefaultSimulationTime)
}

// DispositionConfig configures where quarantined and recycled files go.
type DispositionConfig struct {
	QuarantineBase string `yaml:"quarantine_base"`
	TrashFallback  string `yaml:"trash_fallback"`
	ConfirmToken   string `yaml:"confirm_token"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	Animate         bool   `yaml:"animate"`
	RefreshInterval string `yaml:"refresh_interval"`
	Title           string `yaml:"title"`
}

// GetRefreshInterval parses and returns the animation frame interval
func (u *UIConfig) GetRefreshInterval() time.Duration {
	return parseDurationOr(u.RefreshInterval, DefaultRefreshInterval)
}

// StorageConfig represents storage configuration for the audit trail.
type StorageConfig struct {
	Audit        bool   `yaml:"audit"`
	DatabasePath string `yaml:"database_path"`
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig loads and parses the configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads filePath when it exists and falls back to DefaultConfig
// when it does not. Any other read or parse failure is returned.
func LoadOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(filePath)
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if err := c.Engines.ClamAV.Validate(); err != nil {
		return fmt.Errorf("engines.clamav: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Disposition.Validate(); err != nil {
		return fmt.Errorf("disposition: %w", err)
	}
	if c.UI.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.UI.RefreshInterval); err != nil {
			return fmt.Errorf("ui.refresh_interval: %w: %w", ErrInvalidDuration, err)
		}
	}
	if c.Storage.Audit && c.Storage.DatabasePath == "" {
		return ErrDatabasePathRequired
	}
	return nil
}

// Validate validates the ClamAV configuration.
func (c *ClamAVConfig) Validate() error {
	if !c.Enabled {
		return nil // Skip validation for a disabled engine
	}
	if c.Binary == "" {
		return ErrClamAVBinaryRequired
	}
	if c.MinVersion != "" {
		if err := version.Validate(c.MinVersion); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMinVersion, err)
		}
	}
	return nil
}

// Validate validates the simulation configuration.
func (s *SimulationConfig) Validate() error {
	if s.Duration != "" {
		if _, err := time.ParseDuration(s.Duration); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDuration, err)
		}
	}
	if s.Probability < 0 || s.Probability > 1 {
		return ErrInvalidProbability
	}
	if s.MaxDetections < 1 {
		return ErrInvalidMaxDetections
	}
	return nil
}

// Validate validates the disposition configuration.
func (d *DispositionConfig) Validate() error {
	if d.QuarantineBase == "" {
		return ErrQuarantineBaseRequired
	}
	if d.TrashFallback == "" {
		return ErrTrashFallbackRequired
	}
	if d.ConfirmToken == "" {
		return ErrConfirmTokenRequired
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: DefaultVersion,
		Metadata: Metadata{
			Name:        "cyberscan",
			Description: "cyberscan settings",
		},
		Engines: EnginesConfig{
			ClamAV: ClamAVConfig{
				Enabled: true,
				Binary:  DefaultClamAVBinary,
			},
			Defender: DefenderConfig{
				Enabled: true,
			},
		},
		Simulation: SimulationConfig{
			Enabled:       false,
			Duration:      DefaultSimulationTime.String(),
			Probability:   DefaultProbability,
			MaxDetections: DefaultMaxDetections,
		},
		Disposition: DispositionConfig{
			QuarantineBase: DefaultQuarantineBase,
			TrashFallback:  DefaultTrashFallback,
			ConfirmToken:   DefaultConfirmToken,
		},
		UI: UIConfig{
			Animate:         true,
			RefreshInterval: DefaultRefreshInterval.String(),
			Title:           DefaultTitle,
		},
		Storage: StorageConfig{
			Audit:        false,
			DatabasePath: DefaultDatabasePath,
		},
		LogLevel: DefaultLogLevel,
	}
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}
