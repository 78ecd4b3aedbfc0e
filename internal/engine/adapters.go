package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clean-dependency-project/cyberscan/internal/clamav"
	"github.com/clean-dependency-project/cyberscan/internal/defender"
	"github.com/clean-dependency-project/cyberscan/internal/version"
)

// ClamAV adapts a clamav.Scanner to Engine.
type ClamAV struct {
	scanner    clamav.Scanner
	minVersion string
	logger     *slog.Logger
}

// NewClamAV wraps scanner. When minVersion is set, an older engine produces a
// warning but is still used.
func NewClamAV(scanner clamav.Scanner, minVersion string, logger *slog.Logger) *ClamAV {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClamAV{scanner: scanner, minVersion: minVersion, logger: logger}
}

// Name returns the engine name.
func (c *ClamAV) Name() string { return NameClamAV }

// Scan runs clamscan over targets.
func (c *ClamAV) Scan(ctx context.Context, targets []string) ([]Detection, error) {
	result, err := c.scanner.Scan(ctx, targets)
	if errors.Is(err, clamav.ErrLaunchFailed) {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	md := result.Metadata
	c.logger.Info("clamav scan finished",
		"engine_version", md.EngineVersion,
		"database_date", md.DatabaseDate,
		"exit_code", md.ExitCode,
		"duration", md.ScanDuration,
		"infections", len(result.Infections))
	c.checkVersion(md.EngineVersion)

	detections := make([]Detection, 0, len(result.Infections))
	for _, inf := range result.Infections {
		detections = append(detections, Detection{Path: inf.Path, Label: inf.Signature})
	}
	return detections, err
}

func (c *ClamAV) checkVersion(banner string) {
	if c.minVersion == "" {
		return
	}
	v, err := version.Extract(banner)
	if err != nil {
		c.logger.Debug("could not determine ClamAV version", "banner", banner, "error", err)
		return
	}
	if err := version.Require(NameClamAV, v, c.minVersion); err != nil {
		c.logger.Warn("outdated scan engine", "error", err)
	}
}

// ThreatScanner is implemented by *defender.Scanner.
type ThreatScanner interface {
	Scan(ctx context.Context, paths []string) ([]defender.Threat, error)
}

// Defender adapts a Defender scanner to Engine.
type Defender struct {
	scanner ThreatScanner
}

// NewDefender wraps scanner.
func NewDefender(scanner ThreatScanner) *Defender {
	return &Defender{scanner: scanner}
}

// Name returns the engine name.
func (d *Defender) Name() string { return NameDefender }

// Scan runs Defender over targets.
func (d *Defender) Scan(ctx context.Context, targets []string) ([]Detection, error) {
	threats, err := d.scanner.Scan(ctx, targets)
	if errors.Is(err, defender.ErrLaunchFailed) {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	detections := make([]Detection, 0, len(threats))
	for _, t := range threats {
		detections = append(detections, Detection{Path: t.Resource, Label: t.Name})
	}
	return detections, err
}
