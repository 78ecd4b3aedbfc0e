package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Mode selects which roots a scan covers.
type Mode string

// Scan modes
const (
	ModeQuick  Mode = "quick"
	ModeFull   Mode = "full"
	ModeCustom Mode = "custom"
)

// ErrInvalidMode is returned by ParseMode for unknown input.
var ErrInvalidMode = errors.New("invalid scan mode")

// ParseMode accepts a mode name or its menu number (1 quick, 2 full, 3 custom).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "quick":
		return ModeQuick, nil
	case "2", "full":
		return ModeFull, nil
	case "3", "custom":
		return ModeCustom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// TargetOptions describes how to derive scan targets.
type TargetOptions struct {
	Mode       Mode
	CustomPath string
	// Explicit overrides Mode when non-empty.
	Explicit []string
	Home     string
	Volumes  func() ([]string, error)
	Exists   func(path string) bool
	Logger   *slog.Logger
}

// ResolveTargets returns the ordered root paths to scan. Overlapping roots
// are not deduplicated.
func ResolveTargets(opts TargetOptions) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exists := opts.Exists
	if exists == nil {
		exists = pathExists
	}

	if len(opts.Explicit) > 0 {
		return append([]string(nil), opts.Explicit...), nil
	}

	switch opts.Mode {
	case ModeFull:
		if opts.Volumes == nil {
			return nil, errors.New("volume enumeration not configured")
		}
		roots, err := opts.Volumes()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate volumes: %w", err)
		}
		return roots, nil
	case ModeCustom:
		if opts.CustomPath != "" && exists(opts.CustomPath) {
			return []string{opts.CustomPath}, nil
		}
		logger.Warn("custom path not found, falling back to quick scan", "path", opts.CustomPath)
		return homeTarget(opts.Home)
	case ModeQuick, "":
		return homeTarget(opts.Home)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
}

func homeTarget(home string) ([]string, error) {
	if home == "" {
		return nil, errors.New("home directory unknown")
	}
	return []string{home}, nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
