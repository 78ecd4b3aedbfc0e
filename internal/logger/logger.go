// Package logger builds the slog logger used across cyberscan.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	ErrEmptyOption   = errors.New("log level and format must not be empty")
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// New returns a logger writing to w and installs it as the slog default.
// Level is one of debug, info, warn (or warning), error; format is json or text.
// Both are case-insensitive.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	if strings.TrimSpace(level) == "" || strings.TrimSpace(format) == "" {
		return nil, ErrEmptyOption
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	handler, err := newHandler(w, strings.ToLower(strings.TrimSpace(format)), &slog.HandlerOptions{Level: lvl})
	if err != nil {
		return nil, err
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l, nil
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatText:
		return slog.NewTextHandler(w, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

// ParseLevel maps a level name to its slog.Level. Unknown names yield
// LevelInfo together with ErrInvalidLevel.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}
