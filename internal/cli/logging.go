package cli

import (
	"io"
	"log/slog"

	"github.com/clean-dependency-project/cyberscan/internal/logger"
)

// DefaultLogLevel keeps the interactive screens free of routine log lines.
const DefaultLogLevel = slog.LevelWarn

// NewLogger creates the application logger writing to w.
// All logs are sent to stderr in production to keep stdout clean for JSON output.
// An unknown format falls back to text.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format != logger.FormatJSON {
		format = logger.FormatText
	}
	l, err := logger.New(w, level.String(), format)
	if err != nil {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return l
}

// ParseLogLevelOrDefault parses a log level string or returns DefaultLogLevel.
func ParseLogLevelOrDefault(levelStr string) slog.Level {
	if levelStr == "" {
		return DefaultLogLevel
	}
	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		return DefaultLogLevel
	}
	return level
}
