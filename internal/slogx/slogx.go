// Package slogx builds slog loggers from configuration strings.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a text logger writing to w at the given level string.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// NewDefault creates a logger writing to stderr with the given level string.
func NewDefault(level string) *slog.Logger {
	return New(os.Stderr, level)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, "error")
}
