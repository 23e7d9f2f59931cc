// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to stdout. Developer machines get a
// human-readable text handler, everything else JSON.
func New(local bool, level string) *slog.Logger {
	return NewWithWriter(local, level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(local bool, level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if local {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", "contacts-api"))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
