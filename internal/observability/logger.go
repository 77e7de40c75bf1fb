// Package observability wires logging and metrics for the workbench
// commands. The library itself never logs; everything here serves the
// CLI layer.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a logger writing to stderr with the given level
// ("debug", "info", "warn", "error") and format ("text" or "json").
// Unknown values fall back to info and text.
func NewLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
