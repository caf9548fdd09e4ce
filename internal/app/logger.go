package app

import (
	"log/slog"
	"os"
)

// LOG_FORMAT values.
const (
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// NewLogger builds the process logger. JSON output is meant for the shop's
// production box; pretty text for development. Source locations are only
// attached outside production.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: cfg == nil || !cfg.IsProduction()}
	if cfg != nil && cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
