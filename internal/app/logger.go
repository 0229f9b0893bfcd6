package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger. Production always logs
// JSON; elsewhere LOG_FORMAT selects the handler.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
