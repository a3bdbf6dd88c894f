package observability

import (
	"log/slog"
	"os"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
)

// NewLogger builds the process-wide slog.Logger from config: JSON or text
// handler per LOG_FORMAT, level per LOG_LEVEL (unknown levels fall back to
// info).
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
