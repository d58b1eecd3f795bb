package logger

import (
	"log/slog"
	"os"

	"github.com/sonofthenation/arcanum/configs"
)

// NewLogger builds the process logger: readable text at Debug level for
// dev, JSON at Info for everything else.
func NewLogger(cfg *configs.Config) *slog.Logger {
	var handler slog.Handler

	switch cfg.Env {
	case "dev":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(handler)
}
