package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level is driven by LOG_LEVEL
// so debugging a single environment never requires a rebuild.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
