// Package logging configures the process-wide structured logger: JSON
// records, size-based file rotation, retention of only the most recent
// rotated files.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// FilePath enables file logging with rotation when non-empty.
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
	// Stdout mirrors records to stdout in addition to the file.
	Stdout bool
}

func DefaultConfig() Config {
	return Config{Level: "info", MaxSizeMB: 50, MaxFiles: 5, Stdout: true}
}

// Setup builds the logger and installs it as the slog default. The cleanup
// function closes the rotating file writer.
func Setup(cfg Config) (*slog.Logger, func()) {
	var writers []io.Writer
	cleanup := func() {}

	if cfg.FilePath != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxFiles,
			Compress:   true,
		}
		writers = append(writers, rotating)
		cleanup = func() { _ = rotating.Close() }
	}
	if cfg.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup
}

func parseLevel(level string) slog.Level {
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

// QueryPreview truncates query text for log fields so raw search content
// never lands in logs beyond a short prefix.
func QueryPreview(query string) string {
	const max = 32
	if len(query) <= max {
		return query
	}
	return query[:max] + "..."
}
