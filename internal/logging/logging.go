// Package logging configures the slog logger shared by the textindex
// commands. The markup and index packages never log; diagnostics reach the
// log through the compile layer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format selects the handler: "text" or "json".
	Format string
	// FilePath additionally writes logs to this file. Empty means stderr only.
	FilePath string
	// Output is where logs go when set; defaults to stderr.
	Output io.Writer
}

// DefaultConfig logs warnings and errors as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
	}
}

// Setup builds a logger from cfg and returns a cleanup function that closes
// the log file, if one was opened.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	cleanup := func() {}
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
		}
		output = io.MultiWriter(f, output)
		cleanup = func() {
			_ = f.Sync()
			_ = f.Close()
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler), cleanup, nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
