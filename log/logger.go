// Package log provides structured logging (slog) for the SDK host side,
// including forwarding of log records emitted by the embedded runtime.
package log

import (
	"io"
	"log/slog"
	"os"
)

// LoggerOption configures the SDK logger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	level     slog.Level
	addSource bool
	writer    io.Writer
}

// defaultLoggerConfig returns the default configuration.
func defaultLoggerConfig() loggerConfig {
	return loggerConfig{
		level:  slog.LevelInfo,
		writer: os.Stderr,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) LoggerOption {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) LoggerOption {
	return func(c *loggerConfig) {
		c.addSource = enabled
	}
}

// WithWriter sets the destination for log output (default: stderr).
func WithWriter(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		if w != nil {
			c.writer = w
		}
	}
}

// NewLogger creates a text slog.Logger with the given options.
func NewLogger(opts ...LoggerOption) *slog.Logger {
	cfg := defaultLoggerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return slog.New(slog.NewTextHandler(cfg.writer, &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.addSource,
	}))
}
