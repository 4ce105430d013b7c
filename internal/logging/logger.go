// Package logging provides structured logging for the task runner.
// It wraps Go's log/slog package to produce JSON-formatted events that are
// the runner's only user-visible surface: task creation, task start and
// completion, per-command progress, ignored and fatal failures, and the
// workers' waiting notices all flow through here.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels supported by the logger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger emits structured JSON log events. It is safe for concurrent use;
// child loggers created with the With* methods share the underlying writer.
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

// NewLogger creates a Logger that writes JSON events to stderr, or to
// {dir}/taskdist.log when dir is non-empty. The level string controls
// which events are emitted; unrecognized levels fall back to info.
func NewLogger(dir string, level string) (*Logger, error) {
	var writer io.Writer = os.Stderr
	var file *os.File

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logPath := filepath.Join(dir, "taskdist.log")
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return &Logger{logger: slog.New(handler), file: file}, nil
}

// NewWriterLogger creates a Logger that writes to an arbitrary writer at
// debug level. Intended for tests that inspect the emitted events.
func NewWriterLogger(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &Logger{logger: slog.New(handler)}
}

// ParseLevel converts a config-file level string to a slog.Level.
// Defaults to info if the level string is not recognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsValidLevel reports whether level names a supported log level.
func IsValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// WithWorker returns a child Logger with the worker name attached to all
// events it emits.
func (l *Logger) WithWorker(name string) *Logger {
	return &Logger{logger: l.logger.With("worker", name), file: l.file}
}

// WithTask returns a child Logger with the task identity attached to all
// events it emits.
func (l *Logger) WithTask(id int64, name string) *Logger {
	return &Logger{logger: l.logger.With("task_id", id, "task", name), file: l.file}
}

// With returns a child Logger with arbitrary key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With(args...), file: l.file}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Close closes the log file, if one was opened. A stderr- or writer-backed
// Logger treats Close as a no-op.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
