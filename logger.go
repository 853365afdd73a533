package resforge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/resforge/platform"
)

// Logger wraps slog.Logger with resforge-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// ParseLogLevel resolves debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.TrimSpace(s)))
	return l, err
}

// WithPath adds an archive path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithPlatform adds platform and version fields to the logger.
func (l *Logger) WithPlatform(p *platform.Profile, version int) *Logger {
	return &Logger{
		Logger: l.Logger.With("platform", p.Name, "version", version),
	}
}

// LogMount logs a mounted archive or directory.
func (l *Logger) LogMount(ctx context.Context, kind, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mount failed",
			"kind", kind,
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "mounted",
			"kind", kind,
			"path", path,
		)
	}
}

// LogRead logs a file read through the workspace.
func (l *Logger) LogRead(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.DebugContext(ctx, "read failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"path", path,
			"size", size,
		)
	}
}

// LogLoad logs a resource decode.
func (l *Logger) LogLoad(ctx context.Context, path, kind string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"kind", kind,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"path", path,
			"kind", kind,
		)
	}
}

// LogSave logs a resource encode.
func (l *Logger) LogSave(ctx context.Context, path string, size, gpuSize int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"path", path,
			"size", size,
			"gpu_size", gpuSize,
		)
	}
}

// LogExtract logs an extraction batch.
func (l *Logger) LogExtract(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "extract completed with failures",
			"total", count,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "extract completed",
			"count", count,
		)
	}
}
