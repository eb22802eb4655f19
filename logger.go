package geobridge

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/geobridge/core"
)

// Logger wraps slog.Logger with bridge-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKey adds a shared-memory key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithNode adds an engine node field to the logger.
func (l *Logger) WithNode(node core.NodeID) *Logger {
	return &Logger{
		Logger: l.Logger.With("node", node),
	}
}

// LogGeometryUpload logs a geometry commit.
func (l *Logger) LogGeometryUpload(ctx context.Context, key string, node core.NodeID, sizeWords, attributes int, err error) {
	l = l.WithKey(key).WithNode(node)
	if err != nil {
		l.ErrorContext(ctx, "geometry upload failed", "error", err)
		return
	}
	l.DebugContext(ctx, "geometry upload completed",
		"size_words", sizeWords,
		"attributes", attributes,
	)
}

// LogVolumeUpload logs a full or partial volume commit.
func (l *Logger) LogVolumeUpload(ctx context.Context, key string, node core.NodeID, partial bool, err error) {
	l = l.WithKey(key).WithNode(node)
	if err != nil {
		l.ErrorContext(ctx, "volume upload failed",
			"partial", partial,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "volume upload completed", "partial", partial)
}

// LogLayerSync logs a raster layer sync.
func (l *Logger) LogLayerSync(ctx context.Context, key string, partial, found bool, cells int, err error) {
	l = l.WithKey(key)
	if err != nil {
		l.WarnContext(ctx, "layer sync failed, next sync is full",
			"partial", partial,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "layer sync completed",
		"partial", partial,
		"found", found,
		"cells", cells,
	)
}

// LogAttributeRead logs an attribute read-back.
func (l *Logger) LogAttributeRead(ctx context.Context, node core.NodeID, count int, err error) {
	l = l.WithNode(node)
	if err != nil {
		l.ErrorContext(ctx, "attribute read failed", "error", err)
		return
	}
	l.DebugContext(ctx, "attribute read completed", "count", count)
}

// LogClose logs the bridge shutdown.
func (l *Logger) LogClose(ctx context.Context, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"segments", segments,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "bridge closed",
			"segments", segments,
		)
	}
}
