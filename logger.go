package meshcache

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with meshcache-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithArchive adds the archive location to the logger.
func (l *Logger) WithArchive(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("archive", path),
	}
}

// WithObject adds the mesh object path to the logger.
func (l *Logger) WithObject(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("object", path),
	}
}

// LogOpen logs opening an archive for reading or writing.
func (l *Logger) LogOpen(ctx context.Context, mode string, objects int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"mode", mode,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "archive opened",
			"mode", mode,
			"objects", objects,
		)
	}
}

// LogSchemaDiagnostic logs a declaration that was dropped from an index.
func (l *Logger) LogSchemaDiagnostic(ctx context.Context, err error) {
	l.WarnContext(ctx, "attribute declaration ignored", "error", err)
}

// LogSample logs a cursor reload.
func (l *Logger) LogSample(ctx context.Context, index, points, faces int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sample load failed",
			"index", index,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample loaded",
			"index", index,
			"points", points,
			"faces", faces,
		)
	}
}

// LogAppend logs an appended mesh or transform sample.
func (l *Logger) LogAppend(ctx context.Context, meshIndex, sample int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"mesh", meshIndex,
			"sample", sample,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample appended",
			"mesh", meshIndex,
			"sample", sample,
		)
	}
}

// LogClose logs the closing summary of an archive.
func (l *Logger) LogClose(ctx context.Context, name string, objects int, samples []int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"name", name,
			"error", err,
		)
		return
	}
	total := 0
	for _, n := range samples {
		total += n
	}
	l.InfoContext(ctx, "archive closed",
		"name", name,
		"objects", objects,
		"samples", samples,
		"total_samples", total,
	)
}
