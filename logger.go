package hamidx

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hamidx-specific context, the same pattern
// the root vector-index package this module's ambient stack is modeled on
// uses: structured logging with consistent, domain-specific field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, a text handler writing to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs at the
// given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs at
// the given minimum level.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithBucket adds a bucket id field to the logger.
func (l *Logger) WithBucket(bucket uint64) *Logger {
	return &Logger{Logger: l.Logger.With("bucket", bucket)}
}

// WithK adds an error-bound field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// LogBuild logs index construction.
func (l *Logger) LogBuild(ctx context.Context, n int, splitterBits int, elapsedMS float64) {
	l.InfoContext(ctx, "index built",
		"entries", n,
		"splitter_bits", splitterBits,
		"elapsed_ms", elapsedMS,
	)
}

// LogMatch logs a match query.
func (l *Logger) LogMatch(ctx context.Context, k int, candidates, results uint64) {
	l.DebugContext(ctx, "match completed",
		"k", k,
		"candidates", candidates,
		"results", results,
	)
}
