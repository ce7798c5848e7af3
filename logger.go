package vecmesh

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecmesh-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, shardID, itemID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"shard", shardID,
			"item", itemID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"shard", shardID,
			"item", itemID,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogMaintenance logs a maintenance sweep.
func (l *Logger) LogMaintenance(ctx context.Context, shards, pruned, compressed int) {
	l.InfoContext(ctx, "maintenance completed",
		"shards", shards,
		"pruned_items", pruned,
		"compressed_shards", compressed,
	)
}

// LogCompress logs a shard compression.
func (l *Logger) LogCompress(ctx context.Context, shardID string, ratio float64) {
	l.InfoContext(ctx, "shard compressed",
		"shard", shardID,
		"ratio", ratio,
	)
}

// LogShardCreated logs the creation of a new shard.
func (l *Logger) LogShardCreated(ctx context.Context, shardID string, total int) {
	l.InfoContext(ctx, "shard created",
		"shard", shardID,
		"total", total,
	)
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, blobs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"blobs", blobs,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot written",
			"blobs", blobs,
		)
	}
}
