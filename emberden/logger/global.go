package logger

import (
	"log/slog"
	"time"
)

// LogQuery records one storage round trip. Failures log at ERROR with
// the offending statement; successes stay at DEBUG so routine traffic
// does not drown the command log.
func LogQuery(operation, query string, took time.Duration, err error, attrs ...any) {
	base := []any{
		slog.String("type", "db"),
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Duration("took", took),
	}
	base = append(base, attrs...)

	if err != nil {
		slog.Error("Query failed", append(base, slog.Any("error", err))...)
		return
	}
	slog.Debug("Query executed", base...)
}

// LogSystem logs lifecycle events: startup, command sync, shutdown.
func LogSystem(msg string, attrs ...any) {
	slog.Info(msg, append([]any{slog.String("type", "sys")}, attrs...)...)
}

// LogError logs a failure outside the command and query paths.
func LogError(msg string, err error, attrs ...any) {
	slog.Error(msg, append([]any{
		slog.String("type", "sys"),
		slog.Any("error", err),
	}, attrs...)...)
}
