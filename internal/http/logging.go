package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger scopes the request logger to one handler operation. Requests behind
// RequireAuth already carry request_id, principal_id and role on the context logger.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	scoped := make([]any, 0, len(attrs)+4)
	scoped = append(scoped, "handler", handlerName)
	if operation != "" {
		scoped = append(scoped, "operation", operation)
	}
	return logger.With(append(scoped, attrs...)...)
}
