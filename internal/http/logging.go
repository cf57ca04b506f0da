package http

import (
	"context"
	"log/slog"

	"github.com/example/pocket-assistant/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName string, attrs ...any) *slog.Logger {
	pairs := append([]any{"handler", handlerName}, attrs...)
	return logging.OrDefault(ctx, fallback).With(pairs...)
}
