package accrual

import (
	"context"

	"github.com/Allen15763/accrual-bot-sub000/log"
)

type contextKey string

// loggerContextKey is the context key used to store the run logger.
const loggerContextKey = contextKey("accrual_logger")

// ContextWithLogger returns a context carrying the given logger.
// Pipeline steps and the classification engine retrieve it with
// LoggerFromContext, so a run's logger travels with its context.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext extracts the logger from the context, falling back to
// a no-op logger when none was attached.
//
//nolint:ireturn
func LoggerFromContext(ctx context.Context) log.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey).(log.Logger); ok && logger != nil {
			return logger
		}
	}

	return &log.NopLogger{}
}
