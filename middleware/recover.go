package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace,
// so one broken operation cannot take the whole client down.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *pipeline.Descriptor, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("operation panicked",
					slog.String("operation", op.Name),
					slog.String("entity_id", op.EntityID),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in operation %s: %v", op.Name, r)
			}
		}()
		return next(ctx)
	}
}
