package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

// Logging returns middleware that logs operation start and settlement.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *pipeline.Descriptor, next Handler) error {
		logger.Debug("operation started",
			slog.String("operation", op.Name),
			slog.String("entity_id", op.EntityID),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("operation failed",
				slog.String("operation", op.Name),
				slog.String("entity_id", op.EntityID),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("operation settled",
				slog.String("operation", op.Name),
				slog.String("entity_id", op.EntityID),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
