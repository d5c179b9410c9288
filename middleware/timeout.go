package middleware

import (
	"context"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

// Timeout returns middleware that enforces a deadline on every
// operation's network call. A non-positive duration disables the
// deadline. When the deadline is exceeded the context is cancelled and
// the handler returns context.DeadlineExceeded, which the pipeline
// normalizes to its transport failure message.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *pipeline.Descriptor, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
