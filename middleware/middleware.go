// Package middleware provides composable middleware for pipeline
// operations. Middleware wraps operation calls synchronously and can
// modify execution (recover from panics, log, add tracing, enforce a
// request deadline).
package middleware

import (
	"context"

	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

// Handler is the terminal function that executes the operation's
// network call.
type Handler = pipeline.Handler

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the operation descriptor, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware = pipeline.Wrapper

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, op *pipeline.Descriptor, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, op, prev)
			}
		}
		return h(ctx)
	}
}
