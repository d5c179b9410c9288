package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// GenericFailure is the fallback message when a failure carries neither a
// transport error nor a server message.
const GenericFailure = "something went wrong, please try again"

// TransportFailure is the message surfaced when the server could not be
// reached at all.
const TransportFailure = "could not reach server"

// Descriptor names an operation for the wrapper chain and logging.
type Descriptor struct {
	// Name is the operation identifier, e.g. "jobs.update_status".
	Name string
	// EntityID is the target entity id, if the operation has one.
	EntityID string
	// SuccessMessage is set on the OpState when the operation settles ok.
	SuccessMessage string
}

// Handler is the terminal function that performs the operation: the
// service call plus, on success, the synchronous projection update.
type Handler func(ctx context.Context) error

// Wrapper wraps a Handler with cross-cutting logic (logging, tracing,
// metrics, recover). The middleware package provides implementations.
type Wrapper func(ctx context.Context, op *Descriptor, next Handler) error

// Runner executes operations through the lifecycle. One Runner serves the
// whole engine; per-operation flags live in the OpState passed to Do.
type Runner struct {
	wrap   Wrapper
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWrapper sets the wrapper chain applied around every operation.
func WithWrapper(w Wrapper) RunnerOption {
	return func(r *Runner) { r.wrap = w }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do executes one operation through the requested → settled lifecycle.
//
// The requested phase sets loading and clears any prior settle on st.
// On success the settled-ok phase applies the descriptor's success
// message; on failure the settled-error phase stores the normalized
// message and field errors. The underlying error is also returned so
// callers that branch on expected outcomes (e.g. profile-not-found) can
// inspect it; it never needs to be re-surfaced to the UI.
func (r *Runner) Do(ctx context.Context, op *Descriptor, st *OpState, call Handler) error {
	st.begin()

	err := r.invoke(ctx, op, call)
	if err != nil {
		msg, fields := Normalize(err)
		st.settleErr(msg, fields)
		return err
	}

	st.settleOK(op.SuccessMessage)
	return nil
}

func (r *Runner) invoke(ctx context.Context, op *Descriptor, call Handler) error {
	if r.wrap == nil {
		return call(ctx)
	}
	return r.wrap(ctx, op, call)
}

// Normalize converts a failure into the user-facing message and optional
// field-error map. Priority order: transport failure, server field
// errors, server message, generic fallback.
func Normalize(err error) (string, map[string][]string) {
	if err == nil {
		return "", nil
	}

	var apiErr *service.APIError
	if !errors.As(err, &apiErr) {
		// No structured server response: the request never completed.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return TransportFailure, nil
		}
		return TransportFailure + ": " + err.Error(), nil
	}

	if apiErr.HasFieldErrors() {
		msg := apiErr.Message
		if msg == "" {
			msg = "please fix the highlighted fields"
		}
		return msg, apiErr.Fields
	}
	if apiErr.Message != "" {
		return apiErr.Message, nil
	}
	return GenericFailure, nil
}
