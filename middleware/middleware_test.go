package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/middleware"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestOp() *pipeline.Descriptor {
	return &pipeline.Descriptor{Name: "jobs.update_status", EntityID: "job_123"}
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *pipeline.Descriptor, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}

	mw2 := func(ctx context.Context, _ *pipeline.Descriptor, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	handler := func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	}

	if err := chain(context.Background(), newTestOp(), handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	handler := func(_ context.Context) error {
		called = true
		return nil
	}

	if err := chain(context.Background(), newTestOp(), handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}
}

func TestChain_ErrorShortCircuits(t *testing.T) {
	wantErr := errors.New("blocked")
	blocking := func(_ context.Context, _ *pipeline.Descriptor, _ middleware.Handler) error {
		return wantErr
	}

	called := false
	chain := middleware.Chain(blocking)
	err := chain(context.Background(), newTestOp(), func(_ context.Context) error {
		called = true
		return nil
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if called {
		t.Fatal("handler must not run after a short-circuit")
	}
}

func TestRecover_ConvertsPanicToError(t *testing.T) {
	m := middleware.Recover(testLogger())

	err := m(context.Background(), newTestOp(), func(_ context.Context) error {
		panic("nil map write")
	})
	if err == nil {
		t.Fatal("expected an error from the recovered panic")
	}
}

func TestRecover_PassesThroughOnSuccess(t *testing.T) {
	m := middleware.Recover(testLogger())

	if err := m(context.Background(), newTestOp(), func(_ context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogging_PreservesError(t *testing.T) {
	m := middleware.Logging(testLogger())
	wantErr := errors.New("boom")

	err := m(context.Background(), newTestOp(), func(_ context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestTimeout_CancelsLongCall(t *testing.T) {
	m := middleware.Timeout(20 * time.Millisecond)

	err := m(context.Background(), newTestOp(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeout_ZeroDisablesDeadline(t *testing.T) {
	m := middleware.Timeout(0)

	err := m(context.Background(), newTestOp(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("no deadline expected")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
