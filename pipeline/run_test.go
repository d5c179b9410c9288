package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// ──────────────────────────────────────────────────
// Lifecycle phases
// ──────────────────────────────────────────────────

func TestDoSettlesOK(t *testing.T) {
	t.Parallel()
	r := NewRunner()
	st := &OpState{}

	var sawLoading bool
	op := &Descriptor{Name: "jobs.create", SuccessMessage: "job created"}
	err := r.Do(context.Background(), op, st, func(_ context.Context) error {
		sawLoading = st.Loading()
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !sawLoading {
		t.Fatal("loading flag not set during the requested phase")
	}
	if st.Loading() {
		t.Fatal("loading flag still set after settle")
	}
	if st.SuccessMessage() != "job created" {
		t.Fatalf("success message = %q", st.SuccessMessage())
	}
	if st.Err() != "" {
		t.Fatalf("unexpected error state: %q", st.Err())
	}
}

func TestDoSettlesError(t *testing.T) {
	t.Parallel()
	r := NewRunner()
	st := &OpState{}

	serverErr := &service.APIError{Status: http.StatusConflict, Message: "job already filled"}
	err := r.Do(context.Background(), &Descriptor{Name: "jobs.update"}, st, func(_ context.Context) error {
		return serverErr
	})
	if !errors.Is(err, serverErr) {
		t.Fatalf("Do returned %v, want the underlying error", err)
	}
	if st.Loading() {
		t.Fatal("loading flag still set after settle-error")
	}
	if st.Err() != "job already filled" {
		t.Fatalf("error message = %q", st.Err())
	}
	if st.SuccessMessage() != "" {
		t.Fatalf("success message set on failure: %q", st.SuccessMessage())
	}
}

func TestRequestedPhaseClearsPriorSettle(t *testing.T) {
	t.Parallel()
	r := NewRunner()
	st := &OpState{}

	_ = r.Do(context.Background(), &Descriptor{Name: "op"}, st, func(_ context.Context) error {
		return &service.APIError{Status: 500, Message: "boom"}
	})
	if st.Err() == "" {
		t.Fatal("expected a settled error")
	}

	if err := r.Do(context.Background(), &Descriptor{Name: "op"}, st, func(_ context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if st.Err() != "" {
		t.Fatalf("prior error survived the next requested phase: %q", st.Err())
	}
}

func TestWrapperChainRuns(t *testing.T) {
	t.Parallel()

	var order []string
	wrapper := func(ctx context.Context, op *Descriptor, next Handler) error {
		order = append(order, "before:"+op.Name)
		err := next(ctx)
		order = append(order, "after:"+op.Name)
		return err
	}

	r := NewRunner(WithWrapper(wrapper))
	st := &OpState{}
	if err := r.Do(context.Background(), &Descriptor{Name: "op"}, st, func(_ context.Context) error {
		order = append(order, "call")
		return nil
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	want := "before:op,call,after:op"
	if got := strings.Join(order, ","); got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
}

// ──────────────────────────────────────────────────
// Error normalization
// ──────────────────────────────────────────────────

func TestNormalizePriority(t *testing.T) {
	t.Parallel()

	fieldErrs := map[string][]string{"cover_letter": {"required"}}

	tests := []struct {
		name       string
		err        error
		wantMsg    string
		wantFields bool
	}{
		{
			name:    "transport failure",
			err:     errors.New("dial tcp: connection refused"),
			wantMsg: TransportFailure + ": dial tcp: connection refused",
		},
		{
			name:    "context deadline",
			err:     context.DeadlineExceeded,
			wantMsg: TransportFailure,
		},
		{
			name:       "field errors beat message",
			err:        &service.APIError{Status: 422, Message: "validation failed", Fields: fieldErrs},
			wantMsg:    "validation failed",
			wantFields: true,
		},
		{
			name:    "server message",
			err:     &service.APIError{Status: 403, Message: "not your job"},
			wantMsg: "not your job",
		},
		{
			name:    "generic fallback",
			err:     &service.APIError{Status: 500},
			wantMsg: GenericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, fields := Normalize(tt.err)
			if msg != tt.wantMsg {
				t.Fatalf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if (fields != nil) != tt.wantFields {
				t.Fatalf("fields = %v, want present=%v", fields, tt.wantFields)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Busy tracker
// ──────────────────────────────────────────────────

func TestBusyTrackerDuplicateGuard(t *testing.T) {
	t.Parallel()
	tracker := NewBusyTracker()

	if !tracker.Begin("app_1") {
		t.Fatal("first Begin refused")
	}
	if tracker.Begin("app_1") {
		t.Fatal("second Begin for the same item allowed")
	}
	if !tracker.Begin("app_2") {
		t.Fatal("Begin for a different item refused")
	}

	tracker.End("app_1")
	if !tracker.Begin("app_1") {
		t.Fatal("Begin refused after End")
	}
}

// ──────────────────────────────────────────────────
// Batch fan-out
// ──────────────────────────────────────────────────

func TestBatchPartialSuccess(t *testing.T) {
	t.Parallel()
	r := NewRunner()

	result := r.Batch(context.Background(), []string{"a", "b", "c", "d"}, 5, nil,
		func(_ context.Context, itemID string) error {
			if itemID == "c" {
				return &service.APIError{Status: 409, Message: "already responded"}
			}
			return nil
		})

	if result.UpdatedCount != 3 {
		t.Fatalf("UpdatedCount = %d, want 3", result.UpdatedCount)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "already responded") {
		t.Fatalf("Errors = %v", result.Errors)
	}
}

func TestBatchBoundedConcurrency(t *testing.T) {
	t.Parallel()
	r := NewRunner()

	const limit = 2
	var active, peak atomic.Int32
	var mu sync.Mutex

	items := []string{"1", "2", "3", "4", "5", "6"}
	result := r.Batch(context.Background(), items, limit, nil,
		func(_ context.Context, _ string) error {
			now := active.Add(1)
			mu.Lock()
			if now > peak.Load() {
				peak.Store(now)
			}
			mu.Unlock()
			defer active.Add(-1)
			return nil
		})

	if result.UpdatedCount != len(items) {
		t.Fatalf("UpdatedCount = %d, want %d", result.UpdatedCount, len(items))
	}
	if peak.Load() > limit {
		t.Fatalf("observed %d concurrent calls, limit %d", peak.Load(), limit)
	}
}

func TestBatchSkipsBusyItems(t *testing.T) {
	t.Parallel()
	r := NewRunner()
	tracker := NewBusyTracker()
	tracker.Begin("b")

	var calls atomic.Int32
	result := r.Batch(context.Background(), []string{"a", "b"}, 2, tracker,
		func(_ context.Context, _ string) error {
			calls.Add(1)
			return nil
		})

	if calls.Load() != 1 {
		t.Fatalf("fn called %d times, want 1", calls.Load())
	}
	if result.UpdatedCount != 1 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Errors[0], "in flight") {
		t.Fatalf("busy error = %q", result.Errors[0])
	}
}
