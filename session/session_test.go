package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "usr_test",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrKeyNotFound", err)
	}

	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := m.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatal("key survived Delete")
	}
}

func TestSessionAuthenticated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T, s *Session)
		want  bool
	}{
		{
			name:  "no session",
			setup: func(_ *testing.T, _ *Session) {},
			want:  false,
		},
		{
			name: "live token",
			setup: func(t *testing.T, s *Session) {
				if err := s.SetTokens(ctx, signedToken(t, time.Now().Add(time.Hour)), "refresh"); err != nil {
					t.Fatalf("SetTokens: %v", err)
				}
			},
			want: true,
		},
		{
			name: "expired token",
			setup: func(t *testing.T, s *Session) {
				if err := s.SetTokens(ctx, signedToken(t, time.Now().Add(-time.Hour)), "refresh"); err != nil {
					t.Fatalf("SetTokens: %v", err)
				}
			},
			want: false,
		},
		{
			name: "malformed token",
			setup: func(t *testing.T, s *Session) {
				if err := s.SetTokens(ctx, "not-a-jwt", "refresh"); err != nil {
					t.Fatalf("SetTokens: %v", err)
				}
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(NewMemory())
			tt.setup(t, s)
			if got := s.Authenticated(ctx); got != tt.want {
				t.Fatalf("Authenticated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewSession(NewMemory())

	u := UserSnapshot{ID: "usr_1", Email: "amina@example.com", Role: "worker"}
	if err := s.SetUser(ctx, u); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	got, err := s.User(ctx)
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if got != u {
		t.Fatalf("got %+v, want %+v", got, u)
	}
	if s.UserID(ctx) != "usr_1" {
		t.Fatalf("UserID = %q", s.UserID(ctx))
	}
}

func TestPendingIntentLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewSession(NewMemory())

	if _, _, ok := s.PendingIntent(ctx); ok {
		t.Fatal("intent present before capture")
	}

	if err := s.SetPendingIntent(ctx, "job_1", "/jobs/job_1"); err != nil {
		t.Fatalf("SetPendingIntent: %v", err)
	}

	// Capturing again overwrites the prior intent.
	if err := s.SetPendingIntent(ctx, "job_2", "/jobs/job_2"); err != nil {
		t.Fatalf("SetPendingIntent: %v", err)
	}

	target, route, ok := s.PendingIntent(ctx)
	if !ok || target != "job_2" || route != "/jobs/job_2" {
		t.Fatalf("intent = %q %q %v", target, route, ok)
	}

	if err := s.ClearPendingIntent(ctx); err != nil {
		t.Fatalf("ClearPendingIntent: %v", err)
	}
	if _, _, ok := s.PendingIntent(ctx); ok {
		t.Fatal("intent survived clear")
	}
	// Clearing twice is a no-op.
	if err := s.ClearPendingIntent(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
