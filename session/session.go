// Package session is the scoped key/value resource holding the client's
// session state: auth tokens, the serialized user snapshot, and the
// transient workflow keys used by the deferred intent resolver.
//
// The resource outlives a page navigation but not a session; backends
// that support expiry (redis) bound its lifetime with a TTL. All access
// goes through the typed Session wrapper rather than ad hoc key reads
// sprinkled through calling code.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed session keys.
const (
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyUserID          = "userId"
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"

	// Transient workflow keys owned by the deferred intent resolver,
	// cleared on consumption.
	KeyPendingJobApplication = "pendingJobApplication"
	KeyRedirectAfterLogin    = "redirectAfterLogin"
)

// ErrKeyNotFound is returned when a key has no value.
var ErrKeyNotFound = errors.New("session: key not found")

// Store is the backend contract for the session resource.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// UserSnapshot is the serialized profile snapshot persisted at login.
type UserSnapshot struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"` // worker | employer | admin
}

// Session is the typed wrapper over a Store. It is the single owner of
// the fixed keys; no other code touches them directly.
type Session struct {
	store Store
}

// NewSession wraps a backend store.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// SetTokens persists the token pair issued at login.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.store.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyIsAuthenticated, "true")
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Session) AccessToken(ctx context.Context) string {
	v, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return ""
	}
	return v
}

// Authenticated reports whether a live session exists: the flag is set
// and the access token has not expired. Expired tokens are not
// refreshed here; re-authentication is left to the user.
func (s *Session) Authenticated(ctx context.Context) bool {
	flag, err := s.store.Get(ctx, KeyIsAuthenticated)
	if err != nil || flag != "true" {
		return false
	}
	token := s.AccessToken(ctx)
	if token == "" {
		return false
	}
	return !Expired(token)
}

// SetUser persists the user snapshot and id.
func (s *Session) SetUser(ctx context.Context, u UserSnapshot) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: marshal user snapshot: %w", err)
	}
	if err := s.store.Set(ctx, KeyUser, string(data)); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyUserID, u.ID)
}

// User returns the stored user snapshot.
func (s *Session) User(ctx context.Context) (UserSnapshot, error) {
	raw, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		return UserSnapshot{}, err
	}
	var u UserSnapshot
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return UserSnapshot{}, fmt.Errorf("session: decode user snapshot: %w", err)
	}
	return u, nil
}

// UserID returns the stored user id, or "".
func (s *Session) UserID(ctx context.Context) string {
	v, err := s.store.Get(ctx, KeyUserID)
	if err != nil {
		return ""
	}
	return v
}

// SetPendingIntent stores the deferred intent's target and return route,
// overwriting any prior uncommitted intent ("at most one live intent").
func (s *Session) SetPendingIntent(ctx context.Context, targetID, returnRoute string) error {
	if err := s.store.Set(ctx, KeyPendingJobApplication, targetID); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyRedirectAfterLogin, returnRoute)
}

// PendingIntent reads the stored intent keys. ok is false when no intent
// is captured.
func (s *Session) PendingIntent(ctx context.Context) (targetID, returnRoute string, ok bool) {
	targetID, err := s.store.Get(ctx, KeyPendingJobApplication)
	if err != nil || targetID == "" {
		return "", "", false
	}
	returnRoute, err = s.store.Get(ctx, KeyRedirectAfterLogin)
	if err != nil {
		returnRoute = ""
	}
	return targetID, returnRoute, true
}

// ClearPendingIntent removes the transient workflow keys. Idempotent.
func (s *Session) ClearPendingIntent(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyPendingJobApplication); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	if err := s.store.Delete(ctx, KeyRedirectAfterLogin); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// Logout clears the whole session resource.
func (s *Session) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Store exposes the underlying backend.
func (s *Session) Store() Store { return s.store }
