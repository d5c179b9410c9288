// Package redis provides a redis-backed session store. The whole session
// lives in a single hash keyed by session id, with a TTL bounding its
// lifetime so abandoned sessions expire server-side.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tafakari-Ltd/kazibuddy-sync/session"
)

// Store is a redis-backed implementation of session.Store.
type Store struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
}

var _ session.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the session hash lifetime. Each write refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates a session store for the given session id.
func New(client *redis.Client, sessionID string, opts ...Option) *Store {
	s := &Store{
		client:    client,
		sessionID: sessionID,
		ttl:       12 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key() string {
	return "kazisync:session:" + s.sessionID
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.HGet(ctx, s.key(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session/redis: get %q: %w", key, err)
	}
	return v, nil
}

// Set stores a value under key and refreshes the session TTL.
func (s *Store) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session/redis: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.key(), key).Err(); err != nil {
		return fmt.Errorf("session/redis: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes the whole session hash.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("session/redis: clear: %w", err)
	}
	return nil
}
