package kazisync

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Syncer.
type Option func(*Syncer) error

// SessionKV is the minimal session interface held by the Syncer.
// It covers the scoped key/value operations only. The full typed
// interface (session.Store) is used in subsystem layers that don't
// create import cycles.
type SessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Syncer is the central coordinator for the client sync engine. It holds
// configuration, the logger, and the session resource shared by every
// subsystem.
//
// Create one with New() and functional options, then wire the subsystems
// together with the engine package's Build() function.
type Syncer struct {
	config  Config
	logger  *slog.Logger
	session SessionKV
}

// New creates a new Syncer with the given options.
func New(opts ...Option) (*Syncer, error) {
	s := &Syncer{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Logger returns the syncer's logger.
func (s *Syncer) Logger() *slog.Logger { return s.logger }

// Session returns the syncer's session resource.
func (s *Syncer) Session() SessionKV { return s.session }

// Config returns a copy of the syncer's configuration.
func (s *Syncer) Config() Config { return s.config }

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(s *Syncer) error {
		s.config = c
		return nil
	}
}

// WithLogger sets the structured logger for the syncer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) error {
		s.logger = l
		return nil
	}
}

// WithSession sets the scoped session resource for the syncer.
// Typically a session.Memory for tests or a session/redis.Store in an
// embedded deployment.
func WithSession(kv SessionKV) Option {
	return func(s *Syncer) error {
		s.session = kv
		return nil
	}
}

// WithDebounceInterval sets the quiescence window for free-text filter
// changes.
func WithDebounceInterval(d time.Duration) Option {
	return func(s *Syncer) error {
		s.config.DebounceInterval = d
		return nil
	}
}

// WithBatchConcurrency sets the fan-out window for bulk mutations.
func WithBatchConcurrency(n int) Option {
	return func(s *Syncer) error {
		s.config.BatchConcurrency = n
		return nil
	}
}

// WithPageSize sets the default pagination limit for projections.
func WithPageSize(n int) Option {
	return func(s *Syncer) error {
		s.config.DefaultPageSize = n
		return nil
	}
}
