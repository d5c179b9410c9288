package kazisync

import "time"

// Config holds configuration for the sync engine.
type Config struct {
	// DebounceInterval is the quiescence window applied to free-text
	// filter changes before a fetch fires.
	DebounceInterval time.Duration

	// BatchConcurrency is the fan-out window for bulk mutations
	// (e.g. bulk application status updates).
	BatchConcurrency int

	// DefaultPageSize is the pagination limit used when a projection
	// has no explicit limit.
	DefaultPageSize int

	// SessionTTL bounds the lifetime of session-scoped state in
	// backends that support expiry (the redis session store).
	SessionTTL time.Duration

	// RequestTimeout is the per-operation deadline applied by the
	// timeout middleware. Zero disables it.
	RequestTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceInterval: 500 * time.Millisecond,
		BatchConcurrency: 5,
		DefaultPageSize:  10,
		SessionTTL:       12 * time.Hour,
		RequestTimeout:   30 * time.Second,
	}
}
