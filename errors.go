package kazisync

import "errors"

var (
	// Wiring errors.
	ErrNoSession  = errors.New("kazisync: no session store configured")
	ErrNoServices = errors.New("kazisync: backend services not configured")

	// Not found errors.
	ErrJobNotFound         = errors.New("kazisync: job not found")
	ErrApplicationNotFound = errors.New("kazisync: application not found")
	ErrProfileNotFound     = errors.New("kazisync: profile not found")
	ErrCategoryNotFound    = errors.New("kazisync: category not found")
	ErrPendingNotFound     = errors.New("kazisync: pending item not found")
	ErrProjectionNotFound  = errors.New("kazisync: projection not found")

	// State errors.
	ErrInvalidTransition = errors.New("kazisync: invalid status transition")
	ErrActionInFlight    = errors.New("kazisync: action already in flight for item")
	ErrStaleGeneration   = errors.New("kazisync: stale fetch generation")

	// Intent errors.
	ErrNoIntent       = errors.New("kazisync: no deferred intent captured")
	ErrIntentConsumed = errors.New("kazisync: deferred intent already consumed")

	// Auth errors.
	ErrNotAuthenticated = errors.New("kazisync: not authenticated")
)
