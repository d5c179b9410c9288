package entity

import (
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// PendingKind identifies which approval queue a pending item belongs to.
type PendingKind string

const (
	PendingUser        PendingKind = "user"
	PendingJob         PendingKind = "job"
	PendingApplication PendingKind = "application"
)

// PendingItem is a read-only view over a not-yet-approved user, job, or
// application. It disappears from its queue once approve or reject
// settles, independent of whether the underlying entity's full record is
// cached elsewhere.
type PendingItem struct {
	ID          id.AnyID    `json:"id"`
	Kind        PendingKind `json:"kind"`
	Label       string      `json:"label"`
	SubmittedBy string      `json:"submitted_by,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
