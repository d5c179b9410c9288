package entity

import (
	"time"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// AppStatus represents the lifecycle state of a job application.
type AppStatus string

const (
	// AppPending means the application has been submitted and not yet
	// looked at by the employer.
	AppPending AppStatus = "pending"
	// AppReviewed means the employer has opened the application but
	// not yet responded.
	AppReviewed AppStatus = "reviewed"
	// AppAccepted means the employer accepted the application.
	AppAccepted AppStatus = "accepted"
	// AppRejected means the employer rejected the application.
	AppRejected AppStatus = "rejected"
	// AppWithdrawn means the worker withdrew the application.
	AppWithdrawn AppStatus = "withdrawn"
)

// appTransitions is the allowed transition table for application statuses.
var appTransitions = map[AppStatus][]AppStatus{
	AppPending:  {AppReviewed, AppAccepted, AppRejected, AppWithdrawn},
	AppReviewed: {AppAccepted, AppRejected, AppWithdrawn},
}

// Valid reports whether s is a known application status.
func (s AppStatus) Valid() bool {
	switch s {
	case AppPending, AppReviewed, AppAccepted, AppRejected, AppWithdrawn:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s AppStatus) Terminal() bool {
	return len(appTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether a transition from s to the given status
// is allowed.
func (s AppStatus) CanTransition(to AppStatus) bool {
	for _, allowed := range appTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Application represents a worker's application to a job. The Job and
// Worker sub-objects are denormalized joins filled by list endpoints.
type Application struct {
	kazisync.Entity

	ID                id.ApplicationID `json:"id"`
	JobID             id.JobID         `json:"job_id"`
	WorkerID          id.WorkerID      `json:"worker_id"`
	CoverLetter       string           `json:"cover_letter"`
	ProposedRate      float64          `json:"proposed_rate"`
	AvailabilityStart *time.Time       `json:"availability_start,omitempty"`
	WorkerNotes       string           `json:"worker_notes,omitempty"`
	EmployerNotes     string           `json:"employer_notes,omitempty"`
	Status            AppStatus        `json:"status"`
	AppliedAt         time.Time        `json:"applied_at"`
	ReviewedAt        *time.Time       `json:"reviewed_at,omitempty"`
	RespondedAt       *time.Time       `json:"responded_at,omitempty"`

	Job    *Job           `json:"job,omitempty"`
	Worker *WorkerProfile `json:"worker,omitempty"`
}

// SetStatus applies a status transition and maintains the review
// timestamps: ReviewedAt is stamped the first time the application
// leaves pending, RespondedAt the first time the employer gives a
// terminal answer. Once set the timestamps are never moved.
func (a *Application) SetStatus(to AppStatus, at time.Time) error {
	if !to.Valid() || !a.Status.CanTransition(to) {
		return kazisync.ErrInvalidTransition
	}

	at = at.UTC()
	if a.Status == AppPending && a.ReviewedAt == nil {
		reviewed := at
		a.ReviewedAt = &reviewed
	}
	if (to == AppAccepted || to == AppRejected) && a.RespondedAt == nil {
		responded := at
		a.RespondedAt = &responded
	}

	a.Status = to
	a.Touch()
	return nil
}

// ApplicationPatch is a set of shared mutable application fields to be
// propagated to every projection holding the application. Nil fields are
// left untouched.
type ApplicationPatch struct {
	Status        *AppStatus
	ReviewedAt    *time.Time
	RespondedAt   *time.Time
	EmployerNotes *string
	WorkerNotes   *string
}

// Apply writes the patch's non-nil fields onto the application. The
// timestamps only ever move forward: a patch cannot clear or rewind a
// timestamp that is already set.
func (p ApplicationPatch) Apply(a *Application) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.ReviewedAt != nil && (a.ReviewedAt == nil || p.ReviewedAt.After(*a.ReviewedAt)) {
		reviewed := p.ReviewedAt.UTC()
		a.ReviewedAt = &reviewed
	}
	if p.RespondedAt != nil && (a.RespondedAt == nil || p.RespondedAt.After(*a.RespondedAt)) {
		responded := p.RespondedAt.UTC()
		a.RespondedAt = &responded
	}
	if p.EmployerNotes != nil {
		a.EmployerNotes = *p.EmployerNotes
	}
	if p.WorkerNotes != nil {
		a.WorkerNotes = *p.WorkerNotes
	}
	a.Touch()
}

// StatusPatch builds the propagation patch produced by a successful
// status mutation on the application.
func (a *Application) StatusPatch() ApplicationPatch {
	p := ApplicationPatch{Status: &a.Status}
	if a.ReviewedAt != nil {
		p.ReviewedAt = a.ReviewedAt
	}
	if a.RespondedAt != nil {
		p.RespondedAt = a.RespondedAt
	}
	return p
}

// StatsByStatus is the per-status application count envelope returned by
// the application service's stats endpoint.
type StatsByStatus struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewed  int `json:"reviewed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
}
