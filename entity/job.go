package entity

import (
	"time"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// JobStatus represents the lifecycle state of a job posting.
type JobStatus string

const (
	// JobDraft means the job has been created but not yet published.
	JobDraft JobStatus = "draft"
	// JobActive means the job is published and accepting applications.
	JobActive JobStatus = "active"
	// JobPaused means the employer has temporarily stopped applications.
	JobPaused JobStatus = "paused"
	// JobClosed means the job is no longer accepting applications.
	JobClosed JobStatus = "closed"
	// JobCancelled means the job was withdrawn before being filled.
	// Admin rejection of a pending job is modelled as this transition;
	// the server status enum owns the vocabulary and has no distinct
	// rejected state.
	JobCancelled JobStatus = "cancelled"
	// JobFilled means a worker was hired and the job is complete.
	JobFilled JobStatus = "filled"
)

// jobTransitions is the allowed transition table for job statuses.
var jobTransitions = map[JobStatus][]JobStatus{
	JobDraft:  {JobActive, JobCancelled},
	JobActive: {JobPaused, JobClosed, JobCancelled, JobFilled},
	JobPaused: {JobActive, JobClosed, JobCancelled},
	JobClosed: {JobCancelled, JobFilled},
}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobActive, JobPaused, JobClosed, JobCancelled, JobFilled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s JobStatus) Terminal() bool {
	return len(jobTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether a transition from s to the given status
// is allowed.
func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Visibility controls who can see a job listing.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityFeatured Visibility = "featured"
)

// JobType classifies the engagement model of a job.
type JobType string

const (
	JobTypeFullTime JobType = "full_time"
	JobTypePartTime JobType = "part_time"
	JobTypeContract JobType = "contract"
	JobTypeOneOff   JobType = "one_off"
)

// PaymentType classifies how a job pays.
type PaymentType string

const (
	PaymentHourly PaymentType = "hourly"
	PaymentDaily  PaymentType = "daily"
	PaymentFixed  PaymentType = "fixed"
)

// UrgencyLevel classifies how soon the employer needs the job done.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// Job represents a job posting. The Employer and Category sub-objects are
// denormalized joins filled by list endpoints; their fields are refreshed
// only when their owning entity is fetched or updated, and may lag the
// top-level record in between.
type Job struct {
	kazisync.Entity

	ID            id.JobID       `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CategoryID    id.CategoryID  `json:"category_id"`
	Location      string         `json:"location"`
	BudgetMin     float64        `json:"budget_min"`
	BudgetMax     float64        `json:"budget_max"`
	JobType       JobType        `json:"job_type"`
	UrgencyLevel  UrgencyLevel   `json:"urgency_level"`
	PaymentType   PaymentType    `json:"payment_type"`
	ScheduleStart *time.Time     `json:"schedule_start,omitempty"`
	ScheduleEnd   *time.Time     `json:"schedule_end,omitempty"`
	MaxApplicants int            `json:"max_applicants"`
	Status        JobStatus      `json:"status"`
	Visibility    Visibility     `json:"visibility"`
	EmployerID    id.EmployerID  `json:"employer_id"`
	Approved      bool           `json:"approved"`
	ApplicantsNow int            `json:"applicants_now,omitempty"`

	Employer *EmployerProfile `json:"employer,omitempty"`
	Category *Category        `json:"category,omitempty"`
}

// SetStatus applies a status transition, rejecting moves the transition
// table does not allow.
func (j *Job) SetStatus(to JobStatus) error {
	if !to.Valid() || !j.Status.CanTransition(to) {
		return kazisync.ErrInvalidTransition
	}
	j.Status = to
	j.Touch()
	return nil
}

// JobPatch is a set of shared mutable job fields to be propagated to
// every projection holding the job. Nil fields are left untouched.
type JobPatch struct {
	Status     *JobStatus
	Visibility *Visibility
	Approved   *bool
	Title      *string
	BudgetMin  *float64
	BudgetMax  *float64
}

// Apply writes the patch's non-nil fields onto the job. Only top-level
// fields are patched; denormalized sub-objects keep their last-fetched
// values.
func (p JobPatch) Apply(j *Job) {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Visibility != nil {
		j.Visibility = *p.Visibility
	}
	if p.Approved != nil {
		j.Approved = *p.Approved
	}
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.BudgetMin != nil {
		j.BudgetMin = *p.BudgetMin
	}
	if p.BudgetMax != nil {
		j.BudgetMax = *p.BudgetMax
	}
	j.Touch()
}
