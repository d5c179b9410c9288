package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// ListQuery is the canonical outgoing query for a list endpoint: only
// meaningfully-set filters plus the pagination window.
type ListQuery struct {
	Filters url.Values
	Page    int
	Limit   int
}

// Values flattens the query into url.Values, including pagination.
func (q ListQuery) Values() url.Values {
	out := url.Values{}
	for key, vals := range q.Filters {
		for _, v := range vals {
			out.Add(key, v)
		}
	}
	if q.Page > 0 {
		out.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		out.Set("limit", strconv.Itoa(q.Limit))
	}
	return out
}

// ListResult is the envelope returned by list endpoints.
type ListResult[T any] struct {
	Items []T
	Page  entity.Page
}

// ──────────────────────────────────────────────────
// Job service
// ──────────────────────────────────────────────────

// JobInput carries the writable fields for job creation and update.
// On update, zero-valued fields are omitted from the outgoing payload.
type JobInput struct {
	Title         string              `json:"title,omitempty"`
	Description   string              `json:"description,omitempty"`
	CategoryID    id.CategoryID       `json:"category_id,omitempty"`
	Location      string              `json:"location,omitempty"`
	BudgetMin     float64             `json:"budget_min,omitempty"`
	BudgetMax     float64             `json:"budget_max,omitempty"`
	JobType       entity.JobType      `json:"job_type,omitempty"`
	UrgencyLevel  entity.UrgencyLevel `json:"urgency_level,omitempty"`
	PaymentType   entity.PaymentType  `json:"payment_type,omitempty"`
	ScheduleStart *time.Time          `json:"schedule_start,omitempty"`
	ScheduleEnd   *time.Time          `json:"schedule_end,omitempty"`
	MaxApplicants int                 `json:"max_applicants,omitempty"`
	Visibility    entity.Visibility   `json:"visibility,omitempty"`
}

// JobService is the jobs endpoint contract.
type JobService interface {
	List(ctx context.Context, q ListQuery) (ListResult[*entity.Job], error)
	Get(ctx context.Context, jobID id.JobID) (*entity.Job, error)
	Create(ctx context.Context, input JobInput) (*entity.Job, error)
	Update(ctx context.Context, jobID id.JobID, input JobInput) (*entity.Job, error)
	UpdateStatus(ctx context.Context, jobID id.JobID, status entity.JobStatus) (*entity.Job, error)
	Delete(ctx context.Context, jobID id.JobID) error
	ListByEmployer(ctx context.Context, employerID id.EmployerID, q ListQuery) (ListResult[*entity.Job], error)
	ListByCategory(ctx context.Context, categoryID id.CategoryID, q ListQuery) (ListResult[*entity.Job], error)
}

// ──────────────────────────────────────────────────
// Application service
// ──────────────────────────────────────────────────

// ApplyInput carries the fields a worker submits when applying to a job.
type ApplyInput struct {
	CoverLetter       string     `json:"cover_letter"`
	ProposedRate      float64    `json:"proposed_rate,omitempty"`
	AvailabilityStart *time.Time `json:"availability_start,omitempty"`
	WorkerNotes       string     `json:"worker_notes,omitempty"`
}

// ApplicationUpdate is a sparse patch for an application. Status changes
// travel through here; the server stamps reviewed_at/responded_at and
// echoes the full record back.
type ApplicationUpdate struct {
	Status        *entity.AppStatus `json:"status,omitempty"`
	EmployerNotes *string           `json:"employer_notes,omitempty"`
	WorkerNotes   *string           `json:"worker_notes,omitempty"`
}

// ApplicationService is the applications endpoint contract.
type ApplicationService interface {
	Apply(ctx context.Context, jobID id.JobID, input ApplyInput) (*entity.Application, error)
	ListMine(ctx context.Context, q ListQuery) (ListResult[*entity.Application], error)
	Get(ctx context.Context, appID id.ApplicationID) (*entity.Application, error)
	ListForJob(ctx context.Context, jobID id.JobID, q ListQuery) (ListResult[*entity.Application], error)
	ListAll(ctx context.Context, q ListQuery) (ListResult[*entity.Application], error)
	Update(ctx context.Context, appID id.ApplicationID, patch ApplicationUpdate) (*entity.Application, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
	Stats(ctx context.Context, jobID id.JobID) (*entity.StatsByStatus, error)
}

// ──────────────────────────────────────────────────
// Profile service
// ──────────────────────────────────────────────────

// WorkerProfileInput carries the writable worker profile fields.
type WorkerProfileInput struct {
	FullName   string   `json:"full_name,omitempty"`
	Bio        string   `json:"bio,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Location   string   `json:"location,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	HourlyRate float64  `json:"hourly_rate,omitempty"`
}

// EmployerProfileInput carries the writable employer profile fields.
type EmployerProfileInput struct {
	CompanyName string `json:"company_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Location    string `json:"location,omitempty"`
	Website     string `json:"website,omitempty"`
}

// ProfileService is the profiles endpoint contract. The GetByUser lookups
// return kazisync.ErrProfileNotFound (wrapped) when the user has no
// profile of that kind; callers treat that as an expected outcome, not a
// failure.
type ProfileService interface {
	GetWorkerByUser(ctx context.Context, userID id.UserID) (*entity.WorkerProfile, error)
	GetEmployerByUser(ctx context.Context, userID id.UserID) (*entity.EmployerProfile, error)
	CreateWorker(ctx context.Context, input WorkerProfileInput) (*entity.WorkerProfile, error)
	UpdateWorker(ctx context.Context, profileID id.WorkerID, input WorkerProfileInput) (*entity.WorkerProfile, error)
	CreateEmployer(ctx context.Context, input EmployerProfileInput) (*entity.EmployerProfile, error)
	UpdateEmployer(ctx context.Context, profileID id.EmployerID, input EmployerProfileInput) (*entity.EmployerProfile, error)
	ListCategories(ctx context.Context) ([]*entity.Category, error)
}

// ──────────────────────────────────────────────────
// Admin service
// ──────────────────────────────────────────────────

// CredentialData is the credential payload submitted when approving a
// user. It is sent as a multipart form; the server creates the login
// credentials as an opaque side effect.
type CredentialData struct {
	Username string
	Password string
	Role     string
}

// AdminService is the admin approvals endpoint contract. Pending
// applications are listed through ApplicationService.ListAll with a
// status filter; there is no dedicated endpoint. Job rejection has no
// endpoint either and is modelled as a status transition to cancelled via
// JobService.UpdateStatus.
type AdminService interface {
	ListPendingUsers(ctx context.Context) ([]*entity.PendingItem, error)
	ApproveUser(ctx context.Context, userID id.UserID, creds CredentialData) error
	ListPendingJobs(ctx context.Context) ([]*entity.PendingItem, error)
	ApproveJob(ctx context.Context, jobID id.JobID) error
}

// Bundle groups the four backend contracts the engine consumes.
type Bundle struct {
	Jobs         JobService
	Applications ApplicationService
	Profiles     ProfileService
	Admin        AdminService
}

// Complete reports whether every contract is wired.
func (b Bundle) Complete() bool {
	return b.Jobs != nil && b.Applications != nil && b.Profiles != nil && b.Admin != nil
}
