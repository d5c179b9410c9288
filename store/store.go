// Package store is the entity store: the single owner of the canonical
// client-side records and their named projections (lists, filters,
// pagination windows) over the same logical entities.
//
// Projections are mutated exclusively through the pipeline's settle
// handlers; UI code only reads. Every list fetch is tagged with a
// monotonic generation so a response that settles after a newer fetch
// was issued is discarded instead of overwriting fresher data.
//
// The propagator lives here too: when a mutation changes a shared field
// of an entity, the change is applied to every projection holding that
// entity id in one locked step, so no view is left showing a stale
// status.
package store

import (
	"sync"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
)

// Default job projections registered by New.
const (
	JobsAll        = "jobs.all"
	JobsMine       = "jobs.mine"
	JobsFeatured   = "jobs.featured"
	JobsByCategory = "jobs.by_category"
)

// Default application projections registered by New.
const (
	AppsMine   = "applications.mine"
	AppsForJob = "applications.for_job"
	AppsAll    = "applications.all"
)

// Pending queue projection names.
const (
	PendingUsersQueue        = "pending.users"
	PendingJobsQueue         = "pending.jobs"
	PendingApplicationsQueue = "pending.applications"
)

// ChangeKind classifies a store change event.
type ChangeKind string

const (
	ChangeReplaced   ChangeKind = "replaced"
	ChangePrepended  ChangeKind = "prepended"
	ChangeUpdated    ChangeKind = "updated"
	ChangeRemoved    ChangeKind = "removed"
	ChangePropagated ChangeKind = "propagated"
)

// Change describes one committed store mutation, published to the change
// broker so views holding the projection re-render.
type Change struct {
	Projection string     `json:"projection"`
	EntityID   string     `json:"entity_id,omitempty"`
	Kind       ChangeKind `json:"kind"`
}

// Notifier receives committed change events. The stream broker
// implements it; a nil notifier disables notification.
type Notifier interface {
	NotifyChange(c Change)
}

// Store holds the canonical client-side entities and their projections.
// A single lock guards all projections so propagation is atomic with
// respect to readers.
type Store struct {
	mu sync.RWMutex

	jobs    map[string]*projection[*entity.Job]
	apps    map[string]*projection[*entity.Application]
	pending map[string]*projection[*entity.PendingItem]

	categories []*entity.Category

	currentJob *entity.Job
	currentApp *entity.Application

	workerProfile   *entity.WorkerProfile
	employerProfile *entity.EmployerProfile

	notifier Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// New creates a Store with the default projections registered.
func New(opts ...Option) *Store {
	s := &Store{
		jobs:    make(map[string]*projection[*entity.Job]),
		apps:    make(map[string]*projection[*entity.Application]),
		pending: make(map[string]*projection[*entity.PendingItem]),
	}
	for _, name := range []string{JobsAll, JobsMine, JobsFeatured, JobsByCategory} {
		s.jobs[name] = newProjection[*entity.Job](name)
	}
	for _, name := range []string{AppsMine, AppsForJob, AppsAll} {
		s.apps[name] = newProjection[*entity.Application](name)
	}
	for _, name := range []string{PendingUsersQueue, PendingJobsQueue, PendingApplicationsQueue} {
		s.pending[name] = newProjection[*entity.PendingItem](name)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterJobProjection adds a named job projection. Registering an
// existing name is a no-op.
func (s *Store) RegisterJobProjection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		s.jobs[name] = newProjection[*entity.Job](name)
	}
}

// RegisterApplicationProjection adds a named application projection.
func (s *Store) RegisterApplicationProjection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[name]; !ok {
		s.apps[name] = newProjection[*entity.Application](name)
	}
}

// notify publishes a change event outside the store lock.
func (s *Store) notify(changes ...Change) {
	if s.notifier == nil {
		return
	}
	for _, c := range changes {
		s.notifier.NotifyChange(c)
	}
}
