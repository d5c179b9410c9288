package approval

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
)

// Controller drives the three admin approval queues.
type Controller struct {
	store  *store.Store
	admin  service.AdminService
	jobs   service.JobService
	apps   service.ApplicationService
	runner *pipeline.Runner
	busy   *pipeline.BusyTracker
	logger *slog.Logger

	usersState *pipeline.OpState
	jobsState  *pipeline.OpState
	appsState  *pipeline.OpState

	mu         sync.Mutex
	itemStates map[string]*pipeline.OpState
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a Controller over the given store and backend services.
func New(st *store.Store, svcs service.Bundle, runner *pipeline.Runner, opts ...Option) *Controller {
	c := &Controller{
		store:      st,
		admin:      svcs.Admin,
		jobs:       svcs.Jobs,
		apps:       svcs.Applications,
		runner:     runner,
		busy:       pipeline.NewBusyTracker(),
		logger:     slog.Default(),
		usersState: &pipeline.OpState{},
		jobsState:  &pipeline.OpState{},
		appsState:  &pipeline.OpState{},
		itemStates: make(map[string]*pipeline.OpState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UsersState exposes the pending-users queue's fetch flags.
func (c *Controller) UsersState() *pipeline.OpState { return c.usersState }

// JobsState exposes the pending-jobs queue's fetch flags.
func (c *Controller) JobsState() *pipeline.OpState { return c.jobsState }

// ApplicationsState exposes the pending-applications queue's fetch flags.
func (c *Controller) ApplicationsState() *pipeline.OpState { return c.appsState }

// Busy reports whether an approve or reject action is in flight for the
// given item.
func (c *Controller) Busy(itemID id.AnyID) bool { return c.busy.Busy(itemID.String()) }

// ActionState returns the per-item flags for the item's most recent
// approve or reject action, allocating on first use.
func (c *Controller) ActionState(itemID id.AnyID) *pipeline.OpState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.itemStates[itemID.String()]
	if !ok {
		st = &pipeline.OpState{}
		c.itemStates[itemID.String()] = st
	}
	return st
}

// ──────────────────────────────────────────────────
// Queue loading
// ──────────────────────────────────────────────────

// LoadPendingUsers refetches the pending-users queue. A response that
// lost the race to a newer fetch of the same queue is discarded.
func (c *Controller) LoadPendingUsers(ctx context.Context) error {
	return c.loadQueue(ctx, store.PendingUsersQueue, "approval.users.load", c.usersState, c.admin.ListPendingUsers)
}

// LoadPendingJobs refetches the pending-jobs queue.
func (c *Controller) LoadPendingJobs(ctx context.Context) error {
	return c.loadQueue(ctx, store.PendingJobsQueue, "approval.jobs.load", c.jobsState, c.admin.ListPendingJobs)
}

// LoadPendingApplications refetches the pending-applications queue.
// There is no dedicated admin endpoint; the queue is the application
// service's full listing filtered to status=pending.
func (c *Controller) LoadPendingApplications(ctx context.Context) error {
	fetch := func(ctx context.Context) ([]*entity.PendingItem, error) {
		q := service.ListQuery{Filters: url.Values{"status": []string{string(entity.AppPending)}}}
		res, err := c.apps.ListAll(ctx, q)
		if err != nil {
			return nil, err
		}
		items := make([]*entity.PendingItem, 0, len(res.Items))
		for _, a := range res.Items {
			items = append(items, &entity.PendingItem{
				ID:          a.ID,
				Kind:        entity.PendingApplication,
				Label:       a.CoverLetter,
				SubmittedBy: a.WorkerID.String(),
				SubmittedAt: a.AppliedAt,
			})
		}
		return items, nil
	}
	return c.loadQueue(ctx, store.PendingApplicationsQueue, "approval.applications.load", c.appsState, fetch)
}

func (c *Controller) loadQueue(ctx context.Context, queue, opName string, st *pipeline.OpState, fetch func(context.Context) ([]*entity.PendingItem, error)) error {
	gen, err := c.store.BeginPendingFetch(queue)
	if err != nil {
		return err
	}
	return c.runner.Do(ctx, &pipeline.Descriptor{Name: opName}, st, func(ctx context.Context) error {
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		if err := c.store.ReplacePending(queue, gen, items); err != nil {
			if errors.Is(err, kazisync.ErrStaleGeneration) {
				// A newer fetch already settled; this response is dead.
				c.logger.Debug("stale approval queue response discarded", slog.String("queue", queue))
				return nil
			}
			return err
		}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Terminal actions
// ──────────────────────────────────────────────────

// ApproveUser submits the credential payload for a pending user and, on
// success, removes the item from the pending-users queue. Credential
// creation on the server is an opaque effect; the client only tracks
// success or failure.
func (c *Controller) ApproveUser(ctx context.Context, userID id.UserID, creds service.CredentialData) error {
	return c.act(ctx, store.PendingUsersQueue, userID, "approval.user.approve", "user approved", func(ctx context.Context) error {
		return c.admin.ApproveUser(ctx, userID, creds)
	})
}

// ApproveJob marks a pending job eligible for public listing and removes
// it from the pending-jobs queue. The approval flag is propagated to
// every job projection holding the job.
func (c *Controller) ApproveJob(ctx context.Context, jobID id.JobID) error {
	return c.act(ctx, store.PendingJobsQueue, jobID, "approval.job.approve", "job approved", func(ctx context.Context) error {
		if err := c.admin.ApproveJob(ctx, jobID); err != nil {
			return err
		}
		approved := true
		c.store.PropagateJob(jobID, entity.JobPatch{Approved: &approved})
		return nil
	})
}

// RejectJob rejects a pending job. No dedicated reject endpoint exists,
// so rejection is a status transition to cancelled through the generic
// job update; the new status propagates to every projection holding the
// job.
func (c *Controller) RejectJob(ctx context.Context, jobID id.JobID) error {
	return c.act(ctx, store.PendingJobsQueue, jobID, "approval.job.reject", "job rejected", func(ctx context.Context) error {
		updated, err := c.jobs.UpdateStatus(ctx, jobID, entity.JobCancelled)
		if err != nil {
			return err
		}
		c.store.PropagateJob(jobID, entity.JobPatch{Status: &updated.Status})
		return nil
	})
}

// ApproveApplication accepts a pending application. The transition is an
// ordinary application update, propagated so every projection holding
// the application reflects the accepted status.
func (c *Controller) ApproveApplication(ctx context.Context, appID id.ApplicationID) error {
	return c.decideApplication(ctx, appID, entity.AppAccepted, "approval.application.approve", "application accepted")
}

// RejectApplication rejects a pending application, propagated the same
// way as an approval.
func (c *Controller) RejectApplication(ctx context.Context, appID id.ApplicationID) error {
	return c.decideApplication(ctx, appID, entity.AppRejected, "approval.application.reject", "application rejected")
}

func (c *Controller) decideApplication(ctx context.Context, appID id.ApplicationID, to entity.AppStatus, opName, successMsg string) error {
	return c.act(ctx, store.PendingApplicationsQueue, appID, opName, successMsg, func(ctx context.Context) error {
		updated, err := c.apps.Update(ctx, appID, service.ApplicationUpdate{Status: &to})
		if err != nil {
			return err
		}
		c.store.PropagateApplication(appID, updated.StatusPatch())
		return nil
	})
}

// act wraps one terminal action: per-item duplicate-submission guard,
// pipeline lifecycle, and queue removal on success. A missing queue
// entry after success is tolerated — the item may already have been
// evicted by a refetch.
func (c *Controller) act(ctx context.Context, queue string, itemID id.AnyID, opName, successMsg string, call pipeline.Handler) error {
	key := itemID.String()
	if !c.busy.Begin(key) {
		return kazisync.ErrActionInFlight
	}
	defer c.busy.End(key)

	op := &pipeline.Descriptor{Name: opName, EntityID: key, SuccessMessage: successMsg}
	if err := c.runner.Do(ctx, op, c.ActionState(itemID), call); err != nil {
		return err
	}

	if err := c.store.RemovePending(queue, itemID); err != nil && !errors.Is(err, kazisync.ErrPendingNotFound) {
		return err
	}
	c.logger.Info("approval action settled",
		slog.String("operation", opName),
		slog.String("item_id", key),
		slog.String("queue", queue),
	)
	return nil
}
