package engine

import (
	"context"
	"errors"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/intent"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
)

// ApplyOutcome is the result of the gated apply flow. Exactly one of
// the two shapes occurs: the submission went through and Application is
// set, or the caller must navigate to Route (login) and the submission
// is deferred.
type ApplyOutcome struct {
	Application *entity.Application
	Route       string
}

// Apply submits an application to a job, or defers it. An
// unauthenticated caller gets back the login route with the intent
// captured for resumption after login; an authenticated caller submits
// immediately and the created application is prepended to the worker's
// own projection.
func (e *Engine) Apply(ctx context.Context, jobID id.JobID, input service.ApplyInput, returnRoute string) (ApplyOutcome, error) {
	if !e.session.Authenticated(ctx) {
		route, err := e.resolver.Capture(ctx, intent.KindApplyToJob, jobID, returnRoute)
		if err != nil {
			return ApplyOutcome{}, err
		}
		return ApplyOutcome{Route: route}, nil
	}

	var created *entity.Application
	op := &pipeline.Descriptor{Name: "applications.apply", EntityID: jobID.String(), SuccessMessage: "Application submitted"}
	err := e.runner.Do(ctx, op, e.applyState, func(ctx context.Context) error {
		a, err := e.services.Applications.Apply(ctx, jobID, input)
		if err != nil {
			return err
		}
		created = a
		e.store.PrependApplication(a, store.AppsMine)
		return nil
	})
	if err != nil {
		return ApplyOutcome{}, err
	}
	return ApplyOutcome{Application: created}, nil
}

// LoadMyApplications fetches the worker's applications into
// applications.mine with the stale-fetch guard.
func (e *Engine) LoadMyApplications(ctx context.Context, q service.ListQuery) error {
	return e.loadApplications(ctx, store.AppsMine, "applications.load_mine", func(ctx context.Context) (service.ListResult[*entity.Application], error) {
		return e.services.Applications.ListMine(ctx, q)
	})
}

// LoadApplicationsForJob fetches a job's applications into
// applications.for_job.
func (e *Engine) LoadApplicationsForJob(ctx context.Context, jobID id.JobID, q service.ListQuery) error {
	return e.loadApplications(ctx, store.AppsForJob, "applications.load_for_job", func(ctx context.Context) (service.ListResult[*entity.Application], error) {
		return e.services.Applications.ListForJob(ctx, jobID, q)
	})
}

// LoadAllApplications fetches the admin-wide application list into
// applications.all.
func (e *Engine) LoadAllApplications(ctx context.Context, q service.ListQuery) error {
	return e.loadApplications(ctx, store.AppsAll, "applications.load_all", func(ctx context.Context) (service.ListResult[*entity.Application], error) {
		return e.services.Applications.ListAll(ctx, q)
	})
}

func (e *Engine) loadApplications(ctx context.Context, projection, opName string, fetch func(ctx context.Context) (service.ListResult[*entity.Application], error)) error {
	gen, err := e.store.BeginApplicationFetch(projection)
	if err != nil {
		return err
	}
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: opName}, e.appsListState, func(ctx context.Context) error {
		res, err := fetch(ctx)
		if err != nil {
			return err
		}
		err = e.store.ReplaceApplications(projection, gen, res.Items, res.Page)
		if errors.Is(err, kazisync.ErrStaleGeneration) {
			e.logger.Debug("discarding stale applications fetch", "projection", projection)
			return nil
		}
		return err
	})
}

// LoadApplication fetches a single application as the current detail
// record.
func (e *Engine) LoadApplication(ctx context.Context, appID id.ApplicationID) error {
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "applications.get", EntityID: appID.String()}, e.appsListState, func(ctx context.Context) error {
		a, err := e.services.Applications.Get(ctx, appID)
		if err != nil {
			return err
		}
		e.store.SetCurrentApplication(a)
		return nil
	})
}

// UpdateApplicationStatus transitions one application's status and
// propagates the echoed record, including any server-stamped review
// timestamps, to every projection holding it.
func (e *Engine) UpdateApplicationStatus(ctx context.Context, appID id.ApplicationID, to entity.AppStatus) error {
	if !e.appsBusy.Begin(appID.String()) {
		return kazisync.ErrActionInFlight
	}
	defer e.appsBusy.End(appID.String())

	op := &pipeline.Descriptor{Name: "applications.update_status", EntityID: appID.String(), SuccessMessage: "Application updated"}
	return e.runner.Do(ctx, op, e.appWriteState, func(ctx context.Context) error {
		return e.applyStatus(ctx, appID, to)
	})
}

// applyStatus is the shared single-item mutation used by both the
// direct path and the bulk path.
func (e *Engine) applyStatus(ctx context.Context, appID id.ApplicationID, to entity.AppStatus) error {
	updated, err := e.services.Applications.Update(ctx, appID, service.ApplicationUpdate{Status: &to})
	if err != nil {
		return err
	}
	e.store.PropagateApplication(appID, updated.StatusPatch())
	return nil
}

// UpdateApplicationNotes submits an employer or worker notes change.
func (e *Engine) UpdateApplicationNotes(ctx context.Context, appID id.ApplicationID, patch service.ApplicationUpdate) error {
	op := &pipeline.Descriptor{Name: "applications.update_notes", EntityID: appID.String(), SuccessMessage: "Notes saved"}
	return e.runner.Do(ctx, op, e.appWriteState, func(ctx context.Context) error {
		updated, err := e.services.Applications.Update(ctx, appID, patch)
		if err != nil {
			return err
		}
		e.store.PropagateApplication(appID, entity.ApplicationPatch{
			EmployerNotes: patch.EmployerNotes,
			WorkerNotes:   patch.WorkerNotes,
			Status:        &updated.Status,
		})
		return nil
	})
}

// WithdrawApplication deletes the worker's application and removes it
// from every projection.
func (e *Engine) WithdrawApplication(ctx context.Context, appID id.ApplicationID) error {
	op := &pipeline.Descriptor{Name: "applications.withdraw", EntityID: appID.String(), SuccessMessage: "Application withdrawn"}
	return e.runner.Do(ctx, op, e.appWriteState, func(ctx context.Context) error {
		if err := e.services.Applications.Delete(ctx, appID); err != nil {
			return err
		}
		e.store.RemoveApplication(appID)
		return nil
	})
}

// BulkUpdateStatus transitions many applications to the same status in
// one fan-out. Per-item failures are isolated: successful items take
// effect and propagate, failed ones keep their previous status and are
// reported in the result.
func (e *Engine) BulkUpdateStatus(ctx context.Context, appIDs []id.ApplicationID, to entity.AppStatus) pipeline.BatchResult {
	ids := make([]string, len(appIDs))
	for i, appID := range appIDs {
		ids[i] = appID.String()
	}
	return e.runner.Batch(ctx, ids, e.syncer.Config().BatchConcurrency, e.appsBusy, func(ctx context.Context, itemID string) error {
		appID, err := id.ParseApplicationID(itemID)
		if err != nil {
			return err
		}
		return e.applyStatus(ctx, appID, to)
	})
}

// LoadApplicationStats fetches a job's per-status application counts.
func (e *Engine) LoadApplicationStats(ctx context.Context, jobID id.JobID) (*entity.StatsByStatus, error) {
	var stats *entity.StatsByStatus
	err := e.runner.Do(ctx, &pipeline.Descriptor{Name: "applications.stats", EntityID: jobID.String()}, e.appsListState, func(ctx context.Context) error {
		s, err := e.services.Applications.Stats(ctx, jobID)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})
	return stats, err
}
