package engine

import (
	"context"
	"errors"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
)

// fetchJobs is the negotiator's fetch callback: each settled filter or
// pagination change lands here as a ready-to-send query.
func (e *Engine) fetchJobs(q service.ListQuery) {
	// The negotiator fires from a timer goroutine; the runner's timeout
	// middleware bounds the request.
	_ = e.LoadJobs(context.Background(), store.JobsAll, q)
}

// LoadJobs fetches a page of jobs into the named projection. A fetch
// that is overtaken by a newer one for the same projection is discarded
// on arrival; the projection keeps whatever the newest fetch produced.
// On failure the projection's previous contents stay intact.
func (e *Engine) LoadJobs(ctx context.Context, projection string, q service.ListQuery) error {
	gen, err := e.store.BeginJobFetch(projection)
	if err != nil {
		return err
	}
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "jobs.load"}, e.jobsListState, func(ctx context.Context) error {
		res, err := e.services.Jobs.List(ctx, q)
		if err != nil {
			return err
		}
		if err := e.store.ReplaceJobs(projection, gen, res.Items, res.Page); err != nil {
			if errors.Is(err, kazisync.ErrStaleGeneration) {
				e.logger.Debug("discarding stale jobs fetch", "projection", projection)
				return nil
			}
			return err
		}
		return nil
	})
}

// LoadMyJobs fetches the employer's own jobs into jobs.mine.
func (e *Engine) LoadMyJobs(ctx context.Context, employerID id.EmployerID, q service.ListQuery) error {
	gen, err := e.store.BeginJobFetch(store.JobsMine)
	if err != nil {
		return err
	}
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "jobs.load_mine"}, e.jobsListState, func(ctx context.Context) error {
		res, err := e.services.Jobs.ListByEmployer(ctx, employerID, q)
		if err != nil {
			return err
		}
		err = e.store.ReplaceJobs(store.JobsMine, gen, res.Items, res.Page)
		if errors.Is(err, kazisync.ErrStaleGeneration) {
			return nil
		}
		return err
	})
}

// LoadJobsByCategory fetches a category's jobs into jobs.by_category.
func (e *Engine) LoadJobsByCategory(ctx context.Context, categoryID id.CategoryID, q service.ListQuery) error {
	gen, err := e.store.BeginJobFetch(store.JobsByCategory)
	if err != nil {
		return err
	}
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "jobs.load_by_category"}, e.jobsListState, func(ctx context.Context) error {
		res, err := e.services.Jobs.ListByCategory(ctx, categoryID, q)
		if err != nil {
			return err
		}
		err = e.store.ReplaceJobs(store.JobsByCategory, gen, res.Items, res.Page)
		if errors.Is(err, kazisync.ErrStaleGeneration) {
			return nil
		}
		return err
	})
}

// LoadJob fetches a single job and sets it as the current detail
// record.
func (e *Engine) LoadJob(ctx context.Context, jobID id.JobID) error {
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "jobs.get", EntityID: jobID.String()}, e.jobDetailState, func(ctx context.Context) error {
		j, err := e.services.Jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		e.store.SetCurrentJob(j)
		return nil
	})
}

// CreateJob submits a new job and prepends the created record to the
// all and mine projections without a refetch.
func (e *Engine) CreateJob(ctx context.Context, input service.JobInput) (*entity.Job, error) {
	var created *entity.Job
	op := &pipeline.Descriptor{Name: "jobs.create", SuccessMessage: "Job posted"}
	err := e.runner.Do(ctx, op, e.jobWriteState, func(ctx context.Context) error {
		j, err := e.services.Jobs.Create(ctx, input)
		if err != nil {
			return err
		}
		created = j
		e.store.PrependJob(j, store.JobsAll, store.JobsMine)
		return nil
	})
	return created, err
}

// UpdateJob submits a sparse job update and propagates the echoed
// record's top-level fields to every projection holding the job.
func (e *Engine) UpdateJob(ctx context.Context, jobID id.JobID, input service.JobInput) (*entity.Job, error) {
	var updated *entity.Job
	op := &pipeline.Descriptor{Name: "jobs.update", EntityID: jobID.String(), SuccessMessage: "Job updated"}
	err := e.runner.Do(ctx, op, e.jobWriteState, func(ctx context.Context) error {
		j, err := e.services.Jobs.Update(ctx, jobID, input)
		if err != nil {
			return err
		}
		updated = j
		e.store.PropagateJob(jobID, jobPatch(j))
		return nil
	})
	return updated, err
}

// UpdateJobStatus transitions a job's status and propagates the change.
func (e *Engine) UpdateJobStatus(ctx context.Context, jobID id.JobID, status entity.JobStatus) error {
	op := &pipeline.Descriptor{Name: "jobs.update_status", EntityID: jobID.String(), SuccessMessage: "Job status updated"}
	return e.runner.Do(ctx, op, e.jobWriteState, func(ctx context.Context) error {
		j, err := e.services.Jobs.UpdateStatus(ctx, jobID, status)
		if err != nil {
			return err
		}
		e.store.PropagateJob(jobID, entity.JobPatch{Status: &j.Status})
		return nil
	})
}

// DeleteJob deletes a job and removes it from every projection.
func (e *Engine) DeleteJob(ctx context.Context, jobID id.JobID) error {
	op := &pipeline.Descriptor{Name: "jobs.delete", EntityID: jobID.String(), SuccessMessage: "Job deleted"}
	return e.runner.Do(ctx, op, e.jobWriteState, func(ctx context.Context) error {
		if err := e.services.Jobs.Delete(ctx, jobID); err != nil {
			return err
		}
		e.store.RemoveJob(jobID)
		return nil
	})
}

// jobPatch lifts a freshly echoed job record into a propagation patch
// covering the top-level fields other projections display.
func jobPatch(j *entity.Job) entity.JobPatch {
	return entity.JobPatch{
		Status:     &j.Status,
		Visibility: &j.Visibility,
		Approved:   &j.Approved,
		Title:      &j.Title,
		BudgetMin:  &j.BudgetMin,
		BudgetMax:  &j.BudgetMax,
	}
}
