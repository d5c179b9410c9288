package engine

import (
	"context"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// LoadWorkerProfile fetches a user's worker profile into the store.
// A missing profile surfaces as an error on the profile state; callers
// that treat absence as expected check service.IsNotFound.
func (e *Engine) LoadWorkerProfile(ctx context.Context, userID id.UserID) (*entity.WorkerProfile, error) {
	var p *entity.WorkerProfile
	err := e.runner.Do(ctx, &pipeline.Descriptor{Name: "profiles.load_worker", EntityID: userID.String()}, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.GetWorkerByUser(ctx, userID)
		if err != nil {
			return err
		}
		p = got
		e.store.SetWorkerProfile(got)
		return nil
	})
	return p, err
}

// LoadEmployerProfile fetches a user's employer profile into the store.
func (e *Engine) LoadEmployerProfile(ctx context.Context, userID id.UserID) (*entity.EmployerProfile, error) {
	var p *entity.EmployerProfile
	err := e.runner.Do(ctx, &pipeline.Descriptor{Name: "profiles.load_employer", EntityID: userID.String()}, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.GetEmployerByUser(ctx, userID)
		if err != nil {
			return err
		}
		p = got
		e.store.SetEmployerProfile(got)
		return nil
	})
	return p, err
}

// CreateWorkerProfile submits a new worker profile and caches the
// created record.
func (e *Engine) CreateWorkerProfile(ctx context.Context, input service.WorkerProfileInput) (*entity.WorkerProfile, error) {
	var p *entity.WorkerProfile
	op := &pipeline.Descriptor{Name: "profiles.create_worker", SuccessMessage: "Profile created"}
	err := e.runner.Do(ctx, op, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.CreateWorker(ctx, input)
		if err != nil {
			return err
		}
		p = got
		e.store.SetWorkerProfile(got)
		return nil
	})
	return p, err
}

// UpdateWorkerProfile submits a worker profile change and caches the
// echoed record.
func (e *Engine) UpdateWorkerProfile(ctx context.Context, profileID id.WorkerID, input service.WorkerProfileInput) (*entity.WorkerProfile, error) {
	var p *entity.WorkerProfile
	op := &pipeline.Descriptor{Name: "profiles.update_worker", EntityID: profileID.String(), SuccessMessage: "Profile updated"}
	err := e.runner.Do(ctx, op, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.UpdateWorker(ctx, profileID, input)
		if err != nil {
			return err
		}
		p = got
		e.store.SetWorkerProfile(got)
		return nil
	})
	return p, err
}

// CreateEmployerProfile submits a new employer profile and caches the
// created record.
func (e *Engine) CreateEmployerProfile(ctx context.Context, input service.EmployerProfileInput) (*entity.EmployerProfile, error) {
	var p *entity.EmployerProfile
	op := &pipeline.Descriptor{Name: "profiles.create_employer", SuccessMessage: "Profile created"}
	err := e.runner.Do(ctx, op, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.CreateEmployer(ctx, input)
		if err != nil {
			return err
		}
		p = got
		e.store.SetEmployerProfile(got)
		return nil
	})
	return p, err
}

// UpdateEmployerProfile submits an employer profile change and caches
// the echoed record.
func (e *Engine) UpdateEmployerProfile(ctx context.Context, profileID id.EmployerID, input service.EmployerProfileInput) (*entity.EmployerProfile, error) {
	var p *entity.EmployerProfile
	op := &pipeline.Descriptor{Name: "profiles.update_employer", EntityID: profileID.String(), SuccessMessage: "Profile updated"}
	err := e.runner.Do(ctx, op, e.profileState, func(ctx context.Context) error {
		got, err := e.services.Profiles.UpdateEmployer(ctx, profileID, input)
		if err != nil {
			return err
		}
		p = got
		e.store.SetEmployerProfile(got)
		return nil
	})
	return p, err
}

// LoadCategories fetches the category list into the store.
func (e *Engine) LoadCategories(ctx context.Context) error {
	return e.runner.Do(ctx, &pipeline.Descriptor{Name: "categories.load"}, e.profileState, func(ctx context.Context) error {
		cats, err := e.services.Profiles.ListCategories(ctx)
		if err != nil {
			return err
		}
		e.store.SetCategories(cats)
		return nil
	})
}
