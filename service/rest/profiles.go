package rest

import (
	"context"
	"net/http"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// Profiles implements service.ProfileService over HTTP.
type Profiles struct {
	c *Client
}

var _ service.ProfileService = (*Profiles)(nil)

func (p *Profiles) GetWorkerByUser(ctx context.Context, userID id.UserID) (*entity.WorkerProfile, error) {
	var out entity.WorkerProfile
	if err := p.c.do(ctx, http.MethodGet, "/api/workers/user/"+userID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) GetEmployerByUser(ctx context.Context, userID id.UserID) (*entity.EmployerProfile, error) {
	var out entity.EmployerProfile
	if err := p.c.do(ctx, http.MethodGet, "/api/employers/user/"+userID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) CreateWorker(ctx context.Context, input service.WorkerProfileInput) (*entity.WorkerProfile, error) {
	var out entity.WorkerProfile
	if err := p.c.do(ctx, http.MethodPost, "/api/workers", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) UpdateWorker(ctx context.Context, profileID id.WorkerID, input service.WorkerProfileInput) (*entity.WorkerProfile, error) {
	var out entity.WorkerProfile
	if err := p.c.do(ctx, http.MethodPatch, "/api/workers/"+profileID.String(), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) CreateEmployer(ctx context.Context, input service.EmployerProfileInput) (*entity.EmployerProfile, error) {
	var out entity.EmployerProfile
	if err := p.c.do(ctx, http.MethodPost, "/api/employers", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) UpdateEmployer(ctx context.Context, profileID id.EmployerID, input service.EmployerProfileInput) (*entity.EmployerProfile, error) {
	var out entity.EmployerProfile
	if err := p.c.do(ctx, http.MethodPatch, "/api/employers/"+profileID.String(), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Profiles) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	var env listEnvelope[*entity.Category]
	if err := p.c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
