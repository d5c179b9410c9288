package rest

import (
	"context"
	"net/http"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// Applications implements service.ApplicationService over HTTP.
type Applications struct {
	c *Client
}

var _ service.ApplicationService = (*Applications)(nil)

func (a *Applications) Apply(ctx context.Context, jobID id.JobID, input service.ApplyInput) (*entity.Application, error) {
	var out entity.Application
	if err := a.c.do(ctx, http.MethodPost, "/api/jobs/"+jobID.String()+"/apply", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Applications) ListMine(ctx context.Context, q service.ListQuery) (service.ListResult[*entity.Application], error) {
	return a.list(ctx, "/api/applications/mine", q)
}

func (a *Applications) Get(ctx context.Context, appID id.ApplicationID) (*entity.Application, error) {
	var out entity.Application
	if err := a.c.do(ctx, http.MethodGet, "/api/applications/"+appID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Applications) ListForJob(ctx context.Context, jobID id.JobID, q service.ListQuery) (service.ListResult[*entity.Application], error) {
	return a.list(ctx, "/api/jobs/"+jobID.String()+"/applications", q)
}

func (a *Applications) ListAll(ctx context.Context, q service.ListQuery) (service.ListResult[*entity.Application], error) {
	return a.list(ctx, "/api/applications", q)
}

func (a *Applications) Update(ctx context.Context, appID id.ApplicationID, patch service.ApplicationUpdate) (*entity.Application, error) {
	var out entity.Application
	if err := a.c.do(ctx, http.MethodPatch, "/api/applications/"+appID.String(), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Applications) Delete(ctx context.Context, appID id.ApplicationID) error {
	return a.c.do(ctx, http.MethodDelete, "/api/applications/"+appID.String(), nil, nil, nil)
}

func (a *Applications) Stats(ctx context.Context, jobID id.JobID) (*entity.StatsByStatus, error) {
	var out entity.StatsByStatus
	if err := a.c.do(ctx, http.MethodGet, "/api/jobs/"+jobID.String()+"/applications/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Applications) list(ctx context.Context, path string, q service.ListQuery) (service.ListResult[*entity.Application], error) {
	var env listEnvelope[*entity.Application]
	if err := a.c.do(ctx, http.MethodGet, path, q.Values(), nil, &env); err != nil {
		return service.ListResult[*entity.Application]{}, err
	}
	return service.ListResult[*entity.Application]{Items: env.Items, Page: env.Pagination}, nil
}
