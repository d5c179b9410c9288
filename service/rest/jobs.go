package rest

import (
	"context"
	"net/http"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// Jobs implements service.JobService over HTTP.
type Jobs struct {
	c *Client
}

var _ service.JobService = (*Jobs)(nil)

func (j *Jobs) List(ctx context.Context, q service.ListQuery) (service.ListResult[*entity.Job], error) {
	var env listEnvelope[*entity.Job]
	if err := j.c.do(ctx, http.MethodGet, "/api/jobs", q.Values(), nil, &env); err != nil {
		return service.ListResult[*entity.Job]{}, err
	}
	return service.ListResult[*entity.Job]{Items: env.Items, Page: env.Pagination}, nil
}

func (j *Jobs) Get(ctx context.Context, jobID id.JobID) (*entity.Job, error) {
	var out entity.Job
	if err := j.c.do(ctx, http.MethodGet, "/api/jobs/"+jobID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *Jobs) Create(ctx context.Context, input service.JobInput) (*entity.Job, error) {
	var out entity.Job
	if err := j.c.do(ctx, http.MethodPost, "/api/jobs", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *Jobs) Update(ctx context.Context, jobID id.JobID, input service.JobInput) (*entity.Job, error) {
	var out entity.Job
	if err := j.c.do(ctx, http.MethodPatch, "/api/jobs/"+jobID.String(), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *Jobs) UpdateStatus(ctx context.Context, jobID id.JobID, status entity.JobStatus) (*entity.Job, error) {
	body := map[string]string{"status": string(status)}
	var out entity.Job
	if err := j.c.do(ctx, http.MethodPatch, "/api/jobs/"+jobID.String()+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *Jobs) Delete(ctx context.Context, jobID id.JobID) error {
	return j.c.do(ctx, http.MethodDelete, "/api/jobs/"+jobID.String(), nil, nil, nil)
}

func (j *Jobs) ListByEmployer(ctx context.Context, employerID id.EmployerID, q service.ListQuery) (service.ListResult[*entity.Job], error) {
	var env listEnvelope[*entity.Job]
	path := "/api/employers/" + employerID.String() + "/jobs"
	if err := j.c.do(ctx, http.MethodGet, path, q.Values(), nil, &env); err != nil {
		return service.ListResult[*entity.Job]{}, err
	}
	return service.ListResult[*entity.Job]{Items: env.Items, Page: env.Pagination}, nil
}

func (j *Jobs) ListByCategory(ctx context.Context, categoryID id.CategoryID, q service.ListQuery) (service.ListResult[*entity.Job], error) {
	var env listEnvelope[*entity.Job]
	path := "/api/categories/" + categoryID.String() + "/jobs"
	if err := j.c.do(ctx, http.MethodGet, path, q.Values(), nil, &env); err != nil {
		return service.ListResult[*entity.Job]{}, err
	}
	return service.ListResult[*entity.Job]{Items: env.Items, Page: env.Pagination}, nil
}
