package rest

import (
	"context"
	"net/http"

	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// Admin implements service.AdminService over HTTP.
type Admin struct {
	c *Client
}

var _ service.AdminService = (*Admin)(nil)

func (a *Admin) ListPendingUsers(ctx context.Context) ([]*entity.PendingItem, error) {
	var env listEnvelope[*entity.PendingItem]
	if err := a.c.do(ctx, http.MethodGet, "/api/admin/pending-users", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// ApproveUser submits the approval as multipart form data; the server
// materializes login credentials from it.
func (a *Admin) ApproveUser(ctx context.Context, userID id.UserID, creds service.CredentialData) error {
	fields := map[string]string{
		"username": creds.Username,
		"password": creds.Password,
		"role":     creds.Role,
	}
	path := "/api/admin/users/" + userID.String() + "/approve"
	return a.c.doMultipart(ctx, http.MethodPost, path, fields, nil)
}

func (a *Admin) ListPendingJobs(ctx context.Context) ([]*entity.PendingItem, error) {
	var env listEnvelope[*entity.PendingItem]
	if err := a.c.do(ctx, http.MethodGet, "/api/admin/pending-jobs", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func (a *Admin) ApproveJob(ctx context.Context, jobID id.JobID) error {
	path := "/api/admin/jobs/" + jobID.String() + "/approve"
	return a.c.do(ctx, http.MethodPost, path, nil, nil, nil)
}
