package engine_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/engine"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/intent"
	"github.com/Tafakari-Ltd/kazibuddy-sync/refresh"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/session"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
)

// ──────────────────────────────────────────────────
// Fake backend services
// ──────────────────────────────────────────────────

type fakeJobs struct {
	service.JobService

	mu      sync.Mutex
	lists   []service.ListQuery
	pages   []service.ListResult[*entity.Job]
	listErr error
	started chan struct{} // signalled once per List entry, if set
	gate    chan struct{} // first List call blocks on this, if set
	calls   int

	created *entity.Job
	updated map[string]entity.JobStatus
}

func (f *fakeJobs) List(_ context.Context, q service.ListQuery) (service.ListResult[*entity.Job], error) {
	f.mu.Lock()
	f.lists = append(f.lists, q)
	call := f.calls
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil && call == 0 {
		<-f.gate
	}
	if f.listErr != nil {
		return service.ListResult[*entity.Job]{}, f.listErr
	}
	if call < len(f.pages) {
		return f.pages[call], nil
	}
	return service.ListResult[*entity.Job]{}, nil
}

func (f *fakeJobs) Create(_ context.Context, input service.JobInput) (*entity.Job, error) {
	j := &entity.Job{ID: id.NewJobID(), Title: input.Title, Status: entity.JobDraft}
	f.mu.Lock()
	f.created = j
	f.mu.Unlock()
	return j, nil
}

func (f *fakeJobs) UpdateStatus(_ context.Context, jobID id.JobID, status entity.JobStatus) (*entity.Job, error) {
	f.mu.Lock()
	if f.updated == nil {
		f.updated = make(map[string]entity.JobStatus)
	}
	f.updated[jobID.String()] = status
	f.mu.Unlock()
	return &entity.Job{ID: jobID, Status: status}, nil
}

func (f *fakeJobs) Delete(context.Context, id.JobID) error { return nil }

type fakeApps struct {
	service.ApplicationService

	mu         sync.Mutex
	applied    []id.JobID
	applyErr   error
	updateErr  map[string]error // per-application failures
	updates    []string
	updGate    chan struct{} // Update blocks on this, if set
	updEntered chan struct{} // signalled when a gated Update begins
}

func (f *fakeApps) Apply(_ context.Context, jobID id.JobID, input service.ApplyInput) (*entity.Application, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.mu.Lock()
	f.applied = append(f.applied, jobID)
	f.mu.Unlock()
	return &entity.Application{
		ID:          id.NewApplicationID(),
		JobID:       jobID,
		CoverLetter: input.CoverLetter,
		Status:      entity.AppPending,
		AppliedAt:   time.Now().UTC(),
	}, nil
}

func (f *fakeApps) ListForJob(_ context.Context, jobID id.JobID, _ service.ListQuery) (service.ListResult[*entity.Application], error) {
	return service.ListResult[*entity.Application]{}, nil
}

func (f *fakeApps) Update(_ context.Context, appID id.ApplicationID, patch service.ApplicationUpdate) (*entity.Application, error) {
	if f.updGate != nil {
		f.updEntered <- struct{}{}
		<-f.updGate
	}
	if err := f.updateErr[appID.String()]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.updates = append(f.updates, appID.String())
	f.mu.Unlock()

	now := time.Now().UTC()
	a := &entity.Application{ID: appID, Status: entity.AppPending, AppliedAt: now.Add(-time.Hour)}
	if patch.Status != nil {
		if err := a.SetStatus(*patch.Status, now); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type fakeProfiles struct {
	service.ProfileService

	mu      sync.Mutex
	profile *entity.WorkerProfile
	err     error
	calls   int
}

func (f *fakeProfiles) GetWorkerByUser(_ context.Context, userID id.UserID) (*entity.WorkerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeAdmin struct {
	service.AdminService

	mu       sync.Mutex
	pending  []*entity.PendingItem
	approved []string
}

func (f *fakeAdmin) ListPendingJobs(context.Context) ([]*entity.PendingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.PendingItem(nil), f.pending...), nil
}

func (f *fakeAdmin) ApproveJob(_ context.Context, jobID id.JobID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, jobID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Harness
// ──────────────────────────────────────────────────

type harness struct {
	eng      *engine.Engine
	jobs     *fakeJobs
	apps     *fakeApps
	profiles *fakeProfiles
	admin    *fakeAdmin
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := kazisync.New(
		kazisync.WithSession(session.NewMemory()),
		kazisync.WithLogger(slog.New(slog.DiscardHandler)),
		kazisync.WithBatchConcurrency(3),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := &harness{
		jobs:     &fakeJobs{},
		apps:     &fakeApps{},
		profiles: &fakeProfiles{},
		admin:    &fakeAdmin{},
	}
	h.eng, err = engine.Build(s, service.Bundle{
		Jobs:         h.jobs,
		Applications: h.apps,
		Profiles:     h.profiles,
		Admin:        h.admin,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = h.eng.Shutdown(context.Background()) })
	return h
}

// mintToken issues a signed JWT expiring an hour out, since the session
// treats unparseable or expired access tokens as logged out.
func mintToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func (h *harness) login(t *testing.T, role string) intent.Resolution {
	t.Helper()
	res, err := h.eng.CompleteLogin(context.Background(), mintToken(t), "tok-r", session.UserSnapshot{
		ID:    id.NewUserID().String(),
		Email: "user@example.com",
		Role:  role,
	})
	if err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	return res
}

func jobList(ids ...string) service.ListResult[*entity.Job] {
	out := service.ListResult[*entity.Job]{Page: entity.Page{Page: 1, Limit: 10}}
	for _, title := range ids {
		out.Items = append(out.Items, &entity.Job{ID: id.NewJobID(), Title: title, Status: entity.JobActive})
	}
	out.Page.TotalItems = len(out.Items)
	return out
}

// ──────────────────────────────────────────────────
// Build wiring
// ──────────────────────────────────────────────────

func TestBuildRequiresSessionAndServices(t *testing.T) {
	t.Parallel()

	s, _ := kazisync.New()
	if _, err := engine.Build(s, service.Bundle{}); !errors.Is(err, kazisync.ErrNoSession) {
		t.Fatalf("Build without session = %v, want ErrNoSession", err)
	}

	s, _ = kazisync.New(kazisync.WithSession(session.NewMemory()))
	if _, err := engine.Build(s, service.Bundle{Jobs: &fakeJobs{}}); !errors.Is(err, kazisync.ErrNoServices) {
		t.Fatalf("Build with partial bundle = %v, want ErrNoServices", err)
	}
}

// ──────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────

func TestLoadJobsPopulatesProjection(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("plumber", "electrician")}

	if err := h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("LoadJobs: %v", err)
	}

	items, page, err := h.eng.Store().Jobs(store.JobsAll)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(items) != 2 || items[0].Title != "plumber" {
		t.Fatalf("projection = %v", items)
	}
	if page.TotalItems != 2 {
		t.Fatalf("page = %+v", page)
	}
}

func TestOvertakenFetchIsDiscarded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.started = make(chan struct{}, 2)
	h.jobs.gate = make(chan struct{})
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("stale"), jobList("fresh")}

	done := make(chan error, 1)
	go func() {
		done <- h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{Page: 1})
	}()
	<-h.jobs.started // first fetch is in flight, holding the older generation

	if err := h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{Page: 2}); err != nil {
		t.Fatalf("second LoadJobs: %v", err)
	}
	<-h.jobs.started

	close(h.jobs.gate)
	if err := <-done; err != nil {
		t.Fatalf("first LoadJobs: %v", err)
	}

	items, _, _ := h.eng.Store().Jobs(store.JobsAll)
	if len(items) != 1 || items[0].Title != "fresh" {
		t.Fatalf("projection after late arrival = %v, want the newer fetch only", items)
	}
}

func TestFailedFetchKeepsPriorContents(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("keeper")}

	if err := h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{}); err != nil {
		t.Fatalf("seed LoadJobs: %v", err)
	}

	h.jobs.listErr = errors.New("connection reset")
	if err := h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{}); err == nil {
		t.Fatal("LoadJobs with failing backend returned nil error")
	}

	items, _, _ := h.eng.Store().Jobs(store.JobsAll)
	if len(items) != 1 || items[0].Title != "keeper" {
		t.Fatalf("projection after failed refetch = %v, want prior contents", items)
	}
	if h.eng.JobsListState().Err() == "" {
		t.Fatal("list state has no error after failed fetch")
	}
}

func TestCreateJobPrependsWithoutRefetch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("existing")}
	if err := h.eng.LoadJobs(context.Background(), store.JobsAll, service.ListQuery{}); err != nil {
		t.Fatalf("LoadJobs: %v", err)
	}

	created, err := h.eng.CreateJob(context.Background(), service.JobInput{Title: "new gig"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	items, _, _ := h.eng.Store().Jobs(store.JobsAll)
	if len(items) != 2 || items[0].ID != created.ID {
		t.Fatalf("jobs.all after create = %v, want created job first", items)
	}
	mine, _, _ := h.eng.Store().Jobs(store.JobsMine)
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("jobs.mine after create = %v", mine)
	}
	if h.jobs.calls != 1 {
		t.Fatalf("List calls = %d, want no refetch", h.jobs.calls)
	}
}

func TestUpdateJobStatusPropagates(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	target := &entity.Job{ID: id.NewJobID(), Title: "roof", Status: entity.JobActive}
	h.eng.Store().PrependJob(target, store.JobsAll, store.JobsMine)
	h.eng.Store().SetCurrentJob(target)

	if err := h.eng.UpdateJobStatus(context.Background(), target.ID, entity.JobPaused); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}

	for _, name := range []string{store.JobsAll, store.JobsMine} {
		items, _, _ := h.eng.Store().Jobs(name)
		if items[0].Status != entity.JobPaused {
			t.Fatalf("%s status = %s, want paused", name, items[0].Status)
		}
	}
	if cur := h.eng.Store().CurrentJob(); cur.Status != entity.JobPaused {
		t.Fatalf("current job status = %s, want paused", cur.Status)
	}
}

func TestJobsQueryFeedsProjection(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("match")}

	h.eng.JobsQuery().SetCategory("cat_123")

	deadline := time.After(2 * time.Second)
	for {
		items, _, _ := h.eng.Store().Jobs(store.JobsAll)
		if len(items) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("negotiator fetch never landed in the projection")
		case <-time.After(10 * time.Millisecond):
		}
	}

	h.jobs.mu.Lock()
	defer h.jobs.mu.Unlock()
	if got := h.jobs.lists[0].Filters.Get("category"); got != "cat_123" {
		t.Fatalf("category filter = %q", got)
	}
}

// ──────────────────────────────────────────────────
// Gated apply and deferred intent
// ──────────────────────────────────────────────────

func TestApplyWhileLoggedOutDefersAndResumes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.profiles.profile = &entity.WorkerProfile{ID: id.NewWorkerID(), FullName: "Amina"}
	jobID := id.NewJobID()

	out, err := h.eng.Apply(context.Background(), jobID, service.ApplyInput{CoverLetter: "hi"}, "/jobs/"+jobID.String())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Route != intent.LoginRoute || out.Application != nil {
		t.Fatalf("logged-out apply = %+v, want login redirect", out)
	}
	if len(h.apps.applied) != 0 {
		t.Fatal("application submitted while logged out")
	}

	res := h.login(t, "worker")
	if !res.Resume || res.Route != "/jobs/"+jobID.String() || res.TargetID != jobID.String() {
		t.Fatalf("post-login resolution = %+v, want resume at return route", res)
	}
	if h.eng.Store().WorkerProfile() == nil {
		t.Fatal("prerequisite profile not cached in store")
	}

	out, err = h.eng.Apply(context.Background(), jobID, service.ApplyInput{CoverLetter: "hi"}, "/jobs/"+jobID.String())
	if err != nil {
		t.Fatalf("resumed Apply: %v", err)
	}
	if out.Application == nil || out.Route != "" {
		t.Fatalf("resumed apply = %+v, want submitted application", out)
	}
	mine, _, _ := h.eng.Store().Applications(store.AppsMine)
	if len(mine) != 1 || mine[0].JobID != jobID {
		t.Fatalf("applications.mine = %v", mine)
	}
}

func TestLoginWithoutProfileRoutesToSetup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.profiles.err = fmt.Errorf("lookup: %w", kazisync.ErrProfileNotFound)
	jobID := id.NewJobID()

	if _, err := h.eng.Apply(context.Background(), jobID, service.ApplyInput{}, "/jobs/x"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	res := h.login(t, "worker")
	if res.Resume || res.Route != intent.ProfileSetupRoute || res.Message == "" {
		t.Fatalf("resolution = %+v, want profile setup redirect with message", res)
	}

	// The intent is spent: a repeat login routes by role.
	res = h.login(t, "worker")
	if res.Resume || res.Route == intent.ProfileSetupRoute {
		t.Fatalf("second resolution = %+v, want plain role routing", res)
	}
}

func TestLoginWithoutIntentRoutesByRole(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	res := h.login(t, "employer")
	if res.Resume || res.Route != "/employer/dashboard" {
		t.Fatalf("resolution = %+v, want employer landing", res)
	}
	if h.profiles.calls != 0 {
		t.Fatal("prerequisite check ran with no intent captured")
	}
}

// ──────────────────────────────────────────────────
// Bulk mutations
// ──────────────────────────────────────────────────

func TestBulkUpdateStatusIsolatesFailures(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	apps := make([]*entity.Application, 4)
	ids := make([]id.ApplicationID, 4)
	for i := range apps {
		ids[i] = id.NewApplicationID()
		apps[i] = &entity.Application{ID: ids[i], Status: entity.AppPending}
		h.eng.Store().PrependApplication(apps[i], store.AppsForJob, store.AppsAll)
	}
	h.apps.updateErr = map[string]error{ids[2].String(): errors.New("boom")}

	res := h.eng.BulkUpdateStatus(context.Background(), ids, entity.AppAccepted)
	if res.UpdatedCount != 3 || len(res.Errors) != 1 {
		t.Fatalf("result = %+v, want 3 updated and 1 error", res)
	}
	if !strings.Contains(res.Errors[0], ids[2].String()) {
		t.Fatalf("error %q does not name the failed item", res.Errors[0])
	}

	for _, name := range []string{store.AppsForJob, store.AppsAll} {
		items, _, _ := h.eng.Store().Applications(name)
		for _, a := range items {
			want := entity.AppAccepted
			if a.ID == ids[2] {
				want = entity.AppPending
			}
			if a.Status != want {
				t.Fatalf("%s: app %s status = %s, want %s", name, a.ID, a.Status, want)
			}
			if a.Status == entity.AppAccepted && a.RespondedAt == nil {
				t.Fatalf("%s: accepted app %s missing responded timestamp", name, a.ID)
			}
		}
	}
}

func TestUpdateApplicationStatusRefusesConcurrentSameItem(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	appID := id.NewApplicationID()
	h.apps.updGate = make(chan struct{})
	h.apps.updEntered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- h.eng.UpdateApplicationStatus(context.Background(), appID, entity.AppReviewed)
	}()
	<-h.apps.updEntered // first mutation holds the item

	if err := h.eng.UpdateApplicationStatus(context.Background(), appID, entity.AppAccepted); !errors.Is(err, kazisync.ErrActionInFlight) {
		t.Fatalf("concurrent same-item update = %v, want ErrActionInFlight", err)
	}

	close(h.apps.updGate)
	if err := <-done; err != nil {
		t.Fatalf("first update: %v", err)
	}

	// The marker clears when the first mutation settles.
	h.apps.updGate = nil
	if err := h.eng.UpdateApplicationStatus(context.Background(), appID, entity.AppAccepted); err != nil {
		t.Fatalf("update after settle: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Admin approvals through the engine
// ──────────────────────────────────────────────────

func TestRejectPendingJobCancelsEverywhere(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	target := &entity.Job{ID: id.NewJobID(), Title: "pending gig", Status: entity.JobActive}
	h.eng.Store().PrependJob(target, store.JobsAll)
	h.eng.Store().SetCurrentJob(target)
	h.admin.pending = []*entity.PendingItem{
		{ID: target.ID, Kind: entity.PendingJob, Label: target.Title, SubmittedAt: time.Now().UTC()},
	}

	ctrl := h.eng.Approvals()
	if err := ctrl.LoadPendingJobs(context.Background()); err != nil {
		t.Fatalf("LoadPendingJobs: %v", err)
	}
	if err := ctrl.RejectJob(context.Background(), target.ID); err != nil {
		t.Fatalf("RejectJob: %v", err)
	}

	queue, _ := h.eng.Store().Pending(store.PendingJobsQueue)
	if len(queue) != 0 {
		t.Fatalf("pending queue = %v, want empty", queue)
	}
	items, _, _ := h.eng.Store().Jobs(store.JobsAll)
	if items[0].Status != entity.JobCancelled {
		t.Fatalf("jobs.all status = %s, want cancelled", items[0].Status)
	}
	if cur := h.eng.Store().CurrentJob(); cur.Status != entity.JobCancelled {
		t.Fatalf("current job status = %s, want cancelled", cur.Status)
	}
	if got := h.jobs.updated[target.ID.String()]; got != entity.JobCancelled {
		t.Fatalf("backend transition = %s, want cancelled", got)
	}
}

// ──────────────────────────────────────────────────
// Background re-sync
// ──────────────────────────────────────────────────

func TestAutoRefreshRefiresJobsQuery(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jobs.pages = []service.ListResult[*entity.Job]{jobList("first"), jobList("second")}

	sched, err := h.eng.NewAutoRefresh("@every 20ms", refresh.WithTickInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewAutoRefresh: %v", err)
	}
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop(context.Background()) //nolint:errcheck

	deadline := time.After(3 * time.Second)
	for {
		h.jobs.mu.Lock()
		calls := h.jobs.calls
		h.jobs.mu.Unlock()
		if calls >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background re-sync never refired the jobs query")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
