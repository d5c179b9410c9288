package query_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/query"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

type fetchRecorder struct {
	mu    sync.Mutex
	calls []service.ListQuery
}

func (r *fetchRecorder) fetch(q service.ListQuery) {
	r.mu.Lock()
	r.calls = append(r.calls, q)
	r.mu.Unlock()
}

func (r *fetchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fetchRecorder) last(t *testing.T) service.ListQuery {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		t.Fatal("no fetch fired")
	}
	return r.calls[len(r.calls)-1]
}

func TestNegotiator_DebouncesFreeTextQuery(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch, query.WithDebounce(50*time.Millisecond))

	for _, q := range []string{"p", "pl", "plu", "plum", "plumb"} {
		n.SetQuery(q)
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Fatalf("fetches fired = %d, want exactly 1", got)
	}
	if got := rec.last(t).Filters.Get("search"); got != "plumb" {
		t.Fatalf("fetched query = %q, want the final value", got)
	}
}

func TestNegotiator_FilterChangeResetsPage(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch)

	n.SetPage(4)
	if q := rec.last(t); q.Page != 4 {
		t.Fatalf("page = %d, want 4", q.Page)
	}

	n.SetCategory("plumbing")
	q := rec.last(t)
	if q.Page != 1 {
		t.Fatalf("page after filter change = %d, want reset to 1", q.Page)
	}
	if q.Filters.Get("category") != "plumbing" {
		t.Fatalf("category = %q", q.Filters.Get("category"))
	}
}

func TestNegotiator_PageChangeDoesNotResetItself(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch)

	n.SetStatus("active")
	n.SetPage(3)

	q := rec.last(t)
	if q.Page != 3 {
		t.Fatalf("page = %d, want 3", q.Page)
	}
	if q.Filters.Get("status") != "active" {
		t.Fatal("status filter must survive a page change")
	}
}

func TestNegotiator_OmitsEmptyFields(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch)

	n.SetLocation("Dar es Salaam")
	q := rec.last(t)

	if len(q.Filters) != 1 {
		t.Fatalf("canonical query = %v, want only the location filter", q.Filters)
	}
	if q.Filters.Get("location") != "Dar es Salaam" {
		t.Fatalf("location = %q", q.Filters.Get("location"))
	}
}

func TestNegotiator_ImmediateChangeSupersedesPendingDebounce(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch, query.WithDebounce(80*time.Millisecond))

	n.SetQuery("garden")
	n.SetJobType("one_off")

	time.Sleep(200 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Fatalf("fetches fired = %d, want the immediate change only", got)
	}
	q := rec.last(t)
	if q.Filters.Get("search") != "garden" || q.Filters.Get("job_type") != "one_off" {
		t.Fatalf("canonical query = %v, want both fields", q.Filters)
	}
}

func TestNegotiator_ClearIsTrackedTransition(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch, query.WithPageSize(25))

	n.SetCategory("plumbing")
	n.SetPage(2)
	before := rec.count()

	n.Clear()

	if rec.count() != before+1 {
		t.Fatal("clearing must fire a fetch")
	}
	q := rec.last(t)
	if len(q.Filters) != 0 {
		t.Fatalf("filters after clear = %v, want empty", q.Filters)
	}
	if q.Page != 1 || q.Limit != 25 {
		t.Fatalf("window after clear = {%d %d}, want {1 25}", q.Page, q.Limit)
	}
	if f := n.Filters(); f != (query.Filters{}) {
		t.Fatalf("filter state after clear = %+v", f)
	}
}

func TestNegotiator_UnchangedQueryDoesNotRearm(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch, query.WithDebounce(30*time.Millisecond))

	n.SetQuery("welder")
	time.Sleep(80 * time.Millisecond)
	n.SetQuery("welder")
	time.Sleep(80 * time.Millisecond)

	if got := rec.count(); got != 1 {
		t.Fatalf("fetches fired = %d, want 1 for an unchanged value", got)
	}
}

func TestNegotiator_RefreshRepeatsCurrentQuery(t *testing.T) {
	rec := &fetchRecorder{}
	n := query.New(rec.fetch)

	n.SetCategory("cat_plumbing")
	n.SetPage(3)
	before := rec.count()

	n.Refresh()

	if rec.count() != before+1 {
		t.Fatal("refresh must fire a fetch")
	}
	q := rec.last(t)
	if q.Filters.Get("category") != "cat_plumbing" || q.Page != 3 {
		t.Fatalf("refreshed query = %+v, want unchanged state", q)
	}
}
