// Package query implements the filter and pagination negotiator: it
// holds a sparse filter set plus a pagination window, translates them
// into a canonical query for the backend, debounces rapid free-text
// changes, and resets pagination whenever a filter changes.
package query

import (
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// Filters is the sparse filter set for job and application listings.
// Zero-valued fields are omitted from the outgoing query so the server
// only sees meaningfully-set filters.
type Filters struct {
	Query        string
	Category     string
	JobType      string
	PaymentType  string
	UrgencyLevel string
	Location     string
	Status       string
}

// FetchFunc receives the canonical query whenever the negotiator decides
// a fetch should fire.
type FetchFunc func(q service.ListQuery)

// DefaultDebounce bounds request volume under fast typing in the
// free-text field.
const DefaultDebounce = 500 * time.Millisecond

// DefaultPageSize is the initial pagination window.
const DefaultPageSize = 10

// Negotiator tracks the live filter state for one listing.
//
// Any filter change other than the page number resets the page to 1.
// Free-text query changes are debounced; all other changes fetch
// immediately. Clearing restores the initial default window and is
// itself a tracked transition that fires a fetch.
type Negotiator struct {
	mu       sync.Mutex
	filters  Filters
	page     int
	limit    int
	debounce time.Duration
	pageSize int
	timer    *time.Timer
	fetch    FetchFunc
	logger   *slog.Logger
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithDebounce overrides the free-text debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(n *Negotiator) { n.debounce = d }
}

// WithPageSize overrides the default page size.
func WithPageSize(size int) Option {
	return func(n *Negotiator) { n.pageSize = size }
}

// WithLogger sets the negotiator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Negotiator) { n.logger = l }
}

// New creates a Negotiator that calls fetch on every settled change.
func New(fetch FetchFunc, opts ...Option) *Negotiator {
	n := &Negotiator{
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		fetch:    fetch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.page = 1
	n.limit = n.pageSize
	return n
}

// Filters returns a snapshot of the current filter set.
func (n *Negotiator) Filters() Filters {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.filters
}

// Window returns the current pagination window.
func (n *Negotiator) Window() (page, limit int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page, n.limit
}

// Current builds the canonical query for the present state without
// firing a fetch.
func (n *Negotiator) Current() service.ListQuery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.buildLocked()
}

// SetQuery records a free-text query change. The fetch is debounced: it
// fires only after the debounce interval passes with no further query
// changes, using the final value.
func (n *Negotiator) SetQuery(q string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.filters.Query == q {
		return
	}
	n.filters.Query = q
	n.page = 1
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.debounce, n.fireDebounced)
}

// SetCategory filters by category and fetches immediately.
func (n *Negotiator) SetCategory(category string) {
	n.setField(func(f *Filters) { f.Category = category })
}

// SetJobType filters by job type and fetches immediately.
func (n *Negotiator) SetJobType(jobType string) {
	n.setField(func(f *Filters) { f.JobType = jobType })
}

// SetPaymentType filters by payment type and fetches immediately.
func (n *Negotiator) SetPaymentType(paymentType string) {
	n.setField(func(f *Filters) { f.PaymentType = paymentType })
}

// SetUrgencyLevel filters by urgency and fetches immediately.
func (n *Negotiator) SetUrgencyLevel(level string) {
	n.setField(func(f *Filters) { f.UrgencyLevel = level })
}

// SetLocation filters by location and fetches immediately.
func (n *Negotiator) SetLocation(location string) {
	n.setField(func(f *Filters) { f.Location = location })
}

// SetStatus filters by entity status and fetches immediately.
func (n *Negotiator) SetStatus(status string) {
	n.setField(func(f *Filters) { f.Status = status })
}

// SetPage moves the pagination window. It is the one change that does
// not reset the page; it fetches immediately.
func (n *Negotiator) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	n.mu.Lock()
	n.page = page
	q := n.settleLocked()
	n.mu.Unlock()
	n.fetch(q)
}

// SetLimit changes the page size, resets to the first page, and fetches
// immediately.
func (n *Negotiator) SetLimit(limit int) {
	if limit < 1 {
		limit = n.pageSize
	}
	n.mu.Lock()
	n.limit = limit
	n.page = 1
	q := n.settleLocked()
	n.mu.Unlock()
	n.fetch(q)
}

// Refresh re-fires the fetch for the present state without changing it.
// Background re-syncs use this to pick up server-side changes.
func (n *Negotiator) Refresh() {
	n.mu.Lock()
	q := n.buildLocked()
	n.mu.Unlock()
	n.fetch(q)
}

// Clear restores the initial default window and fires a fetch: clearing
// is a tracked transition, not a silent reset.
func (n *Negotiator) Clear() {
	n.mu.Lock()
	n.filters = Filters{}
	n.page = 1
	n.limit = n.pageSize
	q := n.settleLocked()
	n.mu.Unlock()

	n.logger.Debug("filters cleared")
	n.fetch(q)
}

// setField applies one immediate (non-debounced) filter change.
func (n *Negotiator) setField(apply func(*Filters)) {
	n.mu.Lock()
	apply(&n.filters)
	n.page = 1
	q := n.settleLocked()
	n.mu.Unlock()
	n.fetch(q)
}

// settleLocked cancels any pending debounce and builds the query. An
// immediate change supersedes a pending free-text fetch; the current
// query value rides along with it.
func (n *Negotiator) settleLocked() service.ListQuery {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	return n.buildLocked()
}

func (n *Negotiator) fireDebounced() {
	n.mu.Lock()
	n.timer = nil
	q := n.buildLocked()
	n.mu.Unlock()
	n.fetch(q)
}

// buildLocked canonicalizes the filter state, omitting empty fields.
func (n *Negotiator) buildLocked() service.ListQuery {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", n.filters.Query)
	set("category", n.filters.Category)
	set("job_type", n.filters.JobType)
	set("payment_type", n.filters.PaymentType)
	set("urgency_level", n.filters.UrgencyLevel)
	set("location", n.filters.Location)
	set("status", n.filters.Status)
	return service.ListQuery{Filters: v, Page: n.page, Limit: n.limit}
}
