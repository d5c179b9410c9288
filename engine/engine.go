package engine

import (
	"context"
	"log/slog"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/approval"
	"github.com/Tafakari-Ltd/kazibuddy-sync/intent"
	mw "github.com/Tafakari-Ltd/kazibuddy-sync/middleware"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/query"
	"github.com/Tafakari-Ltd/kazibuddy-sync/refresh"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/session"
	"github.com/Tafakari-Ltd/kazibuddy-sync/store"
	"github.com/Tafakari-Ltd/kazibuddy-sync/stream"
)

// Engine is the assembled sync client. It owns the entity store, the
// session resource, the mutation runner, the event broker, and the
// workflow controllers built on top of them.
type Engine struct {
	syncer *kazisync.Syncer
	logger *slog.Logger

	store    *store.Store
	session  *session.Session
	services service.Bundle
	runner   *pipeline.Runner
	broker   *stream.Broker

	resolver  *intent.Resolver
	approvals *approval.Controller
	jobsQuery *query.Negotiator

	tracerProvider trace.TracerProvider
	meterProvider  otelmetric.MeterProvider
	extraMW        []mw.Middleware

	// Per-concern operation states read by the frontend.
	jobsListState  *pipeline.OpState
	jobDetailState *pipeline.OpState
	jobWriteState  *pipeline.OpState
	appsListState  *pipeline.OpState
	applyState     *pipeline.OpState
	appWriteState  *pipeline.OpState
	profileState   *pipeline.OpState

	appsBusy *pipeline.BusyTracker
}

// Option configures an Engine during Build.
type Option func(*Engine)

// WithMiddleware appends middleware to the default chain. Extra
// middleware runs innermost, after the built-in stack.
func WithMiddleware(mws ...mw.Middleware) Option {
	return func(e *Engine) { e.extraMW = append(e.extraMW, mws...) }
}

// WithTracerProvider enables tracing spans around every operation using
// the given provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider enables operation metrics using the given provider
// instead of the global one.
func WithMeterProvider(mp otelmetric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// WithBroker substitutes a preconfigured event broker, e.g. one with a
// custom buffer size or credit policy.
func WithBroker(b *stream.Broker) Option {
	return func(e *Engine) { e.broker = b }
}

// Build assembles an Engine from a configured Syncer and a backend
// service bundle.
//
// The middleware chain is, outermost first: panic recovery, tracing,
// metrics, logging, event emission, timeout, then any extras from
// WithMiddleware. Tracing and metrics use the global otel providers
// unless overridden.
func Build(s *kazisync.Syncer, svcs service.Bundle, opts ...Option) (*Engine, error) {
	if s.Session() == nil {
		return nil, kazisync.ErrNoSession
	}
	if !svcs.Complete() {
		return nil, kazisync.ErrNoServices
	}

	cfg := s.Config()
	eng := &Engine{
		syncer:   s,
		logger:   s.Logger(),
		services: svcs,

		jobsListState:  &pipeline.OpState{},
		jobDetailState: &pipeline.OpState{},
		jobWriteState:  &pipeline.OpState{},
		appsListState:  &pipeline.OpState{},
		applyState:     &pipeline.OpState{},
		appWriteState:  &pipeline.OpState{},
		profileState:   &pipeline.OpState{},

		appsBusy: pipeline.NewBusyTracker(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.broker == nil {
		eng.broker = stream.NewBroker(eng.logger)
	}
	eng.store = store.New(store.WithNotifier(eng.broker))
	eng.session = session.NewSession(s.Session())

	var tracingMW mw.Middleware
	if eng.tracerProvider != nil {
		tracingMW = mw.TracingWithTracer(eng.tracerProvider.Tracer("github.com/Tafakari-Ltd/kazibuddy-sync"))
	} else {
		tracingMW = mw.Tracing()
	}
	var metricsMW mw.Middleware
	if eng.meterProvider != nil {
		metricsMW = mw.MetricsWithMeter(eng.meterProvider.Meter("github.com/Tafakari-Ltd/kazibuddy-sync"))
	} else {
		metricsMW = mw.Metrics()
	}

	chain := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMW,
		metricsMW,
		mw.Logging(eng.logger),
		eng.broker.Wrapper(),
		mw.Timeout(cfg.RequestTimeout),
	}
	chain = append(chain, eng.extraMW...)

	eng.runner = pipeline.NewRunner(
		pipeline.WithWrapper(mw.Chain(chain...)),
		pipeline.WithLogger(eng.logger),
	)

	eng.resolver = intent.NewResolver(eng.session, svcs.Profiles, eng.runner,
		intent.WithLogger(eng.logger),
		intent.WithProfileSink(eng.store.SetWorkerProfile),
	)
	eng.approvals = approval.New(eng.store, svcs, eng.runner,
		approval.WithLogger(eng.logger),
	)
	eng.jobsQuery = query.New(eng.fetchJobs,
		query.WithDebounce(cfg.DebounceInterval),
		query.WithPageSize(cfg.DefaultPageSize),
		query.WithLogger(eng.logger),
	)

	return eng, nil
}

// Shutdown stops the event broker and releases all subscribers.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.broker.Shutdown(ctx)
}

// NewAutoRefresh builds a background scheduler with the jobs listing
// re-sync registered on the given schedule. The caller owns its
// lifecycle; further entries can be added before Start.
func (e *Engine) NewAutoRefresh(expr string, opts ...refresh.SchedulerOption) (*refresh.Scheduler, error) {
	s := refresh.NewScheduler(e.logger, opts...)
	if err := s.Add("jobs.resync", expr, func(context.Context) error {
		e.jobsQuery.Refresh()
		return nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// Store returns the entity store.
func (e *Engine) Store() *store.Store { return e.store }

// Session returns the typed session resource.
func (e *Engine) Session() *session.Session { return e.session }

// Broker returns the event broker for subscribing to change events.
func (e *Engine) Broker() *stream.Broker { return e.broker }

// Approvals returns the admin approval queue controller.
func (e *Engine) Approvals() *approval.Controller { return e.approvals }

// Resolver returns the deferred intent resolver.
func (e *Engine) Resolver() *intent.Resolver { return e.resolver }

// JobsQuery returns the filter negotiator feeding the jobs.all
// projection. Filter and pagination changes made through it settle into
// debounced or immediate refetches.
func (e *Engine) JobsQuery() *query.Negotiator { return e.jobsQuery }

// JobsListState reports the jobs list fetch lifecycle.
func (e *Engine) JobsListState() *pipeline.OpState { return e.jobsListState }

// JobDetailState reports the single job fetch lifecycle.
func (e *Engine) JobDetailState() *pipeline.OpState { return e.jobDetailState }

// JobWriteState reports job create/update/delete lifecycles.
func (e *Engine) JobWriteState() *pipeline.OpState { return e.jobWriteState }

// ApplicationsListState reports application list fetch lifecycles.
func (e *Engine) ApplicationsListState() *pipeline.OpState { return e.appsListState }

// ApplyState reports the apply-to-job lifecycle.
func (e *Engine) ApplyState() *pipeline.OpState { return e.applyState }

// ApplicationWriteState reports application mutation lifecycles.
func (e *Engine) ApplicationWriteState() *pipeline.OpState { return e.appWriteState }

// ProfileState reports profile load/save lifecycles.
func (e *Engine) ProfileState() *pipeline.OpState { return e.profileState }
