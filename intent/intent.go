// Package intent implements the deferred intent resolver: it captures an
// action a user wanted to perform while unauthenticated (apply to a job),
// persists it in the session resource across the login redirect, and
// resumes it once authentication succeeds and the prerequisite worker
// profile is confirmed present.
//
// The state machine is none → captured → consumed. Capture and
// consumption are separated by a full navigation boundary so they cannot
// race; consumption is idempotent — once the intent is cleared a repeat
// call resolves to ordinary routing and must not re-trigger the resume.
package intent

import (
	"context"
	"errors"
	"log/slog"

	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
	"github.com/Tafakari-Ltd/kazibuddy-sync/pipeline"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
	"github.com/Tafakari-Ltd/kazibuddy-sync/session"
)

// Kind identifies what the user was trying to do.
type Kind string

// KindApplyToJob is the only gated action currently captured.
const KindApplyToJob Kind = "apply-to-job"

// Well-known routes used by capture and consumption.
const (
	LoginRoute        = "/login"
	ProfileSetupRoute = "/worker/profile/new"

	workerLanding   = "/worker/dashboard"
	employerLanding = "/employer/dashboard"
	adminLanding    = "/admin/dashboard"
	defaultLanding  = "/"
)

// ProfileMissingMessage explains the redirect to profile setup.
const ProfileMissingMessage = "complete your worker profile to apply for jobs"

// Resolution is the outcome of consuming (or not finding) an intent.
type Resolution struct {
	// Route is where post-login navigation should go.
	Route string
	// Resume signals the UI to reopen the original action (the apply
	// form) for TargetID.
	Resume bool
	// TargetID is the job the user wanted to apply to, when Resume is set.
	TargetID string
	// Message is an explanatory note surfaced when the prerequisite
	// check failed.
	Message string
}

// Resolver drives the capture/consume lifecycle.
type Resolver struct {
	session  *session.Session
	profiles service.ProfileService
	runner   *pipeline.Runner
	state    *pipeline.OpState
	logger   *slog.Logger

	// onProfile receives the worker profile fetched by the prerequisite
	// check so the caller can cache it. Optional.
	onProfile func(*entity.WorkerProfile)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithProfileSink registers a callback receiving the worker profile
// confirmed by the prerequisite check.
func WithProfileSink(fn func(*entity.WorkerProfile)) Option {
	return func(r *Resolver) { r.onProfile = fn }
}

// NewResolver creates a Resolver.
func NewResolver(sess *session.Session, profiles service.ProfileService, runner *pipeline.Runner, opts ...Option) *Resolver {
	r := &Resolver{
		session:  sess,
		profiles: profiles,
		runner:   runner,
		state:    &pipeline.OpState{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State exposes the prerequisite check's operation flags.
func (r *Resolver) State() *pipeline.OpState { return r.state }

// Capture records a gated action blocked by missing authentication and
// returns the route to redirect to (the login entry point). A prior
// uncommitted intent is overwritten: at most one intent is live.
func (r *Resolver) Capture(ctx context.Context, kind Kind, targetID id.JobID, returnRoute string) (string, error) {
	if kind != KindApplyToJob {
		return "", kazisync.ErrNoIntent
	}
	if err := r.session.SetPendingIntent(ctx, targetID.String(), returnRoute); err != nil {
		return "", err
	}

	r.logger.Info("deferred intent captured",
		slog.String("kind", string(kind)),
		slog.String("target_id", targetID.String()),
		slog.String("return_route", returnRoute),
	)
	return LoginRoute, nil
}

// Consume resolves the stored intent immediately after a successful
// login. With no intent captured it performs ordinary role-based
// routing. With an intent present it runs the prerequisite check (does
// the user have a worker profile?) through the pipeline, then either
// resumes the original action at its return route or redirects to
// profile setup with an explanatory message. Either way the intent is
// cleared; a transport failure during the check leaves it in place so a
// retry can succeed.
func (r *Resolver) Consume(ctx context.Context) (Resolution, error) {
	targetID, returnRoute, ok := r.session.PendingIntent(ctx)
	if !ok {
		return Resolution{Route: r.landingRoute(ctx)}, nil
	}

	var profile *entity.WorkerProfile
	op := &pipeline.Descriptor{Name: "intent.prerequisite", EntityID: targetID}
	err := r.runner.Do(ctx, op, r.state, func(ctx context.Context) error {
		userID, parseErr := id.ParseUserID(r.session.UserID(ctx))
		if parseErr != nil {
			return kazisync.ErrNotAuthenticated
		}
		p, fetchErr := r.profiles.GetWorkerByUser(ctx, userID)
		if fetchErr != nil {
			return fetchErr
		}
		profile = p
		return nil
	})

	switch {
	case err == nil:
		if clearErr := r.session.ClearPendingIntent(ctx); clearErr != nil {
			return Resolution{}, clearErr
		}
		if r.onProfile != nil && profile != nil {
			r.onProfile(profile)
		}
		r.logger.Info("deferred intent resumed", slog.String("target_id", targetID))
		return Resolution{Route: returnRoute, Resume: true, TargetID: targetID}, nil

	case isProfileMissing(err):
		// Expected, non-fatal outcome: the intent is spent either way.
		if clearErr := r.session.ClearPendingIntent(ctx); clearErr != nil {
			return Resolution{}, clearErr
		}
		r.logger.Info("deferred intent redirected to profile setup", slog.String("target_id", targetID))
		return Resolution{Route: ProfileSetupRoute, Message: ProfileMissingMessage}, nil

	default:
		// Transport or auth failure: keep the intent for a later retry.
		return Resolution{}, err
	}
}

// landingRoute picks the role-based landing page for ordinary
// post-login routing.
func (r *Resolver) landingRoute(ctx context.Context) string {
	u, err := r.session.User(ctx)
	if err != nil {
		return defaultLanding
	}
	switch u.Role {
	case "worker":
		return workerLanding
	case "employer":
		return employerLanding
	case "admin":
		return adminLanding
	default:
		return defaultLanding
	}
}

func isProfileMissing(err error) bool {
	return errors.Is(err, kazisync.ErrProfileNotFound) || service.IsNotFound(err)
}
