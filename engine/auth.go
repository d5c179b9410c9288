package engine

import (
	"context"

	"github.com/Tafakari-Ltd/kazibuddy-sync/intent"
	"github.com/Tafakari-Ltd/kazibuddy-sync/session"
)

// CompleteLogin persists the issued token pair and user snapshot, then
// consumes any deferred intent. The returned Resolution carries the
// route to navigate to: the captured return route with Resume set when
// an intent was pending and its prerequisites hold, the profile setup
// route when the worker has no profile yet, or the role's landing page
// when nothing was deferred.
func (e *Engine) CompleteLogin(ctx context.Context, access, refresh string, user session.UserSnapshot) (intent.Resolution, error) {
	if err := e.session.SetTokens(ctx, access, refresh); err != nil {
		return intent.Resolution{}, err
	}
	if err := e.session.SetUser(ctx, user); err != nil {
		return intent.Resolution{}, err
	}
	return e.resolver.Consume(ctx)
}

// Logout clears the session, including any still-pending intent.
func (e *Engine) Logout(ctx context.Context) error {
	return e.session.Logout(ctx)
}
