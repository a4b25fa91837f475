package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/session"
)

// Logout ends the session locally: the store is cleared, the gateway stops
// sending the token, the auth context resets and both workflows return to
// their entry states. The backend is not called. Logout is idempotent.
//
// A store failure is returned after the in-memory state has been reset, so
// the process is signed out even if the persisted copy survives.
func (e *Engine) Logout(ctx context.Context) error {
	wasAuthenticated := e.auth.Snapshot().IsAuthenticated

	storeErr := e.store.Clear(ctx)
	e.client.SetToken("")
	e.auth.SignOut()
	e.login.Reset()
	e.reset.Reset()
	e.metricInc(MetricLogout)

	if wasAuthenticated {
		e.success(ctx, msgSignedOut)
	}
	logctx.FromOr(ctx, e.logger).InfoContext(ctx, "signed out", slog.Bool("was_authenticated", wasAuthenticated))

	if storeErr != nil {
		e.metricInc(MetricSessionPersistFailure)
		return fmt.Errorf("%w: %w", ErrSessionPersist, storeErr)
	}
	return nil
}

// RefreshProfile fetches the current user from the backend and updates both
// the store and the auth context. A 401 means the stored token is no longer
// recognized; the session is then dropped locally.
func (e *Engine) RefreshProfile(ctx context.Context) (*session.UserProfile, error) {
	if !e.auth.Snapshot().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}

	done := e.begin(OpRefreshProfile)
	defer done()

	env, err := gateway.Get[*session.UserProfile](ctx, e.client, PathProfile)
	if err != nil {
		e.metricInc(MetricProfileRefreshFailure)
		if gateway.StatusCode(err) == http.StatusUnauthorized {
			_ = e.Logout(ctx)
			return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}
	if env.Data == nil {
		e.metricInc(MetricProfileRefreshFailure)
		return nil, fmt.Errorf("%w: empty profile", ErrProfileUnavailable)
	}

	profile := env.Data
	if err := e.store.WriteProfile(ctx, profile); err != nil {
		e.metricInc(MetricSessionPersistFailure)
		return nil, fmt.Errorf("%w: %w", ErrSessionPersist, err)
	}
	e.auth.SetProfile(profile)
	e.metricInc(MetricProfileRefreshSuccess)

	return profile.Clone(), nil
}

// WatchProfile refreshes the profile every time the auth context becomes
// authenticated, and once at start if it already is. It returns when ctx is
// done. Refresh failures are logged and do not stop the watch.
func (e *Engine) WatchProfile(ctx context.Context) error {
	updates, cancel := e.auth.Subscribe(4)
	defer cancel()

	l := logctx.FromOr(ctx, e.logger)
	refresh := func() {
		if _, err := e.RefreshProfile(ctx); err != nil && ctx.Err() == nil {
			l.WarnContext(ctx, "profile refresh failed", slog.String("error", err.Error()))
		}
	}

	authed := e.auth.Snapshot().IsAuthenticated
	if authed {
		refresh()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if snap.IsAuthenticated && !authed {
				refresh()
			}
			authed = snap.IsAuthenticated
		}
	}
}
