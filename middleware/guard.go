package middleware

import (
	"context"
	"net/http"

	"github.com/miniapp-agency/portal/authstate"
	"github.com/miniapp-agency/portal/guard"
)

// SnapshotSource yields the auth snapshot for a request. *authstate.State
// satisfies it.
type SnapshotSource interface {
	Snapshot() authstate.Snapshot
}

type snapshotContextKey struct{}

// SnapshotFromContext returns the snapshot a guard evaluated for this
// request.
func SnapshotFromContext(ctx context.Context) (authstate.Snapshot, bool) {
	s, ok := ctx.Value(snapshotContextKey{}).(authstate.Snapshot)
	return s, ok
}

// Guard returns middleware that evaluates g for every request. A nil source
// or guard redirects to the login route.
func Guard(source SnapshotSource, g guard.Func) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil || g == nil {
				http.Redirect(w, r, guard.RouteLogin, http.StatusFound)
				return
			}

			snap := source.Snapshot()
			d := g(snap)
			if !d.Allow {
				to := d.Redirect
				if to == "" {
					to = guard.RouteLogin
				}
				http.Redirect(w, r, to, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
