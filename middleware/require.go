package middleware

import (
	"net/http"

	"github.com/miniapp-agency/portal/guard"
)

// RequireAuthenticated lets signed-in users through.
func RequireAuthenticated(source SnapshotSource) func(http.Handler) http.Handler {
	return Guard(source, guard.AuthenticatedOnly)
}

// RequireAnonymous lets signed-out users through, e.g. for the login page.
func RequireAnonymous(source SnapshotSource) func(http.Handler) http.Handler {
	return Guard(source, guard.AnonymousOnly)
}

// RequireAdmin lets the administrator described by policy through.
func RequireAdmin(source SnapshotSource, policy guard.AdminPolicy) func(http.Handler) http.Handler {
	return Guard(source, policy.AdminOnly)
}
