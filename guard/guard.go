package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miniapp-agency/portal/authstate"
)

const (
	// RouteLogin is where unauthenticated users are sent.
	RouteLogin = "/login"
	// RouteHome is where users go after login, and where forbidden or
	// already-authenticated users are sent.
	RouteHome = "/"
)

// ErrRedirect is wrapped by [Check] when a guard denies access.
var ErrRedirect = errors.New("guard: redirect")

// Decision is the outcome of a guard. Redirect is set iff Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

// Func is a route guard.
type Func func(authstate.Snapshot) Decision

func allow() Decision { return Decision{Allow: true} }

func redirect(to string) Decision { return Decision{Redirect: to} }

// AuthenticatedOnly allows signed-in users and sends everyone else to login.
func AuthenticatedOnly(s authstate.Snapshot) Decision {
	if s.IsAuthenticated {
		return allow()
	}
	return redirect(RouteLogin)
}

// AnonymousOnly allows signed-out users and sends signed-in users home.
func AnonymousOnly(s authstate.Snapshot) Decision {
	if s.IsAuthenticated {
		return redirect(RouteHome)
	}
	return allow()
}

// AdminPolicy identifies the administrator by email.
type AdminPolicy struct {
	Email string
}

// IsAdmin reports whether s belongs to the administrator. Emails compare
// case-insensitively; an empty policy email matches nobody.
func (p AdminPolicy) IsAdmin(s authstate.Snapshot) bool {
	admin := strings.TrimSpace(p.Email)
	if !s.IsAuthenticated || s.Profile == nil || admin == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Profile.Email), admin)
}

// AdminOnly allows the administrator. Anonymous users go to login, other
// signed-in users (including ones whose profile is not loaded yet) go home.
func (p AdminPolicy) AdminOnly(s authstate.Snapshot) Decision {
	if !s.IsAuthenticated {
		return redirect(RouteLogin)
	}
	if p.IsAdmin(s) {
		return allow()
	}
	return redirect(RouteHome)
}

// Check runs g against s and converts a denial into an error wrapping
// [ErrRedirect]. A nil guard denies.
func Check(s authstate.Snapshot, g Func) error {
	if g == nil {
		return fmt.Errorf("%w: %s", ErrRedirect, RouteLogin)
	}
	d := g(s)
	if d.Allow {
		return nil
	}
	to := d.Redirect
	if to == "" {
		to = RouteLogin
	}
	return fmt.Errorf("%w: %s", ErrRedirect, to)
}
