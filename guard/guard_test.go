package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miniapp-agency/portal/authstate"
	"github.com/miniapp-agency/portal/session"
)

var (
	anonymous = authstate.Snapshot{}
	member    = authstate.Snapshot{IsAuthenticated: true, Profile: &session.UserProfile{ID: "2", Email: "user@x.com"}}
	admin     = authstate.Snapshot{IsAuthenticated: true, Profile: &session.UserProfile{ID: "1", Email: "Admin@Gmail.com"}}
	noProfile = authstate.Snapshot{IsAuthenticated: true}
)

func TestGuardTable(t *testing.T) {
	policy := AdminPolicy{Email: "admin@gmail.com"}
	cases := []struct {
		name  string
		guard Func
		snap  authstate.Snapshot
		want  Decision
	}{
		{"authenticated-only anonymous", AuthenticatedOnly, anonymous, Decision{Redirect: RouteLogin}},
		{"authenticated-only member", AuthenticatedOnly, member, Decision{Allow: true}},
		{"authenticated-only no profile", AuthenticatedOnly, noProfile, Decision{Allow: true}},
		{"anonymous-only anonymous", AnonymousOnly, anonymous, Decision{Allow: true}},
		{"anonymous-only member", AnonymousOnly, member, Decision{Redirect: RouteHome}},
		{"admin-only anonymous", policy.AdminOnly, anonymous, Decision{Redirect: RouteLogin}},
		{"admin-only member", policy.AdminOnly, member, Decision{Redirect: RouteHome}},
		{"admin-only mixed case admin", policy.AdminOnly, admin, Decision{Allow: true}},
		{"admin-only no profile", policy.AdminOnly, noProfile, Decision{Redirect: RouteHome}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.guard(tc.snap))
		})
	}
}

func TestAdminPolicyFailsClosed(t *testing.T) {
	empty := AdminPolicy{}
	require.False(t, empty.IsAdmin(admin))
	require.Equal(t, Decision{Redirect: RouteHome}, empty.AdminOnly(admin))

	spaced := AdminPolicy{Email: "  ADMIN@gmail.com "}
	require.True(t, spaced.IsAdmin(admin))

	// An admin profile without the authenticated flag is not trusted.
	stale := authstate.Snapshot{Profile: admin.Profile}
	require.False(t, spaced.IsAdmin(stale))
	require.Equal(t, Decision{Redirect: RouteLogin}, spaced.AdminOnly(stale))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(member, AuthenticatedOnly))

	err := Check(anonymous, AuthenticatedOnly)
	require.True(t, errors.Is(err, ErrRedirect))
	require.Contains(t, err.Error(), RouteLogin)

	err = Check(member, AnonymousOnly)
	require.ErrorIs(t, err, ErrRedirect)
	require.Contains(t, err.Error(), ": "+RouteHome)

	require.ErrorIs(t, Check(member, nil), ErrRedirect)
	require.ErrorIs(t, Check(member, func(authstate.Snapshot) Decision { return Decision{} }), ErrRedirect)
}
