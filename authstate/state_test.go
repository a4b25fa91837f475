package authstate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miniapp-agency/portal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(session.NewMemoryStorage(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestZeroValueIsAnonymous(t *testing.T) {
	var s State
	snap := s.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Nil(t, snap.Profile)
	require.Equal(t, "", snap.Email())
}

func TestLoadFromStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	s := New()
	require.False(t, s.Load(ctx, store).IsAuthenticated)

	require.NoError(t, store.Save(ctx, "tok123", &session.UserProfile{ID: "1", Email: "a@b.com"}))
	snap := s.Load(ctx, store)
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "a@b.com", snap.Email())
}

func TestLoadTokenWithoutProfile(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.WriteToken(ctx, "tok"))

	snap := New().Load(ctx, store)
	require.True(t, snap.IsAuthenticated)
	require.Nil(t, snap.Profile)
}

func TestSignInSignOut(t *testing.T) {
	s := New()
	p := &session.UserProfile{ID: "7", Email: "x@y.z"}
	s.SignIn(p)

	p.Email = "mutated@y.z"
	snap := s.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "x@y.z", snap.Email())

	snap.Profile.Email = "also-mutated"
	require.Equal(t, "x@y.z", s.Snapshot().Email())

	s.SignOut()
	snap = s.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Nil(t, snap.Profile)
}

func TestSetProfileKeepsFlag(t *testing.T) {
	s := New()
	s.SetProfile(&session.UserProfile{Email: "a@b.com"})
	require.False(t, s.Snapshot().IsAuthenticated)

	s.SignIn(nil)
	s.SetProfile(&session.UserProfile{Email: "a@b.com"})
	snap := s.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "a@b.com", snap.Email())
}

func TestSubscribe(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe(4)

	s.SignIn(&session.UserProfile{Email: "a@b.com"})
	s.SignOut()

	first := <-ch
	require.True(t, first.IsAuthenticated)
	second := <-ch
	require.False(t, second.IsAuthenticated)

	cancel()
	cancel()
	_, open := <-ch
	require.False(t, open)

	s.SignIn(nil)
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe(1)
	defer cancel()

	s.SignIn(nil)
	s.SetProfile(&session.UserProfile{Email: "a@b.com"})
	s.SignOut()

	latest := <-ch
	require.False(t, latest.IsAuthenticated)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected snapshot %+v", extra)
	default:
	}
}

func TestConcurrentMutationsPublishInOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := New()
		ch, cancel := s.Subscribe(1)

		var wg sync.WaitGroup
		for g := 0; g < 16; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				if g%2 == 0 {
					s.SignIn(&session.UserProfile{Email: "a@b.com"})
				} else {
					s.SignOut()
				}
			}(g)
		}
		wg.Wait()

		latest := <-ch
		require.Equal(t, s.Snapshot().IsAuthenticated, latest.IsAuthenticated)
		cancel()
	}
}
