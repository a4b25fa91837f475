package authstate

import (
	"context"
	"sync"

	"github.com/miniapp-agency/portal/session"
)

// Snapshot is an immutable view of the auth context.
type Snapshot struct {
	IsAuthenticated bool
	Profile         *session.UserProfile
}

// Email returns the profile email, or "" without a profile.
func (s Snapshot) Email() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Email
}

// State is the mutable auth context. The zero value is unauthenticated and
// ready to use.
type State struct {
	mu      sync.RWMutex
	authed  bool
	profile *session.UserProfile

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
}

// New returns an unauthenticated State.
func New() *State {
	return &State{}
}

// Load initializes the state from the persisted session. A stored token is
// trusted optimistically; the backend rejects it later if it has expired.
func (s *State) Load(ctx context.Context, store *session.Store) Snapshot {
	if store == nil {
		return s.Snapshot()
	}
	token := store.ReadToken(ctx)
	profile := store.ReadProfile(ctx)
	s.set(token != "", profile)
	return s.Snapshot()
}

// Snapshot returns the current view. The profile is a copy.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{IsAuthenticated: s.authed, Profile: s.profile.Clone()}
}

// SignIn marks the user authenticated with profile (which may be nil until
// the first profile fetch).
func (s *State) SignIn(profile *session.UserProfile) {
	s.set(true, profile)
}

// SetProfile replaces the cached profile without touching the flag.
func (s *State) SetProfile(profile *session.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile.Clone()
	s.publish(Snapshot{IsAuthenticated: s.authed, Profile: s.profile.Clone()})
}

// SignOut resets to unauthenticated with no profile.
func (s *State) SignOut() {
	s.set(false, nil)
}

func (s *State) set(authed bool, profile *session.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = authed
	s.profile = profile.Clone()
	// Published under mu so subscribers see mutations in order.
	s.publish(Snapshot{IsAuthenticated: s.authed, Profile: s.profile.Clone()})
}

// Subscribe returns a channel receiving every snapshot published after the
// call, and a cancel func that closes it. A subscriber that does not keep up
// misses intermediate snapshots; the latest one is always delivered.
func (s *State) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]chan Snapshot)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *State) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		for {
			select {
			case ch <- snap:
			default:
				// Full: drop the oldest so the newest wins.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
