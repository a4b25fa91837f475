package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// TokenKey is the storage key holding the bearer access token.
	TokenKey = "access_token"
	// ProfileKey is the storage key holding the JSON-serialized profile.
	ProfileKey = "profile"
)

// Store is the persisted session: one access token and one cached profile,
// kept in a [Storage].
//
// Read operations never fail. A backend error or a corrupt value is logged
// and reported as absent, which is what an unauthenticated client would see
// anyway.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// NewStore wraps storage. A nil logger falls back to slog.Default().
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Storage returns the underlying backend.
func (s *Store) Storage() Storage {
	return s.storage
}

// ReadToken returns the stored token or "".
func (s *Store) ReadToken(ctx context.Context) string {
	v, ok, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		s.logger.WarnContext(ctx, "session: token read failed", slog.String("error", err.Error()))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// WriteToken stores token verbatim. An empty token is the same as ClearToken.
func (s *Store) WriteToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	return s.storage.Set(ctx, TokenKey, token)
}

// ClearToken removes the stored token. Clearing an absent token succeeds.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.storage.Remove(ctx, TokenKey)
}

// ReadProfile returns the cached profile, or nil when it is missing or cannot
// be parsed.
func (s *Store) ReadProfile(ctx context.Context) *UserProfile {
	raw, ok, err := s.storage.Get(ctx, ProfileKey)
	if err != nil {
		s.logger.WarnContext(ctx, "session: profile read failed", slog.String("error", err.Error()))
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	p, err := DecodeProfile(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "session: discarding malformed profile", slog.String("error", err.Error()))
		return nil
	}
	return p
}

// WriteProfile caches p. A nil profile clears the cache.
func (s *Store) WriteProfile(ctx context.Context, p *UserProfile) error {
	if p == nil {
		return s.ClearProfile(ctx)
	}
	encoded, err := EncodeProfile(p)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, ProfileKey, encoded)
}

// ClearProfile removes the cached profile.
func (s *Store) ClearProfile(ctx context.Context) error {
	return s.storage.Remove(ctx, ProfileKey)
}

// Save writes the token first and the profile second. Callers that gate
// protected routes on the result can rely on both being durable once Save
// returns nil. If the profile write fails the token is removed again.
func (s *Store) Save(ctx context.Context, token string, p *UserProfile) error {
	if err := s.WriteToken(ctx, token); err != nil {
		return err
	}
	if err := s.WriteProfile(ctx, p); err != nil {
		if rbErr := s.ClearToken(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback token: %w", rbErr))
		}
		return err
	}
	return nil
}

// Clear removes both keys. It is idempotent and attempts both removals even
// if the first one fails.
func (s *Store) Clear(ctx context.Context) error {
	tokenErr := s.ClearToken(ctx)
	profileErr := s.ClearProfile(ctx)
	if tokenErr != nil {
		return tokenErr
	}
	return profileErr
}
