package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopping-assistant/internal/common/storage"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenKey = "token"
	UserKey  = "user"
)

// Session holds the single bearer credential and the cached user profile in
// client-local storage.
type Session struct {
	store storage.Store
	now   func() time.Time

	mu     sync.RWMutex
	cached *string // nil until first load
}

func NewSession(store storage.Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Token returns the stored credential, or "" when none is held. A JWT whose exp
// claim has passed is evicted here rather than sent to the server.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.cached != nil {
		tok := *s.cached
		s.mu.RUnlock()
		if tok != "" && s.expired(tok) {
			return "", s.Evict(ctx)
		}
		return tok, nil
	}
	s.mu.RUnlock()

	tok, err := s.store.Get(ctx, TokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		tok, err = "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	s.mu.Lock()
	s.cached = &tok
	s.mu.Unlock()

	if tok != "" && s.expired(tok) {
		return "", s.Evict(ctx)
	}
	return tok, nil
}

// expired reports whether tok is a JWT with an exp claim in the past. Opaque
// tokens are never considered expired locally.
func (s *Session) expired(tok string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(s.now())
}

// IsAuthenticated reports whether a usable credential is held.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// Establish stores the credential and the user profile returned by login or
// registration.
func (s *Session) Establish(ctx context.Context, token string, user interface{}) error {
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	s.mu.Lock()
	s.cached = &token
	s.mu.Unlock()

	if user == nil {
		return nil
	}
	return s.SaveUser(ctx, user)
}

func (s *Session) SaveUser(ctx context.Context, user interface{}) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// LoadUser decodes the cached profile into out. It returns false when none is
// cached.
func (s *Session) LoadUser(ctx context.Context, out interface{}) (bool, error) {
	raw, err := s.store.Get(ctx, UserKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode user: %w", err)
	}
	return true, nil
}

// Evict discards the credential and the cached profile.
func (s *Session) Evict(ctx context.Context) error {
	empty := ""
	s.mu.Lock()
	s.cached = &empty
	s.mu.Unlock()

	if err := s.store.Del(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("evict credential: %w", err)
	}
	return nil
}
