// Package session keeps authenticated dashboard sessions.
// A session is issued once the external auth service has verified the user
// and is looked up by its bearer token on every request.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/pkg/redis"
)

// Session is the authenticated user behind a token
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether s is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Backend persists sessions. *redis.Cache satisfies it.
type Backend interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Identity is what the auth service vouches for at login
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Manager issues, loads and clears sessions
type Manager struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// NewManager creates a session manager. now may be nil.
func NewManager(backend Backend, ttl time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{backend: backend, ttl: ttl, now: now}
}

// Login issues a new session for id
func (m *Manager) Login(ctx context.Context, id Identity) (*Session, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", contracts.ErrInvalidArgument)
	}

	now := m.now().UTC()
	s := &Session{
		Token:     uuid.NewString(),
		UserID:    id.UserID,
		Email:     id.Email,
		FullName:  id.FullName,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save persists s until its expiry
func (m *Manager) Save(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", contracts.ErrInvalidArgument)
	}
	if err := m.backend.Set(ctx, redis.SessionKey(s.Token), s, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the session of token. Unknown or expired tokens yield ErrUnauthorized.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", contracts.ErrUnauthorized)
	}

	var s Session
	found, err := m.backend.Get(ctx, redis.SessionKey(token), &s)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: unknown session", contracts.ErrUnauthorized)
	}
	if s.Expired(m.now()) {
		_ = m.backend.Delete(ctx, redis.SessionKey(token))
		return nil, fmt.Errorf("%w: session expired", contracts.ErrUnauthorized)
	}
	return &s, nil
}

// Clear ends the session of token (logout)
func (m *Manager) Clear(ctx context.Context, token string) error {
	if err := m.backend.Delete(ctx, redis.SessionKey(token)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
