// Package session holds the logged-in user's credential for the gateway.
//
// A Session is created once at login and read back through Manager.Current by
// every request that needs it. Invalidate is the only way a session ends; it
// drops the token and the cached user together.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sweetcrumbs/storefront/internal/auth"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

var (
	// ErrUnauthenticated means no session was presented or it is unknown.
	ErrUnauthenticated = errors.New("please log in to continue")

	// ErrExpired means the session or its backend token is past its expiry.
	ErrExpired = errors.New("session expired, please log in again")

	// ErrNotFound is returned by stores for unknown ids.
	ErrNotFound = errors.New("session not found")
)

// DefaultTTL bounds a session when the backend token carries no expiry.
const DefaultTTL = 12 * time.Hour

// Session is a logged-in user and the backend token issued for them.
type Session struct {
	ID        string
	Token     string
	User      backend.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the user may use the admin surface.
func (s *Session) IsAdmin() bool {
	return s.User.Role == enum.UserRoleAdmin
}

// Store persists sessions. Satisfied by *MemoryStore and *PostgresStore.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Manager is the single read and invalidate path for sessions.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a Manager. A non-positive ttl uses DefaultTTL; a nil now
// uses time.Now.
func NewManager(store Store, ttl time.Duration, now func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, ttl: ttl, now: now}
}

// Start stores a new session for a successful login. The session never
// outlives the backend token when the token's expiry is readable.
func (m *Manager) Start(ctx context.Context, token string, user backend.User) (*Session, error) {
	if token == "" {
		return nil, errors.New("empty backend token")
	}
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	if exp, err := auth.ExpiresAt(token); err == nil && exp.Before(expires) {
		expires = exp.UTC()
	}
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the live session for id. An expired session is removed
// before ErrExpired is returned.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrUnauthenticated
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !m.now().Before(s.ExpiresAt) {
		if err := m.Invalidate(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	return s, nil
}

// Invalidate ends the session. Unknown ids are not an error.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Sweep removes every expired session and returns how many were dropped.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, logf func(string, ...any)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				logf("session sweep: %v", err)
				continue
			}
			if n > 0 {
				logf("session sweep: removed %d expired sessions", n)
			}
		}
	}
}
