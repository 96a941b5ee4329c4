package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweetcrumbs/storefront/internal/auth"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/session"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newManager(t *testing.T) (*session.Manager, *session.MemoryStore, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStore()
	return session.NewManager(store, time.Hour, c.now), store, c
}

var ana = backend.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: "customer"}

func TestStartAndCurrent(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	s, err := m.Start(ctx, "opaque-token", ana)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected session id")
	}

	got, err := m.Current(ctx, s.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.Token != "opaque-token" || got.User.Email != ana.Email {
		t.Errorf("got %+v", got)
	}
	if got.IsAdmin() {
		t.Error("customer reported as admin")
	}
}

func TestCurrentUnknownOrEmpty(t *testing.T) {
	m, _, _ := newManager(t)
	for _, id := range []string{"", "missing"} {
		if _, err := m.Current(context.Background(), id); !errors.Is(err, session.ErrUnauthenticated) {
			t.Errorf("Current(%q): got %v, want ErrUnauthenticated", id, err)
		}
	}
}

func TestCurrentExpiredInvalidates(t *testing.T) {
	m, store, c := newManager(t)
	ctx := context.Background()

	s, err := m.Start(ctx, "opaque-token", ana)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	c.t = c.t.Add(time.Hour)
	if _, err := m.Current(ctx, s.ID); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expired session still stored: %v", err)
	}
	if _, err := m.Current(ctx, s.ID); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("second read: got %v, want ErrUnauthenticated", err)
	}
}

func TestStartCapsExpiryAtTokenExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	m := session.NewManager(store, 24*time.Hour, nil)

	token, err := auth.GenerateToken("k", uuid.New(), ana.Email, ana.Role, 10*time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	s, err := m.Start(context.Background(), token, ana)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if d := time.Until(s.ExpiresAt); d > 11*time.Minute {
		t.Errorf("session outlives token: expires in %v", d)
	}
}

func TestInvalidate(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	s, _ := m.Start(ctx, "tok", ana)
	if err := m.Invalidate(ctx, s.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := m.Current(ctx, s.ID); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
	if err := m.Invalidate(ctx, s.ID); err != nil {
		t.Errorf("second invalidate: %v", err)
	}
}

func TestSweep(t *testing.T) {
	m, _, c := newManager(t)
	ctx := context.Background()

	old, _ := m.Start(ctx, "tok-1", ana)
	c.t = c.t.Add(30 * time.Minute)
	fresh, _ := m.Start(ctx, "tok-2", ana)
	c.t = c.t.Add(45 * time.Minute)

	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("removed: got %d, want 1", n)
	}
	if _, err := m.Current(ctx, old.ID); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("old session: got %v", err)
	}
	if _, err := m.Current(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session: %v", err)
	}
}

func TestStartRejectsEmptyToken(t *testing.T) {
	m, _, _ := newManager(t)
	if _, err := m.Start(context.Background(), "", ana); err == nil {
		t.Fatal("expected error for empty token")
	}
}
