// Package drafts keeps the wizards customers are filling in, keyed by id and
// owned by the session that created them.
package drafts

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweetcrumbs/storefront/internal/wizard"
)

var (
	// ErrNotFound is returned for unknown wizards and for wizards owned by
	// another session.
	ErrNotFound = errors.New("wizard not found")

	// ErrBaseCakeRequired is returned when a modify wizard is started
	// without a catalog cake.
	ErrBaseCakeRequired = errors.New("base_cake_id is required for the modify flow")

	// ErrSubmitting is returned while an order for the wizard is in flight.
	ErrSubmitting = errors.New("an order for this wizard is already being submitted")
)

// DefaultTTL is how long an untouched wizard is kept.
const DefaultTTL = 24 * time.Hour

// View is a copy of a wizard's state, safe to read after the store lock is
// released.
type View struct {
	ID             string
	Flow           string
	Step           int
	TotalSteps     int
	Position       wizard.Position
	Draft          *wizard.OrderDraft
	IdempotencyKey string
	UpdatedAt      time.Time
}

type entry struct {
	sessionID  string
	wizard     *wizard.Wizard
	key        string
	updatedAt  time.Time
	submitting bool
}

// Store holds live wizards in memory. All mutations run under one lock.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{entries: make(map[string]*entry), ttl: ttl, now: now}
}

// Create starts a wizard for flow on behalf of sessionID.
func (s *Store) Create(sessionID string, flow wizard.Flow, baseCakeID string) (View, error) {
	baseCakeID = strings.TrimSpace(baseCakeID)
	if flow.RequireBaseCake && baseCakeID == "" {
		return View{}, ErrBaseCakeRequired
	}
	w := wizard.New(flow, s.now)
	w.Draft.BaseCakeID = baseCakeID

	id := uuid.NewString()
	e := &entry{
		sessionID: sessionID,
		wizard:    w,
		key:       uuid.NewString(),
		updatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = e
	return e.view(id), nil
}

// Get returns the current state of a wizard.
func (s *Store) Get(sessionID, id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(sessionID, id)
	if err != nil {
		return View{}, err
	}
	return e.view(id), nil
}

// Update runs fn against the wizard under the store lock. The returned view
// reflects the wizard after fn, whether or not fn failed.
func (s *Store) Update(sessionID, id string, fn func(w *wizard.Wizard) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(sessionID, id)
	if err != nil {
		return View{}, err
	}
	if e.submitting {
		return e.view(id), ErrSubmitting
	}
	err = fn(e.wizard)
	e.updatedAt = s.now()
	return e.view(id), err
}

// BeginCheckout runs check against the wizard and, if it passes, marks the
// wizard as submitting. Until FinishCheckout is called every further
// BeginCheckout and Update for it fails with ErrSubmitting.
func (s *Store) BeginCheckout(sessionID, id string, check func(w *wizard.Wizard) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(sessionID, id)
	if err != nil {
		return View{}, err
	}
	if e.submitting {
		return e.view(id), ErrSubmitting
	}
	if err := check(e.wizard); err != nil {
		return e.view(id), err
	}
	e.submitting = true
	e.updatedAt = s.now()
	return e.view(id), nil
}

// FinishCheckout ends a submission started by BeginCheckout. A submitted
// wizard is discarded; otherwise it is handed back for editing. Wizards
// dropped in the meantime are ignored.
func (s *Store) FinishCheckout(sessionID, id string, submitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(sessionID, id)
	if err != nil {
		return
	}
	if submitted {
		delete(s.entries, id)
		return
	}
	e.submitting = false
	e.updatedAt = s.now()
}

// Delete discards a wizard.
func (s *Store) Delete(sessionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(sessionID, id); err != nil {
		return err
	}
	delete(s.entries, id)
	return nil
}

// DeleteSession discards every wizard owned by sessionID.
func (s *Store) DeleteSession(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.sessionID == sessionID {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Sweep drops wizards untouched for longer than the TTL.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.updatedAt.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *Store) lookup(sessionID, id string) (*entry, error) {
	e, ok := s.entries[id]
	if !ok || e.sessionID != sessionID {
		return nil, ErrNotFound
	}
	return e, nil
}

func (e *entry) view(id string) View {
	return View{
		ID:             id,
		Flow:           e.wizard.Draft.Flow.Name,
		Step:           e.wizard.Step,
		TotalSteps:     e.wizard.TotalSteps(),
		Position:       e.wizard.Position(),
		Draft:          e.wizard.Draft.Clone(),
		IdempotencyKey: e.key,
		UpdatedAt:      e.updatedAt,
	}
}
