package stub

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

var (
	errNotFound    = errors.New("not found")
	errEmailTaken  = errors.New("email already registered")
	errBadPassword = errors.New("invalid email or password")
)

type user struct {
	backend.User
	hashedPassword []byte
}

type order struct {
	backend.Order
	userID string
}

type review struct {
	backend.Review
}

// store is the stub backend's whole state, guarded by one mutex.
type store struct {
	mu sync.Mutex

	users       map[string]*user // by id
	emails      map[string]string
	cakes       map[backend.Resource]map[string]*backend.Cake
	uploads     map[string]*backend.Upload
	orders      map[string]*order
	reviews     map[string]*review
	idempotency map[string]string // key -> order id
	contacts    map[string][]time.Time
}

func newStore() *store {
	return &store{
		users:  make(map[string]*user),
		emails: make(map[string]string),
		cakes: map[backend.Resource]map[string]*backend.Cake{
			backend.ResourceGallery:   {},
			backend.ResourceReadyMade: {},
		},
		uploads:     make(map[string]*backend.Upload),
		orders:      make(map[string]*order),
		reviews:     make(map[string]*review),
		idempotency: make(map[string]string),
		contacts:    make(map[string][]time.Time),
	}
}

// --- Accounts ---

func (s *store) createUser(name, email, phone, password, role string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return nil, errEmailTaken
	}
	u := &user{
		User:           backend.User{ID: uuid.NewString(), Name: name, Email: email, Phone: phone, Role: role},
		hashedPassword: hash,
	}
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return u, nil
}

func (s *store) authenticate(email, password string) (*user, error) {
	s.mu.Lock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	var u *user
	if ok {
		u = s.users[id]
	}
	s.mu.Unlock()

	if u == nil {
		return nil, errBadPassword
	}
	if err := bcrypt.CompareHashAndPassword(u.hashedPassword, []byte(password)); err != nil {
		return nil, errBadPassword
	}
	return u, nil
}

func (s *store) userByID(id string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *store) updateUser(id string, fn func(u *user) error) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (s *store) changeEmail(id, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	if other, taken := s.emails[email]; taken && other != id {
		return errEmailTaken
	}
	delete(s.emails, u.Email)
	u.Email = email
	s.emails[email] = id
	return nil
}

// --- Catalog ---

func (s *store) addCake(res backend.Resource, c backend.Cake) backend.Cake {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	s.cakes[res][c.ID] = &c
	return c
}

func (s *store) updateCake(res backend.Resource, id string, in backend.CakeInput) (backend.Cake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cakes[res][id]
	if !ok {
		return backend.Cake{}, errNotFound
	}
	c.Name = in.Name
	c.Description = in.Description
	c.Category = in.Category
	c.Shape = in.Shape
	c.Tiers = in.Tiers
	c.Price = in.Price
	if len(in.Flavors) > 0 {
		c.Flavors = in.Flavors
	}
	return *c, nil
}

func (s *store) cake(res backend.Resource, id string) (backend.Cake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cakes[res][id]
	if !ok || c.Deleted {
		return backend.Cake{}, errNotFound
	}
	return *c, nil
}

// setDeleted flips the soft-delete flag of a cake or an upload.
func (s *store) setDeleted(res backend.Resource, id string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res == backend.ResourceUploads {
		u, ok := s.uploads[id]
		if !ok {
			return errNotFound
		}
		u.Deleted = deleted
		return nil
	}
	c, ok := s.cakes[res][id]
	if !ok {
		return errNotFound
	}
	c.Deleted = deleted
	return nil
}

func (s *store) listCakes(res backend.Resource, p backend.ListParams) backend.CakeList {
	s.mu.Lock()
	var all []backend.Cake
	for _, c := range s.cakes[res] {
		if c.Deleted != p.Deleted {
			continue
		}
		if p.Search != "" && !containsFold(c.Name, p.Search) && !containsFold(c.Category, p.Search) {
			continue
		}
		all = append(all, *c)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from, to := pageBounds(len(all), p)
	return backend.CakeList{Items: all[from:to], Total: len(all), Page: p.Page, Limit: p.Limit}
}

func (s *store) addUpload(u backend.Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = uuid.NewString()
	s.uploads[u.ID] = &u
}

func (s *store) listUploads(p backend.ListParams) backend.UploadList {
	s.mu.Lock()
	var all []backend.Upload
	for _, u := range s.uploads {
		if u.Deleted != p.Deleted {
			continue
		}
		if p.Search != "" && !containsFold(u.CustomerName, p.Search) && !containsFold(u.Note, p.Search) {
			continue
		}
		all = append(all, *u)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from, to := pageBounds(len(all), p)
	return backend.UploadList{Items: all[from:to], Total: len(all), Page: p.Page, Limit: p.Limit}
}

// --- Orders ---

// createOrder stores o unless key was already used, in which case the first
// order made with key is returned and created is false.
func (s *store) createOrder(key string, o order) (backend.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		if id, ok := s.idempotency[key]; ok {
			return s.orders[id].Order, false
		}
	}
	o.ID = uuid.NewString()
	s.orders[o.ID] = &o
	if key != "" {
		s.idempotency[key] = o.ID
	}
	return o.Order, true
}

func (s *store) orderFor(userID, id string) (order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.userID != userID {
		return order{}, errNotFound
	}
	return *o, nil
}

func (s *store) setOrderStatus(id, status string) (backend.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return backend.Order{}, errNotFound
	}
	o.Status = status
	return o.Order, nil
}

func (s *store) listOrders(p backend.ListParams) backend.OrderList {
	s.mu.Lock()
	var all []backend.Order
	for _, o := range s.orders {
		if p.Status != "" && o.Status != p.Status {
			continue
		}
		if p.Search != "" && !containsFold(o.CustomerName, p.Search) && !containsFold(o.CustomerEmail, p.Search) && !containsFold(o.ID, p.Search) {
			continue
		}
		all = append(all, o.Order)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	from, to := pageBounds(len(all), p)
	return backend.OrderList{Orders: all[from:to], Total: len(all), Page: p.Page, Limit: p.Limit}
}

func (s *store) stats() backend.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := backend.DashboardStats{TotalOrders: len(s.orders), TotalRevenue: decimal.Zero}
	for _, o := range s.orders {
		switch o.Status {
		case enum.OrderStatusPending:
			st.PendingOrders++
		case enum.OrderStatusDelivered:
			st.CompletedOrders++
		}
		if o.Status != enum.OrderStatusCancelled {
			st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		}
	}
	for _, u := range s.users {
		if u.Role == enum.UserRoleCustomer {
			st.TotalCustomers++
		}
	}
	for _, c := range s.cakes[backend.ResourceGallery] {
		if !c.Deleted {
			st.GalleryItems++
		}
	}
	for _, c := range s.cakes[backend.ResourceReadyMade] {
		if !c.Deleted {
			st.ReadyMadeCakes++
		}
	}
	return st
}

// --- Reviews ---

func (s *store) addReview(r backend.Review) backend.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.reviews[r.ID] = &review{Review: r}
	return r
}

func (s *store) listReviews(cakeID string) []backend.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []backend.Review{}
	for _, r := range s.reviews {
		if cakeID == "" || r.CakeID == cakeID {
			out = append(out, r.Review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// updateReview edits a review owned by userID. Admins may edit any review.
func (s *store) updateReview(userID string, admin bool, id string, fn func(r *backend.Review)) (backend.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || (!admin && r.UserID != userID) {
		return backend.Review{}, errNotFound
	}
	fn(&r.Review)
	return r.Review, nil
}

func (s *store) deleteReview(userID string, admin bool, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || (!admin && r.UserID != userID) {
		return errNotFound
	}
	delete(s.reviews, id)
	return nil
}

// --- Contact ---

// allowContact records a contact message from key and reports whether it is
// within limit messages per window.
func (s *store) allowContact(key string, now time.Time, limit int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := s.contacts[key][:0]
	for _, t := range s.contacts[key] {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	if len(recent) >= limit {
		s.contacts[key] = recent
		return false
	}
	s.contacts[key] = append(recent, now)
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func pageBounds(n int, p backend.ListParams) (int, int) {
	if p.Page < 1 || p.Limit < 1 {
		return 0, n
	}
	from := (p.Page - 1) * p.Limit
	if from > n {
		from = n
	}
	to := from + p.Limit
	if to > n {
		to = n
	}
	return from, to
}
