// Package stub is an in-memory stand-in for the remote cake-shop REST API,
// used for local development and end-to-end tests of the gateway. It speaks
// the same JSON shapes and error envelopes as the real backend.
package stub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumbs/storefront/internal/auth"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

// Contact messages allowed per sender per window before 429.
const (
	contactLimit  = 3
	contactWindow = 10 * time.Minute
)

// ChatNumber is the shop's messaging number used in order chat links.
const ChatNumber = "15550100200"

// Server serves the stub API.
type Server struct {
	store    *store
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

// New creates an empty stub backend signing tokens with secret.
func New(secret string, tokenTTL time.Duration, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{store: newStore(), secret: secret, tokenTTL: tokenTTL, now: now}
}

// SeedAdmin creates the admin account.
func (s *Server) SeedAdmin(name, email, password string) error {
	_, err := s.store.createUser(name, email, "", password, enum.UserRoleAdmin)
	return err
}

// SeedCatalog adds a few gallery and ready-made cakes.
func (s *Server) SeedCatalog() {
	now := s.now().UTC()
	gallery := []backend.Cake{
		{Name: "Rose Garden", Category: "Wedding", Shape: string(enum.ShapeCircle), Tiers: 3, Price: decimal.RequireFromString("180")},
		{Name: "Chocolate Tower", Category: "Birthday", Shape: string(enum.ShapeSquare), Tiers: 2, Price: decimal.RequireFromString("95")},
	}
	for i, c := range gallery {
		c.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		c.ImageURL = "/images/gallery/" + slug(c.Name) + ".jpg"
		s.store.addCake(backend.ResourceGallery, c)
	}

	readyMade := []struct {
		cake    backend.Cake
		flavors []string
	}{
		{backend.Cake{Name: "Lemon Drizzle", Shape: string(enum.ShapeCircle), Tiers: 1, Price: decimal.RequireFromString("24.5")}, []string{"Lemon"}},
		{backend.Cake{Name: "Neapolitan", Shape: string(enum.ShapeRectangle), Tiers: 1, Price: decimal.RequireFromString("32")}, []string{"Vanilla", "Chocolate", "Strawberry"}},
	}
	for i, rm := range readyMade {
		c := rm.cake
		c.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		c.ImageURL = "/images/ready-made/" + slug(c.Name) + ".jpg"
		c.Flavors = evenFlavors(rm.flavors)
		s.store.addCake(backend.ResourceReadyMade, c)
	}
}

// Routes returns the stub API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", s.login)
	r.Post("/auth/signup", s.signup)
	r.Post("/auth/forgot-password", s.forgotPassword)

	r.Get("/cakes/ready-made", s.listPublic(backend.ResourceReadyMade))
	r.Get("/cakes/modify", s.listPublic(backend.ResourceGallery))
	r.Get("/reviews", s.listReviews)
	r.Post("/contact", s.contact)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/cakes/custom/calculate-price", s.calculatePrice)

		r.Post("/orders/custom-cake", s.createTieredOrder(enum.OrderTypeCustom))
		r.Post("/orders/modify-cake", s.createTieredOrder(enum.OrderTypeModify))
		r.Post("/orders/ready-made", s.createReadyMadeOrder)
		r.Post("/orders/{id}/reorder", s.reorder)

		r.Post("/reviews", s.createReview)
		r.Put("/reviews/{id}", s.updateReview)
		r.Delete("/reviews/{id}", s.deleteReview)

		r.Get("/user/profile", s.profile)
		r.Put("/user/profile", s.updateProfile)
		r.Post("/user/profile/picture", s.uploadPicture)
		r.Put("/user/settings/email", s.updateEmail)
		r.Put("/user/settings/password", s.updatePassword)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/dashboard/stats", s.dashboardStats)
			r.Get("/orders", s.listOrders)
			r.Put("/orders/{id}/status", s.updateOrderStatus)
			r.Get("/{resource}", s.adminList)
			r.Post("/{resource}", s.adminCreate)
			r.Put("/{resource}/{id}", s.adminUpdate)
			r.Delete("/{resource}/{id}", s.adminSetDeleted(true))
			r.Put("/{resource}/{id}/recover", s.adminSetDeleted(false))
		})
	})

	return r
}

// --- Auth middleware ---

type contextKey string

const claimsKey contextKey = "claims"

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		claims, err := auth.ValidateToken(s.secret, parts[1])
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token expired or invalid")
			return
		}
		if _, err := s.store.userByID(claims.UserID.String()); err != nil {
			writeMessage(w, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r).Role != enum.UserRoleAdmin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return c
}

func (s *Server) issueToken(u *user) (string, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return "", err
	}
	return auth.GenerateToken(s.secret, id, u.Email, u.Role, s.tokenTTL)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeFieldErrors answers 422 with the validation envelope.
func writeFieldErrors(w http.ResponseWriter, errs []backend.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": "Validation failed",
		"errors":  errs,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func listParams(r *http.Request) backend.ListParams {
	q := r.URL.Query()
	p := backend.ListParams{
		Status:  q.Get("status"),
		Search:  q.Get("search"),
		Deleted: q.Get("deleted") == "true",
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func evenFlavors(names []string) []backend.FlavorShare {
	shares := checkout.EvenShares(len(names))
	out := make([]backend.FlavorShare, len(names))
	for i, n := range names {
		out[i] = backend.FlavorShare{Name: n, Percentage: shares[i]}
	}
	return out
}
