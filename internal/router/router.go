package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sweetcrumbs/storefront/internal/adminlist"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/config"
	"github.com/sweetcrumbs/storefront/internal/drafts"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/handler"
	mw "github.com/sweetcrumbs/storefront/internal/middleware"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

// Deps are the long-lived services the routes share.
type Deps struct {
	Backend   *backend.Client
	Sessions  *session.Manager
	Drafts    *drafts.Store
	Submitter *checkout.Submitter
	Hub       *ws.Hub
}

// New creates a Chi router with all application routes wired up.
// Applies session authentication and role-based middleware as needed.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	ender := handler.NewSessionEnder(deps.Sessions, deps.Drafts)

	authHandler := handler.NewAuthHandler(deps.Backend, deps.Sessions, deps.Drafts)
	authHandler.RegisterRoutes(r)

	catalogHandler := handler.NewCatalogHandler(deps.Backend)
	catalogHandler.RegisterRoutes(r)

	contactHandler := handler.NewContactHandler(deps.Backend)
	r.Route("/contact", contactHandler.RegisterRoutes)

	reviewHandler := handler.NewReviewHandler(deps.Backend, ender)
	r.Route("/reviews", func(r chi.Router) {
		reviewHandler.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(deps.Sessions))
			reviewHandler.RegisterAuthRoutes(r)
		})
	})

	// WebSocket route (handles auth internally via header or cookie)
	r.Get("/ws/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAdminOrders(deps.Hub, deps.Sessions, cfg.AllowedOrigins, w, r)
	})

	// Protected routes (require a session)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(deps.Sessions))

		authHandler.RegisterSessionRoutes(r)

		wizardHandler := handler.NewWizardHandler(deps.Drafts, deps.Submitter, deps.Backend, deps.Hub, ender)
		r.Route("/wizards", wizardHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(deps.Submitter, deps.Backend, deps.Hub, ender)
		r.Route("/orders", orderHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(deps.Backend, ender)
		r.Route("/user", profileHandler.RegisterRoutes)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			adminHandler := handler.NewAdminHandler(deps.Backend, adminlist.NewGuard(), deps.Hub, ender)
			r.Route("/admin", adminHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
