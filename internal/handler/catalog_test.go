package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/handler"
)

type mockCatalogAPI struct {
	readyMadeFn func(ctx context.Context) ([]backend.Cake, error)
	modifyFn    func(ctx context.Context) ([]backend.Cake, error)
}

func (m *mockCatalogAPI) ReadyMadeCakes(ctx context.Context) ([]backend.Cake, error) {
	return m.readyMadeFn(ctx)
}

func (m *mockCatalogAPI) ModifyCakes(ctx context.Context) ([]backend.Cake, error) {
	return m.modifyFn(ctx)
}

type mockReviewAPI struct {
	listFn   func(ctx context.Context, cakeID string) ([]backend.Review, error)
	createFn func(ctx context.Context, token string, in backend.ReviewInput) (*backend.Review, error)
	updateFn func(ctx context.Context, token, id string, in backend.ReviewInput) (*backend.Review, error)
	deleteFn func(ctx context.Context, token, id string) error
}

func (m *mockReviewAPI) Reviews(ctx context.Context, cakeID string) ([]backend.Review, error) {
	return m.listFn(ctx, cakeID)
}

func (m *mockReviewAPI) CreateReview(ctx context.Context, token string, in backend.ReviewInput) (*backend.Review, error) {
	return m.createFn(ctx, token, in)
}

func (m *mockReviewAPI) UpdateReview(ctx context.Context, token, id string, in backend.ReviewInput) (*backend.Review, error) {
	return m.updateFn(ctx, token, id, in)
}

func (m *mockReviewAPI) DeleteReview(ctx context.Context, token, id string) error {
	return m.deleteFn(ctx, token, id)
}

type mockContactAPI struct {
	sendFn func(ctx context.Context, msg backend.ContactMessage) error
}

func (m *mockContactAPI) SendContactMessage(ctx context.Context, msg backend.ContactMessage) error {
	return m.sendFn(ctx, msg)
}

func TestCatalog_ReadyMade(t *testing.T) {
	api := &mockCatalogAPI{
		readyMadeFn: func(context.Context) ([]backend.Cake, error) {
			return []backend.Cake{{
				ID:    "c-1",
				Name:  "Choco Dream",
				Price: decimal.RequireFromString("25"),
				Flavors: []backend.FlavorShare{
					{Name: "Chocolate", Percentage: decimal.RequireFromString("100")},
				},
				CreatedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	r := chi.NewRouter()
	handler.NewCatalogHandler(api).RegisterRoutes(r)

	rr := sendJSON(t, r, http.MethodGet, "/cakes/ready-made", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{
		"id": "c-1",
		"name": "Choco Dream",
		"flavors": [{"name": "Chocolate", "percentage": "100.00"}],
		"price": "25.00",
		"created_at": "2026-09-01T00:00:00Z"
	}]`, rr.Body.String())
}

func TestCatalog_BackendDown(t *testing.T) {
	api := &mockCatalogAPI{
		modifyFn: func(context.Context) ([]backend.Cake, error) {
			return nil, &backend.APIError{Message: "connection refused"}
		},
	}
	r := chi.NewRouter()
	handler.NewCatalogHandler(api).RegisterRoutes(r)

	rr := sendJSON(t, r, http.MethodGet, "/cakes/modify", nil)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "The cake shop is unavailable, please try again later", decodeResponse(t, rr)["error"])
}

func setupReviewRouter(api *mockReviewAPI, sessions *mockSessions) *chi.Mux {
	h := handler.NewReviewHandler(api, sessions)
	r := chi.NewRouter()
	r.Route("/reviews", func(r chi.Router) {
		h.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(withSession(customerSession()))
			h.RegisterAuthRoutes(r)
		})
	})
	return r
}

func TestReviews_ListIsPublic(t *testing.T) {
	api := &mockReviewAPI{
		listFn: func(_ context.Context, cakeID string) ([]backend.Review, error) {
			assert.Equal(t, "c-1", cakeID)
			return []backend.Review{{ID: "r-1", Rating: 5, Comment: "Lovely"}}, nil
		},
	}
	rr := sendJSON(t, setupReviewRouter(api, &mockSessions{}), http.MethodGet, "/reviews?cake_id=c-1", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"comment":"Lovely"`)
}

func TestReviews_CreateValidation(t *testing.T) {
	router := setupReviewRouter(&mockReviewAPI{}, &mockSessions{})

	rr := postJSON(t, router, "/reviews", map[string]interface{}{"cake_id": "c-1", "rating": 6, "comment": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, router, "/reviews", map[string]interface{}{"rating": 4, "comment": "nice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReviews_DeleteExpiredSession(t *testing.T) {
	api := &mockReviewAPI{
		deleteFn: func(context.Context, string, string) error { return backend.ErrSessionExpired },
	}
	sessions := &mockSessions{}
	rr := sendJSON(t, setupReviewRouter(api, sessions), http.MethodDelete, "/reviews/r-1", nil)

	assertLoginRedirect(t, rr)
	assert.Equal(t, []string{"sess-1"}, sessions.invalidatedIDs())
}

func TestContact_RateLimited(t *testing.T) {
	api := &mockContactAPI{
		sendFn: func(context.Context, backend.ContactMessage) error { return backend.ErrRateLimited },
	}
	r := chi.NewRouter()
	r.Route("/contact", handler.NewContactHandler(api).RegisterRoutes)

	rr := postJSON(t, r, "/contact", map[string]string{"name": "Ana", "email": "ana@example.com", "message": "Hi"})

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many requests, please try again later", decodeResponse(t, rr)["error"])
}

func TestContact_Sent(t *testing.T) {
	var got backend.ContactMessage
	api := &mockContactAPI{
		sendFn: func(_ context.Context, msg backend.ContactMessage) error {
			got = msg
			return nil
		},
	}
	r := chi.NewRouter()
	r.Route("/contact", handler.NewContactHandler(api).RegisterRoutes)

	rr := postJSON(t, r, "/contact", map[string]string{"name": " Ana ", "email": "ana@example.com", "subject": "Order", "message": "Hi there"})

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, backend.ContactMessage{Name: "Ana", Email: "ana@example.com", Subject: "Order", Message: "Hi there"}, got)
}

func TestContact_InvalidEmail(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/contact", handler.NewContactHandler(&mockContactAPI{}).RegisterRoutes)

	rr := postJSON(t, r, "/contact", map[string]string{"name": "Ana", "email": "nope", "message": "Hi"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
