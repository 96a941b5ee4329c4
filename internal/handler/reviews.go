package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
)

// ReviewAPI is the part of the backend client used for cake reviews.
// Satisfied by *backend.Client; narrow interface for testability.
type ReviewAPI interface {
	Reviews(ctx context.Context, cakeID string) ([]backend.Review, error)
	CreateReview(ctx context.Context, token string, in backend.ReviewInput) (*backend.Review, error)
	UpdateReview(ctx context.Context, token, id string, in backend.ReviewInput) (*backend.Review, error)
	DeleteReview(ctx context.Context, token, id string) error
}

type ReviewHandler struct {
	api      ReviewAPI
	sessions SessionInvalidator
}

func NewReviewHandler(api ReviewAPI, sessions SessionInvalidator) *ReviewHandler {
	return &ReviewHandler{api: api, sessions: sessions}
}

// RegisterRoutes registers the public review listing at /reviews.
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterAuthRoutes registers the review endpoints that need a session.
func (h *ReviewHandler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type reviewRequest struct {
	CakeID  string `json:"cake_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	CakeID    string    `json:"cake_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// List handles GET /reviews?cake_id=...
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.api.Reviews(r.Context(), strings.TrimSpace(r.URL.Query().Get("cake_id")))
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	resp := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		resp[i] = toReviewResponse(rv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	in, ok := decodeReview(w, r)
	if !ok {
		return
	}
	if in.CakeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cake_id is required"})
		return
	}
	rv, err := h.api.CreateReview(r.Context(), sess.Token, in)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(*rv))
}

// Update handles PUT /reviews/{id}.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	in, ok := decodeReview(w, r)
	if !ok {
		return
	}
	rv, err := h.api.UpdateReview(r.Context(), sess.Token, chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(*rv))
}

// Delete handles DELETE /reviews/{id}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	if err := h.api.DeleteReview(r.Context(), sess.Token, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeReview(w http.ResponseWriter, r *http.Request) (backend.ReviewInput, bool) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return backend.ReviewInput{}, false
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
		return backend.ReviewInput{}, false
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "comment is required"})
		return backend.ReviewInput{}, false
	}
	return backend.ReviewInput{CakeID: strings.TrimSpace(req.CakeID), Rating: req.Rating, Comment: comment}, true
}

func toReviewResponse(rv backend.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		CakeID:    rv.CakeID,
		UserName:  rv.UserName,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}
