package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
)

// CatalogAPI lists the public cake catalog.
// Satisfied by *backend.Client; narrow interface for testability.
type CatalogAPI interface {
	ReadyMadeCakes(ctx context.Context) ([]backend.Cake, error)
	ModifyCakes(ctx context.Context) ([]backend.Cake, error)
}

// CatalogHandler serves the public catalog.
type CatalogHandler struct {
	api CatalogAPI
}

func NewCatalogHandler(api CatalogAPI) *CatalogHandler {
	return &CatalogHandler{api: api}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cakes/ready-made", h.ReadyMade)
	r.Get("/cakes/modify", h.Modify)
}

type flavorShareResponse struct {
	Name          string `json:"name"`
	Percentage    string `json:"percentage"`
	Special       string `json:"special,omitempty"`
	Specification string `json:"specification,omitempty"`
}

type cakeResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category,omitempty"`
	Shape       string                `json:"shape,omitempty"`
	Tiers       int                   `json:"tiers,omitempty"`
	Flavors     []flavorShareResponse `json:"flavors"`
	Price       string                `json:"price"`
	ImageURL    string                `json:"image_url,omitempty"`
	Deleted     bool                  `json:"deleted,omitempty"`
	CreatedAt   *time.Time            `json:"created_at,omitempty"`
}

// ReadyMade handles GET /cakes/ready-made.
func (h *CatalogHandler) ReadyMade(w http.ResponseWriter, r *http.Request) {
	cakes, err := h.api.ReadyMadeCakes(r.Context())
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, toCakeResponses(cakes))
}

// Modify handles GET /cakes/modify.
func (h *CatalogHandler) Modify(w http.ResponseWriter, r *http.Request) {
	cakes, err := h.api.ModifyCakes(r.Context())
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, toCakeResponses(cakes))
}

func toCakeResponses(cakes []backend.Cake) []cakeResponse {
	out := make([]cakeResponse, len(cakes))
	for i, c := range cakes {
		out[i] = toCakeResponse(c)
	}
	return out
}

func toCakeResponse(c backend.Cake) cakeResponse {
	flavors := make([]flavorShareResponse, len(c.Flavors))
	for i, f := range c.Flavors {
		flavors[i] = flavorShareResponse{
			Name:          f.Name,
			Percentage:    f.Percentage.StringFixed(2),
			Special:       f.Special,
			Specification: f.Specification,
		}
	}
	resp := cakeResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Shape:       c.Shape,
		Tiers:       c.Tiers,
		Flavors:     flavors,
		Price:       c.Price.StringFixed(2),
		ImageURL:    c.ImageURL,
		Deleted:     c.Deleted,
	}
	if !c.CreatedAt.IsZero() {
		created := c.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
