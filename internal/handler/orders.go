package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/wizard"
)

// Reorderer repeats a past order.
// Satisfied by *backend.Client.
type Reorderer interface {
	Reorder(ctx context.Context, token, orderID string) (*backend.OrderResult, error)
}

// OrderHandler handles the orders placed outside the wizard.
type OrderHandler struct {
	submitter OrderSubmitter
	api       Reorderer
	hub       Broadcaster
	sessions  SessionInvalidator
}

func NewOrderHandler(submitter OrderSubmitter, api Reorderer, hub Broadcaster, sessions SessionInvalidator) *OrderHandler {
	return &OrderHandler{submitter: submitter, api: api, hub: hub, sessions: sessions}
}

// RegisterRoutes registers order endpoints. Expected to be mounted at
// /orders behind session authentication.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/ready-made", h.ReadyMade)
	r.Post("/{id}/reorder", h.Reorder)
}

type readyMadeRequest struct {
	CakeID   string          `json:"cake_id"`
	Quantity int             `json:"quantity"`
	Note     string          `json:"note"`
	Delivery deliveryRequest `json:"delivery"`
}

// ReadyMade handles POST /orders/ready-made. Clients should send an
// Idempotency-Key header; without one each request is a new order.
func (h *OrderHandler) ReadyMade(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}

	var req readyMadeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = uuid.NewString()
	}

	res, err := h.submitter.SubmitReadyMade(r.Context(), sess, checkout.ReadyMade{
		CakeID:   req.CakeID,
		Quantity: req.Quantity,
		Note:     req.Note,
		Delivery: wizard.Delivery{
			Method:  enum.DeliveryMethod(req.Delivery.Method),
			Address: req.Delivery.Address,
			Date:    strings.TrimSpace(req.Delivery.Date),
		},
	}, key)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	publishOrderCreated(h.hub, res, enum.OrderTypeReadyMade, sess)
	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: res.OrderID, Status: res.Status, ChatLink: res.ChatLink})
}

// Reorder handles POST /orders/{id}/reorder.
func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}

	out, err := h.api.Reorder(r.Context(), sess.Token, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	res := &checkout.Result{OrderID: out.OrderID, Status: out.Status, ChatLink: out.ChatLink}
	publishOrderCreated(h.hub, res, "reorder", sess)
	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: res.OrderID, Status: res.Status, ChatLink: res.ChatLink})
}
