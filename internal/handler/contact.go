package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
)

// ContactAPI sends contact-form messages.
// Satisfied by *backend.Client.
type ContactAPI interface {
	SendContactMessage(ctx context.Context, msg backend.ContactMessage) error
}

type ContactHandler struct {
	api ContactAPI
}

func NewContactHandler(api ContactAPI) *ContactHandler {
	return &ContactHandler{api: api}
}

func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Send)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Send handles POST /contact. The backend throttles this endpoint; a 429 is
// passed back to the caller as is.
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg := backend.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Name == "" || msg.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and message are required"})
		return
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if err := h.api.SendContactMessage(r.Context(), msg); err != nil {
		respondError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Thanks, we will get back to you soon"})
}
