package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/adminlist"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/drafts"
	"github.com/sweetcrumbs/storefront/internal/middleware"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/wizard"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

// SessionInvalidator ends a session.
// Satisfied by *session.Manager; narrow interface for testability.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// SessionEnder ends a session and discards the wizards it owns. Logout and a
// backend 401 both end sessions through it.
type SessionEnder struct {
	sessions SessionInvalidator
	drafts   DraftDiscarder
}

func NewSessionEnder(sessions SessionInvalidator, drafts DraftDiscarder) *SessionEnder {
	return &SessionEnder{sessions: sessions, drafts: drafts}
}

// Invalidate ends the session. Its wizards are dropped even when the session
// layer fails.
func (e *SessionEnder) Invalidate(ctx context.Context, id string) error {
	err := e.sessions.Invalidate(ctx, id)
	if e.drafts != nil {
		if n := e.drafts.DeleteSession(id); n > 0 {
			log.Printf("discarded %d wizard(s) of ended session", n)
		}
	}
	return err
}

// Broadcaster pushes events to websocket subscribers.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error    string               `json:"error"`
	Redirect string               `json:"redirect,omitempty"`
	Step     int                  `json:"step,omitempty"`
	Fields   []fieldErrorResponse `json:"fields,omitempty"`
}

// respondError maps any error from the wizard, the session layer or the
// backend client onto a response. A backend 401 ends the local session here
// and nowhere else.
func respondError(w http.ResponseWriter, r *http.Request, sessions SessionInvalidator, err error) {
	var (
		stepErr *wizard.StepError
		valErr  *backend.ValidationError
		apiErr  *backend.APIError
	)

	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		middleware.Unauthorized(w, err.Error())

	case errors.Is(err, backend.ErrSessionExpired), errors.Is(err, session.ErrExpired):
		if sess := middleware.SessionFromContext(r.Context()); sess != nil && sessions != nil {
			if invErr := sessions.Invalidate(r.Context(), sess.ID); invErr != nil {
				log.Printf("ERROR: invalidate session: %v", invErr)
			}
		}
		middleware.Unauthorized(w, backend.ErrSessionExpired.Error())

	case errors.As(err, &stepErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: stepErr.Message, Step: stepErr.Step})

	case errors.As(err, &valErr):
		fields := make([]fieldErrorResponse, len(valErr.Fields))
		for i, f := range valErr.Fields {
			fields[i] = fieldErrorResponse{Field: f.Field, Message: f.Message}
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})

	case errors.Is(err, backend.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests, please try again later"})

	case errors.Is(err, checkout.ErrDuplicateSubmission),
		errors.Is(err, drafts.ErrSubmitting),
		errors.Is(err, adminlist.ErrSuperseded),
		errors.Is(err, wizard.ErrLastStep):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, drafts.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, drafts.ErrBaseCakeRequired),
		errors.Is(err, wizard.ErrInvalidValue),
		errors.Is(err, wizard.ErrTierIndex),
		errors.Is(err, wizard.ErrFlavorIndex):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		msg := apiErr.Message
		if apiErr.Status == 0 || msg == "" {
			msg = "The cake shop is unavailable, please try again later"
		}
		log.Printf("backend error: %v", apiErr)
		writeJSON(w, status, errorResponse{Error: msg})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})

	default:
		log.Printf("ERROR: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// sessionOrFail returns the authenticated session, answering 401 when absent.
func sessionOrFail(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		middleware.Unauthorized(w, session.ErrUnauthenticated.Error())
	}
	return sess
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// oneBasedParam reads a 1-based URL index and returns it 0-based.
func oneBasedParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
