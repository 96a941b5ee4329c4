package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/middleware"
	"github.com/sweetcrumbs/storefront/internal/session"
)

// AuthAPI is the part of the backend client that handles accounts.
// Satisfied by *backend.Client; narrow interface for testability.
type AuthAPI interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
	Signup(ctx context.Context, req backend.SignupRequest) (*backend.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
}

// SessionManager starts and ends sessions.
// Satisfied by *session.Manager.
type SessionManager interface {
	Start(ctx context.Context, token string, user backend.User) (*session.Session, error)
	Invalidate(ctx context.Context, id string) error
}

// DraftDiscarder drops a session's unfinished wizards.
// Satisfied by *drafts.Store.
type DraftDiscarder interface {
	DeleteSession(sessionID string) int
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	api      AuthAPI
	sessions SessionManager
	ender    *SessionEnder
}

func NewAuthHandler(api AuthAPI, sessions SessionManager, drafts DraftDiscarder) *AuthHandler {
	return &AuthHandler{api: api, sessions: sessions, ender: NewSessionEnder(sessions, drafts)}
}

// RegisterRoutes registers the public auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/forgot-password", h.ForgotPassword)
}

// RegisterSessionRoutes registers the endpoints that need a session.
func (h *AuthHandler) RegisterSessionRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// --- Handlers ---

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	resp, err := h.api.Login(r.Context(), backend.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		// a 401 here means bad credentials, not an expired session
		if errors.Is(err, backend.ErrSessionExpired) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		respondError(w, r, nil, err)
		return
	}
	h.startSession(w, r, resp, http.StatusOK)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email and password are required"})
		return
	}

	resp, err := h.api.Signup(r.Context(), backend.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	h.startSession(w, r, resp, http.StatusCreated)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	if err := h.api.ForgotPassword(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		respondError(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "If the email is registered, a reset link is on its way"})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	if err := h.ender.Invalidate(r.Context(), sess.ID); err != nil {
		respondError(w, r, nil, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, resp *backend.AuthResponse, status int) {
	sess, err := h.sessions.Start(r.Context(), resp.Token, resp.User)
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, toSessionResponse(sess))
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		ExpiresAt: s.ExpiresAt,
		User:      toUserResponse(s.User),
	}
}

func toUserResponse(u backend.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
	}
}
