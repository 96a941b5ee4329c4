package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
)

// ProfileAPI is the part of the backend client used for account settings.
// Satisfied by *backend.Client; narrow interface for testability.
type ProfileAPI interface {
	Profile(ctx context.Context, token string) (*backend.User, error)
	UpdateProfile(ctx context.Context, token string, in backend.ProfileUpdate) (*backend.User, error)
	UploadProfilePicture(ctx context.Context, token string, img backend.Image) (*backend.User, error)
	UpdateEmail(ctx context.Context, token string, in backend.EmailUpdate) error
	UpdatePassword(ctx context.Context, token string, in backend.PasswordUpdate) error
}

type ProfileHandler struct {
	api      ProfileAPI
	sessions SessionInvalidator
}

func NewProfileHandler(api ProfileAPI, sessions SessionInvalidator) *ProfileHandler {
	return &ProfileHandler{api: api, sessions: sessions}
}

// RegisterRoutes registers account endpoints. Expected to be mounted at
// /user behind session authentication.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.Get)
	r.Put("/profile", h.Update)
	r.Post("/profile/picture", h.UploadPicture)
	r.Put("/settings/email", h.UpdateEmail)
	r.Put("/settings/password", h.UpdatePassword)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type updateEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

const minPasswordLength = 8

// Get handles GET /user/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	u, err := h.api.Profile(r.Context(), sess.Token)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

// Update handles PUT /user/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := backend.ProfileUpdate{Name: strings.TrimSpace(req.Name), Phone: strings.TrimSpace(req.Phone)}
	if in.Name == "" && in.Phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to update"})
		return
	}
	u, err := h.api.UpdateProfile(r.Context(), sess.Token, in)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

// UploadPicture handles POST /user/profile/picture (multipart "picture").
func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	img, ok := readImage(w, r, "picture")
	if !ok {
		return
	}
	u, err := h.api.UploadProfilePicture(r.Context(), sess.Token, *img)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

// UpdateEmail handles PUT /user/settings/email.
func (h *ProfileHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	var req updateEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}
	if err := h.api.UpdateEmail(r.Context(), sess.Token, backend.EmailUpdate{Email: email, Password: req.Password}); err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePassword handles PUT /user/settings/password.
func (h *ProfileHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	var req updatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_password is required"})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new_password must be at least 8 characters"})
		return
	}
	if err := h.api.UpdatePassword(r.Context(), sess.Token, backend.PasswordUpdate{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
