package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/handler"
)

type mockProfileAPI struct {
	profileFn  func(ctx context.Context, token string) (*backend.User, error)
	updateFn   func(ctx context.Context, token string, in backend.ProfileUpdate) (*backend.User, error)
	pictureFn  func(ctx context.Context, token string, img backend.Image) (*backend.User, error)
	emailFn    func(ctx context.Context, token string, in backend.EmailUpdate) error
	passwordFn func(ctx context.Context, token string, in backend.PasswordUpdate) error
}

func (m *mockProfileAPI) Profile(ctx context.Context, token string) (*backend.User, error) {
	return m.profileFn(ctx, token)
}

func (m *mockProfileAPI) UpdateProfile(ctx context.Context, token string, in backend.ProfileUpdate) (*backend.User, error) {
	return m.updateFn(ctx, token, in)
}

func (m *mockProfileAPI) UploadProfilePicture(ctx context.Context, token string, img backend.Image) (*backend.User, error) {
	return m.pictureFn(ctx, token, img)
}

func (m *mockProfileAPI) UpdateEmail(ctx context.Context, token string, in backend.EmailUpdate) error {
	return m.emailFn(ctx, token, in)
}

func (m *mockProfileAPI) UpdatePassword(ctx context.Context, token string, in backend.PasswordUpdate) error {
	return m.passwordFn(ctx, token, in)
}

func setupProfileRouter(api *mockProfileAPI, sessions *mockSessions) *chi.Mux {
	h := handler.NewProfileHandler(api, sessions)
	r := chi.NewRouter()
	r.Use(withSession(customerSession()))
	r.Route("/user", h.RegisterRoutes)
	return r
}

func TestProfile_ExpiredSessionRedirectsToLogin(t *testing.T) {
	api := &mockProfileAPI{
		profileFn: func(context.Context, string) (*backend.User, error) { return nil, backend.ErrSessionExpired },
		updateFn: func(context.Context, string, backend.ProfileUpdate) (*backend.User, error) {
			return nil, backend.ErrSessionExpired
		},
		pictureFn: func(context.Context, string, backend.Image) (*backend.User, error) {
			return nil, backend.ErrSessionExpired
		},
		emailFn:    func(context.Context, string, backend.EmailUpdate) error { return backend.ErrSessionExpired },
		passwordFn: func(context.Context, string, backend.PasswordUpdate) error { return backend.ErrSessionExpired },
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"get profile", http.MethodGet, "/user/profile", nil},
		{"update profile", http.MethodPut, "/user/profile", map[string]string{"name": "Ana B"}},
		{"update email", http.MethodPut, "/user/settings/email", map[string]string{"email": "new@example.com", "password": "pw"}},
		{"update password", http.MethodPut, "/user/settings/password", map[string]string{"current_password": "old", "new_password": "longenough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessions{}
			rr := sendJSON(t, setupProfileRouter(api, sessions), tt.method, tt.path, tt.body)

			assertLoginRedirect(t, rr)
			assert.Equal(t, []string{"sess-1"}, sessions.invalidatedIDs())
		})
	}

	t.Run("upload picture", func(t *testing.T) {
		sessions := &mockSessions{}
		req := multipartRequest(t, http.MethodPost, "/user/profile/picture", nil, "picture", "me.jpg")
		rr := httptest.NewRecorder()
		setupProfileRouter(api, sessions).ServeHTTP(rr, req)

		assertLoginRedirect(t, rr)
		assert.Equal(t, []string{"sess-1"}, sessions.invalidatedIDs())
	})
}

func TestProfile_Get(t *testing.T) {
	api := &mockProfileAPI{
		profileFn: func(_ context.Context, token string) (*backend.User, error) {
			assert.Equal(t, "backend-token", token)
			return &backend.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Phone: "555"}, nil
		},
	}
	rr := sendJSON(t, setupProfileRouter(api, &mockSessions{}), http.MethodGet, "/user/profile", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "555", decodeResponse(t, rr)["phone"])
}

func TestProfile_UpdateNothing(t *testing.T) {
	rr := sendJSON(t, setupProfileRouter(&mockProfileAPI{}, &mockSessions{}), http.MethodPut, "/user/profile", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfile_UploadPicture(t *testing.T) {
	var got backend.Image
	api := &mockProfileAPI{
		pictureFn: func(_ context.Context, _ string, img backend.Image) (*backend.User, error) {
			got = img
			return &backend.User{ID: "u-1", ProfilePicture: "/pics/u-1.jpg"}, nil
		},
	}
	req := multipartRequest(t, http.MethodPost, "/user/profile/picture", nil, "picture", "me.jpg")
	rr := httptest.NewRecorder()
	setupProfileRouter(api, &mockSessions{}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	assert.Equal(t, "me.jpg", got.Filename)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, "/pics/u-1.jpg", decodeResponse(t, rr)["profile_picture"])
}

func TestProfile_UpdateEmailValidation(t *testing.T) {
	router := setupProfileRouter(&mockProfileAPI{}, &mockSessions{})

	rr := sendJSON(t, router, http.MethodPut, "/user/settings/email", map[string]string{"email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = sendJSON(t, router, http.MethodPut, "/user/settings/email", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfile_UpdatePassword(t *testing.T) {
	var got backend.PasswordUpdate
	api := &mockProfileAPI{
		passwordFn: func(_ context.Context, _ string, in backend.PasswordUpdate) error {
			got = in
			return nil
		},
	}
	router := setupProfileRouter(api, &mockSessions{})

	rr := sendJSON(t, router, http.MethodPut, "/user/settings/password", map[string]string{"current_password": "old", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = sendJSON(t, router, http.MethodPut, "/user/settings/password", map[string]string{"current_password": "old", "new_password": "longenough"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, backend.PasswordUpdate{CurrentPassword: "old", NewPassword: "longenough"}, got)
}
