package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/handler"
	"github.com/sweetcrumbs/storefront/internal/middleware"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

// --- Mocks ---

type mockAuthAPI struct {
	loginFn  func(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
	signupFn func(ctx context.Context, req backend.SignupRequest) (*backend.AuthResponse, error)
	forgotFn func(ctx context.Context, email string) error
}

func (m *mockAuthAPI) Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthAPI) Signup(ctx context.Context, req backend.SignupRequest) (*backend.AuthResponse, error) {
	return m.signupFn(ctx, req)
}

func (m *mockAuthAPI) ForgotPassword(ctx context.Context, email string) error {
	return m.forgotFn(ctx, email)
}

// mockSessions records invalidations and hands out fixed sessions.
type mockSessions struct {
	mu          sync.Mutex
	invalidated []string
	started     []string
}

func (m *mockSessions) Start(_ context.Context, token string, user backend.User) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, token)
	return &session.Session{
		ID:        "sess-new",
		Token:     token,
		User:      user,
		CreatedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockSessions) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, id)
	return nil
}

func (m *mockSessions) invalidatedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidated...)
}

type mockDraftDiscarder struct {
	sessions []string
}

func (m *mockDraftDiscarder) DeleteSession(sessionID string) int {
	m.sessions = append(m.sessions, sessionID)
	return 1
}

type mockHub struct {
	mu     sync.Mutex
	events []ws.Event
	topics []string
}

func (m *mockHub) Broadcast(topic string, event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.events = append(m.events, event)
}

// --- Helpers ---

func customerSession() *session.Session {
	return &session.Session{
		ID:    "sess-1",
		Token: "backend-token",
		User:  backend.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Role: enum.UserRoleCustomer},
	}
}

func adminSession() *session.Session {
	return &session.Session{
		ID:    "sess-admin",
		Token: "admin-token",
		User:  backend.User{ID: "u-9", Name: "Bo", Email: "bo@example.com", Role: enum.UserRoleAdmin},
	}
}

// withSession stands in for middleware.Authenticate.
func withSession(sess *session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess != nil {
				r = r.WithContext(middleware.WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sendJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return sendJSON(t, router, http.MethodPost, path, body)
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "body: %s", rr.Body.String())
	return resp
}

func assertLoginRedirect(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "body: %s", rr.Body.String())
	resp := decodeResponse(t, rr)
	assert.Equal(t, middleware.LoginPath, resp["redirect"])
}

func setupAuthRouter(api *mockAuthAPI, sessions *mockSessions, drafts *mockDraftDiscarder, sess *session.Session) *chi.Mux {
	h := handler.NewAuthHandler(api, sessions, drafts)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(withSession(sess))
		h.RegisterSessionRoutes(r)
	})
	return r
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	api := &mockAuthAPI{
		loginFn: func(_ context.Context, req backend.LoginRequest) (*backend.AuthResponse, error) {
			assert.Equal(t, "ana@example.com", req.Email)
			return &backend.AuthResponse{Token: "jwt-1", User: backend.User{ID: "u-1", Name: "Ana", Role: "customer"}}, nil
		},
	}
	sessions := &mockSessions{}
	router := setupAuthRouter(api, sessions, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/login", map[string]string{"email": " ana@example.com ", "password": "secret"})

	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	assert.Equal(t, []string{"jwt-1"}, sessions.started)

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie must be set")
	assert.Equal(t, "sess-new", cookie.Value)
	assert.True(t, cookie.HttpOnly)

	resp := decodeResponse(t, rr)
	assert.Equal(t, "sess-new", resp["session_id"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "Ana", user["name"])
	assert.NotContains(t, rr.Body.String(), "jwt-1", "the backend token never leaves the gateway")
}

func TestLogin_BadCredentials(t *testing.T) {
	api := &mockAuthAPI{
		loginFn: func(context.Context, backend.LoginRequest) (*backend.AuthResponse, error) {
			return nil, backend.ErrSessionExpired
		},
	}
	router := setupAuthRouter(api, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/login", map[string]string{"email": "ana@example.com", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, "invalid email or password", resp["error"])
	assert.Nil(t, resp["redirect"])
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(&mockAuthAPI{}, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/login", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	api := &mockAuthAPI{
		loginFn: func(context.Context, backend.LoginRequest) (*backend.AuthResponse, error) {
			return nil, backend.ErrRateLimited
		},
	}
	router := setupAuthRouter(api, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/login", map[string]string{"email": "ana@example.com", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

// --- Signup tests ---

func TestSignup_ValidationErrors(t *testing.T) {
	api := &mockAuthAPI{
		signupFn: func(context.Context, backend.SignupRequest) (*backend.AuthResponse, error) {
			return nil, &backend.ValidationError{Fields: []backend.FieldError{{Field: "email", Message: "already registered"}}}
		},
	}
	router := setupAuthRouter(api, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/signup", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "longenough"})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeResponse(t, rr)
	fields := resp["fields"].([]interface{})
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].(map[string]interface{})["field"])
}

func TestSignup_StartsSession(t *testing.T) {
	api := &mockAuthAPI{
		signupFn: func(_ context.Context, req backend.SignupRequest) (*backend.AuthResponse, error) {
			return &backend.AuthResponse{Token: "jwt-2", User: backend.User{ID: "u-2", Name: req.Name}}, nil
		},
	}
	sessions := &mockSessions{}
	router := setupAuthRouter(api, sessions, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/signup", map[string]string{"name": "Cy", "email": "cy@example.com", "password": "longenough"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"jwt-2"}, sessions.started)
}

func TestForgotPassword(t *testing.T) {
	var got string
	api := &mockAuthAPI{
		forgotFn: func(_ context.Context, email string) error {
			got = email
			return nil
		},
	}
	router := setupAuthRouter(api, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := postJSON(t, router, "/auth/forgot-password", map[string]string{"email": "ana@example.com"})

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "ana@example.com", got)
}

// --- Session endpoints ---

func TestLogout_InvalidatesSessionAndDrafts(t *testing.T) {
	sessions := &mockSessions{}
	drafts := &mockDraftDiscarder{}
	router := setupAuthRouter(&mockAuthAPI{}, sessions, drafts, customerSession())

	rr := postJSON(t, router, "/auth/logout", nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"sess-1"}, sessions.invalidatedIDs())
	assert.Equal(t, []string{"sess-1"}, drafts.sessions)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMe_WithoutSession(t *testing.T) {
	router := setupAuthRouter(&mockAuthAPI{}, &mockSessions{}, &mockDraftDiscarder{}, nil)

	rr := sendJSON(t, router, http.MethodGet, "/auth/me", nil)
	assertLoginRedirect(t, rr)
}

func TestMe_ReturnsUser(t *testing.T) {
	router := setupAuthRouter(&mockAuthAPI{}, &mockSessions{}, &mockDraftDiscarder{}, customerSession())

	rr := sendJSON(t, router, http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Equal(t, "sess-1", resp["session_id"])
	assert.Equal(t, "ana@example.com", resp["user"].(map[string]interface{})["email"])
}
