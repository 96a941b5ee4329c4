package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/config"
	"github.com/sweetcrumbs/storefront/internal/drafts"
	"github.com/sweetcrumbs/storefront/internal/router"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

// fakeBackend answers the few endpoints these tests touch.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req backend.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		role := "customer"
		if req.Email == "admin@example.com" {
			role = "admin"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(backend.AuthResponse{
			Token: "opaque-" + role,
			User:  backend.User{ID: "u-" + role, Name: role, Email: req.Email, Role: role},
		})
	})
	mux.HandleFunc("GET /admin/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	})
	mux.HandleFunc("GET /cakes/ready-made", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"c-1","name":"Lemon Drizzle","price":"18.5"}],"total":1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	srv := fakeBackend(t)
	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}
	return router.New(cfg, router.Deps{
		Backend:   client,
		Sessions:  session.NewManager(session.NewMemoryStore(), time.Hour, nil),
		Drafts:    drafts.NewStore(time.Hour, nil),
		Submitter: checkout.NewSubmitter(client, nil),
		Hub:       ws.NewHub(),
	})
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "pw"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func get(h http.Handler, path, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := get(setupRouter(t), "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestPublicCatalog(t *testing.T) {
	rr := get(setupRouter(t), "/cakes/ready-made", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"price":"18.50"`)
}

func TestProtectedRouteNeedsSession(t *testing.T) {
	rr := get(setupRouter(t), "/auth/me", "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redirect":"/login"`)
}

func TestSessionRoundTrip(t *testing.T) {
	h := setupRouter(t)
	id := login(t, h, "ana@example.com")

	rr := get(h, "/auth/me", id)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"ana@example.com"`)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	h := setupRouter(t)
	id := login(t, h, "ana@example.com")

	rr := get(h, "/admin/dashboard/stats", id)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBackendRejectionEndsSession(t *testing.T) {
	h := setupRouter(t)
	id := login(t, h, "admin@example.com")

	rr := get(h, "/admin/dashboard/stats", id)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redirect":"/login"`)

	// the session is gone for every later request
	rr = get(h, "/auth/me", id)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/wizards", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rr := httptest.NewRecorder()
	setupRouter(t).ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
