package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sweetcrumbs/storefront/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// CookieName is the cookie carrying the session id for browser clients.
const CookieName = "storefront_session"

// LoginPath is where clients are sent when the session is missing or expired.
const LoginPath = "/login"

// SessionReader resolves a session id.
// Satisfied by *session.Manager; narrow interface for testability.
type SessionReader interface {
	Current(ctx context.Context, id string) (*session.Session, error)
}

// SessionID reads the session id from the Authorization header or, failing
// that, the session cookie.
func SessionID(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate loads the session into the request context or answers 401
// with a login redirect.
func Authenticate(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Current(r.Context(), SessionID(r))
			if err != nil {
				switch {
				case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrExpired):
					Unauthorized(w, err.Error())
				default:
					log.Printf("ERROR: load session: %v", err)
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				Unauthorized(w, session.ErrUnauthenticated.Error())
				return
			}

			for _, role := range roles {
				if sess.User.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		})
	}
}

// Unauthorized writes the 401 body every session failure uses.
func Unauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg, "redirect": LoginPath})
}

func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
