package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the backend client.
var (
	// ErrSessionExpired means the backend rejected the credential (HTTP 401).
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrRateLimited means the backend throttled the request (HTTP 429).
	ErrRateLimited = errors.New("too many requests, please try again later")
)

// FieldError is one server-side validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field error the backend reported.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// APIError is any other non-2xx response or a transport failure (Status 0).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %s", e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// errorBody is the error envelope the backend uses.
type errorBody struct {
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors"`
}

func (b errorBody) message(fallback string) string {
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(b.Error); msg != "" {
		return msg
	}
	return fallback
}
