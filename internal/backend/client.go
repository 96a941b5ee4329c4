// Package backend is the HTTP client for the remote cake-shop REST API.
//
// Every call is a single request: nothing is retried, queued or cached here.
// Responses are mapped onto the error taxonomy in errors.go so callers can
// treat authentication, validation, throttling and generic failures apart.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client talks to the remote REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets a default
// with a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithIdempotencyKey sets the Idempotency-Key header so the backend can
// recognise a repeated submission.
func WithIdempotencyKey(key string) RequestOption {
	key = strings.TrimSpace(key)
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any, opts ...RequestOption) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.send(req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path, token string, fields map[string]string, files []FilePart, out any, opts ...RequestOption) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, token, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, opt := range opts {
		opt(req)
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs the request and maps the response onto the error taxonomy.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionExpired
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case len(eb.Errors) > 0 && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity):
		return &ValidationError{Fields: eb.Errors}
	default:
		return &APIError{Status: resp.StatusCode, Message: eb.message(http.StatusText(resp.StatusCode))}
	}
}
