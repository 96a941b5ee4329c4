package backend

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a customer account and logs it in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to send a reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, nil)
}
