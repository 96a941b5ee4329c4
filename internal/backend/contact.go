package backend

import (
	"context"
	"net/http"
)

// SendContactMessage posts the public contact form. The backend throttles it;
// a 429 surfaces as ErrRateLimited.
func (c *Client) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/contact", "", msg, nil)
}
