package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Reviews lists customer reviews, optionally for one cake.
func (c *Client) Reviews(ctx context.Context, cakeID string) ([]Review, error) {
	path := "/reviews"
	if cakeID != "" {
		path += "?cakeId=" + url.QueryEscape(cakeID)
	}
	var resp struct {
		Reviews []Review `json:"reviews"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, token string, in ReviewInput) (*Review, error) {
	var resp Review
	if err := c.doJSON(ctx, http.MethodPost, "/reviews", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateReview(ctx context.Context, token, id string, in ReviewInput) (*Review, error) {
	var resp Review
	if err := c.doJSON(ctx, http.MethodPut, "/reviews/"+url.PathEscape(id), token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteReview(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/reviews/"+url.PathEscape(id), token, nil, nil)
}
