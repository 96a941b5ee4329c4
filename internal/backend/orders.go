package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Image is an optional design picture sent with an order.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateCustomCakeOrder submits a custom cake order. With an image the body
// is multipart (orderData + designImage), otherwise JSON.
func (c *Client) CreateCustomCakeOrder(ctx context.Context, token string, payload OrderPayload, img *Image, opts ...RequestOption) (*OrderResult, error) {
	return c.createOrder(ctx, "/orders/custom-cake", token, payload, img, opts...)
}

// CreateModifyCakeOrder submits a modified catalog cake order.
func (c *Client) CreateModifyCakeOrder(ctx context.Context, token string, payload OrderPayload, img *Image, opts ...RequestOption) (*OrderResult, error) {
	return c.createOrder(ctx, "/orders/modify-cake", token, payload, img, opts...)
}

// CreateReadyMadeOrder orders a catalog cake as is.
func (c *Client) CreateReadyMadeOrder(ctx context.Context, token string, order ReadyMadeOrder, opts ...RequestOption) (*OrderResult, error) {
	var resp OrderResult
	if err := c.doJSON(ctx, http.MethodPost, "/orders/ready-made", token, order, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reorder places a copy of a previous order.
func (c *Client) Reorder(ctx context.Context, token, orderID string) (*OrderResult, error) {
	var resp OrderResult
	path := fmt.Sprintf("/orders/%s/reorder", url.PathEscape(orderID))
	if err := c.doJSON(ctx, http.MethodPost, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) createOrder(ctx context.Context, path, token string, payload OrderPayload, img *Image, opts ...RequestOption) (*OrderResult, error) {
	var resp OrderResult
	if img == nil {
		if err := c.doJSON(ctx, http.MethodPost, path, token, payload, &resp, opts...); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	files := []FilePart{{
		Field:       "designImage",
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.Data,
	}}
	if err := c.doMultipart(ctx, http.MethodPost, path, token, map[string]string{"orderData": string(data)}, files, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}
