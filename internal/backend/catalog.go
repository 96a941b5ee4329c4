package backend

import (
	"context"
	"net/http"
)

// ReadyMadeCakes lists the public ready-made catalog.
func (c *Client) ReadyMadeCakes(ctx context.Context) ([]Cake, error) {
	var resp CakeList
	if err := c.doJSON(ctx, http.MethodGet, "/cakes/ready-made", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ModifyCakes lists the catalog cakes customers may start a modify order from.
func (c *Client) ModifyCakes(ctx context.Context) ([]Cake, error) {
	var resp CakeList
	if err := c.doJSON(ctx, http.MethodGet, "/cakes/modify", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CalculatePrice quotes a custom cake.
func (c *Client) CalculatePrice(ctx context.Context, token string, payload OrderPayload) (*PriceQuote, error) {
	var resp PriceQuote
	if err := c.doJSON(ctx, http.MethodPost, "/cakes/custom/calculate-price", token, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
