package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Resource names an admin-managed catalog collection. The value is the
// gateway's URL segment; the backend knows each collection by a longer name.
type Resource string

const (
	ResourceGallery   Resource = "gallery"
	ResourceReadyMade Resource = "ready-made"
	ResourceUploads   Resource = "uploads"
)

// Valid reports whether r is a known admin collection.
func (r Resource) Valid() bool {
	switch r {
	case ResourceGallery, ResourceReadyMade, ResourceUploads:
		return true
	}
	return false
}

var backendNames = map[Resource]string{
	ResourceGallery:   "cake-gallery",
	ResourceReadyMade: "ready-made-cakes",
	ResourceUploads:   "customer-uploads",
}

// BackendName returns the collection's name in backend admin URLs.
func (r Resource) BackendName() string {
	return backendNames[r]
}

// ResourceFromBackendName maps a backend collection name back to a Resource.
func ResourceFromBackendName(name string) (Resource, bool) {
	for r, n := range backendNames {
		if n == name {
			return r, true
		}
	}
	return "", false
}

func (r Resource) path() string {
	return "/admin/" + r.BackendName()
}

func itemPath(r Resource, id string) string {
	return r.path() + "/" + url.PathEscape(id)
}

// ListCakes lists the gallery or the ready-made collection.
func (c *Client) ListCakes(ctx context.Context, token string, r Resource, p ListParams) (*CakeList, error) {
	var resp CakeList
	if err := c.doJSON(ctx, http.MethodGet, r.path()+p.query(), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCake adds a catalog item. The picture is required by the backend and
// goes as the "image" part next to a JSON "data" field.
func (c *Client) CreateCake(ctx context.Context, token string, r Resource, in CakeInput, img Image) (*Cake, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode cake: %w", err)
	}
	files := []FilePart{{Field: "image", Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}}
	var resp Cake
	if err := c.doMultipart(ctx, http.MethodPost, r.path(), token, map[string]string{"data": string(data)}, files, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateCake(ctx context.Context, token string, r Resource, id string, in CakeInput) (*Cake, error) {
	var resp Cake
	if err := c.doJSON(ctx, http.MethodPut, itemPath(r, id), token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUploads lists customer design uploads.
func (c *Client) ListUploads(ctx context.Context, token string, p ListParams) (*UploadList, error) {
	var resp UploadList
	if err := c.doJSON(ctx, http.MethodGet, ResourceUploads.path()+p.query(), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoftDelete marks an item of any admin collection deleted.
func (c *Client) SoftDelete(ctx context.Context, token string, r Resource, id string) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(r, id), token, nil, nil)
}

// Recover undoes a soft delete.
func (c *Client) Recover(ctx context.Context, token string, r Resource, id string) error {
	return c.doJSON(ctx, http.MethodPut, itemPath(r, id)+"/recover", token, nil, nil)
}

func (c *Client) DashboardStats(ctx context.Context, token string) (*DashboardStats, error) {
	var resp DashboardStats
	if err := c.doJSON(ctx, http.MethodGet, "/admin/dashboard/stats", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListOrders(ctx context.Context, token string, p ListParams) (*OrderList, error) {
	var resp OrderList
	if err := c.doJSON(ctx, http.MethodGet, "/admin/orders"+p.query(), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID, status string) (*Order, error) {
	var resp Order
	path := "/admin/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.doJSON(ctx, http.MethodPut, path, token, map[string]string{"status": status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
