package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumbs/storefront/internal/adminlist"
	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

// AdminAPI is the part of the backend client used by the admin dashboard.
// Satisfied by *backend.Client; narrow interface for testability.
type AdminAPI interface {
	DashboardStats(ctx context.Context, token string) (*backend.DashboardStats, error)
	ListOrders(ctx context.Context, token string, p backend.ListParams) (*backend.OrderList, error)
	UpdateOrderStatus(ctx context.Context, token, orderID, status string) (*backend.Order, error)
	ListCakes(ctx context.Context, token string, res backend.Resource, p backend.ListParams) (*backend.CakeList, error)
	ListUploads(ctx context.Context, token string, p backend.ListParams) (*backend.UploadList, error)
	CreateCake(ctx context.Context, token string, res backend.Resource, in backend.CakeInput, img backend.Image) (*backend.Cake, error)
	UpdateCake(ctx context.Context, token string, res backend.Resource, id string, in backend.CakeInput) (*backend.Cake, error)
	SoftDelete(ctx context.Context, token string, res backend.Resource, id string) error
	Recover(ctx context.Context, token string, res backend.Resource, id string) error
}

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	api      AdminAPI
	guard    *adminlist.Guard
	hub      Broadcaster
	sessions SessionInvalidator
}

func NewAdminHandler(api AdminAPI, guard *adminlist.Guard, hub Broadcaster, sessions SessionInvalidator) *AdminHandler {
	return &AdminHandler{api: api, guard: guard, hub: hub, sessions: sessions}
}

// RegisterRoutes registers admin endpoints. Expected to be mounted at
// /admin behind session authentication and the admin role.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.Stats)
	r.Get("/orders", h.ListOrders)
	r.Put("/orders/{id}/status", h.UpdateOrderStatus)

	r.Get("/{resource}", h.List)
	r.Post("/{resource}", h.Create)
	r.Put("/{resource}/{id}", h.Update)
	r.Delete("/{resource}/{id}", h.Delete)
	r.Put("/{resource}/{id}/recover", h.Recover)
}

// --- Request / Response types ---

type cakeInputRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Shape       string `json:"shape"`
	Tiers       int    `json:"tiers"`
	Flavors     string `json:"flavors"`
	Price       string `json:"price"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type cakeListResponse struct {
	Items []cakeResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type uploadResponse struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	ImageURL     string    `json:"image_url"`
	Note         string    `json:"note,omitempty"`
	Deleted      bool      `json:"deleted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type uploadListResponse struct {
	Items []uploadResponse `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type orderResponse struct {
	ID              string    `json:"id"`
	OrderType       string    `json:"order_type"`
	Status          string    `json:"status"`
	CustomerName    string    `json:"customer_name,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	Total           string    `json:"total"`
	DeliveryMethod  string    `json:"delivery_method,omitempty"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	DeliveryDate    string    `json:"delivery_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type statsResponse struct {
	TotalOrders     int    `json:"total_orders"`
	PendingOrders   int    `json:"pending_orders"`
	CompletedOrders int    `json:"completed_orders"`
	TotalCustomers  int    `json:"total_customers"`
	TotalRevenue    string `json:"total_revenue"`
	GalleryItems    int    `json:"gallery_items"`
	ReadyMadeCakes  int    `json:"ready_made_cakes"`
}

// --- Handlers ---

// Stats handles GET /admin/dashboard/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	s, err := h.api.DashboardStats(r.Context(), sess.Token)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:     s.TotalOrders,
		PendingOrders:   s.PendingOrders,
		CompletedOrders: s.CompletedOrders,
		TotalCustomers:  s.TotalCustomers,
		TotalRevenue:    s.TotalRevenue.StringFixed(2),
		GalleryItems:    s.GalleryItems,
		ReadyMadeCakes:  s.ReadyMadeCakes,
	})
}

// ListOrders handles GET /admin/orders. A newer request from the same
// session cancels this one.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	if params.Status != "" && !enum.ValidOrderStatus(params.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		return
	}

	list, err := adminlist.Do(h.guard, r.Context(), adminlist.Key(sess.ID, "orders"), func(ctx context.Context) (*backend.OrderList, error) {
		return h.api.ListOrders(ctx, sess.Token, params)
	})
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	resp := orderListResponse{Orders: make([]orderResponse, len(list.Orders)), Total: list.Total, Page: list.Page, Limit: list.Limit}
	for i, o := range list.Orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateOrderStatus handles PUT /admin/orders/{id}/status.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !enum.ValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.api.UpdateOrderStatus(r.Context(), sess.Token, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	if h.hub != nil {
		event, err := ws.NewEvent(ws.EventOrderStatusChanged, map[string]string{
			"order_id": order.ID,
			"status":   order.Status,
		})
		if err != nil {
			log.Printf("ERROR: encode status event: %v", err)
		} else {
			h.hub.Broadcast(ws.TopicAdminOrders, event)
		}
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// List handles GET /admin/{resource} for the gallery, ready-made cakes and
// customer uploads.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	key := adminlist.Key(sess.ID, string(res))

	if res == backend.ResourceUploads {
		list, err := adminlist.Do(h.guard, r.Context(), key, func(ctx context.Context) (*backend.UploadList, error) {
			return h.api.ListUploads(ctx, sess.Token, params)
		})
		if err != nil {
			respondError(w, r, h.sessions, err)
			return
		}
		resp := uploadListResponse{Items: make([]uploadResponse, len(list.Items)), Total: list.Total, Page: list.Page, Limit: list.Limit}
		for i, u := range list.Items {
			resp.Items[i] = uploadResponse{
				ID:           u.ID,
				OrderID:      u.OrderID,
				CustomerName: u.CustomerName,
				ImageURL:     u.ImageURL,
				Note:         u.Note,
				Deleted:      u.Deleted,
				CreatedAt:    u.CreatedAt,
			}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	list, err := adminlist.Do(h.guard, r.Context(), key, func(ctx context.Context) (*backend.CakeList, error) {
		return h.api.ListCakes(ctx, sess.Token, res, params)
	})
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, cakeListResponse{Items: toCakeResponses(list.Items), Total: list.Total, Page: list.Page, Limit: list.Limit})
}

// Create handles POST /admin/{resource} (multipart: fields plus an "image" file).
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if res == backend.ResourceUploads {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "uploads are created by customers"})
		return
	}

	img, ok := readImage(w, r, "image")
	if !ok {
		return
	}
	tiers, _ := strconv.Atoi(r.FormValue("tiers"))
	in, err := toCakeInput(res, cakeInputRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Shape:       r.FormValue("shape"),
		Tiers:       tiers,
		Flavors:     r.FormValue("flavors"),
		Price:       r.FormValue("price"),
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cake, err := h.api.CreateCake(r.Context(), sess.Token, res, in, *img)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCakeResponse(*cake))
}

// Update handles PUT /admin/{resource}/{id}.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if res == backend.ResourceUploads {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "uploads cannot be edited"})
		return
	}

	var req cakeInputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := toCakeInput(res, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cake, err := h.api.UpdateCake(r.Context(), sess.Token, res, chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toCakeResponse(*cake))
}

// Delete handles DELETE /admin/{resource}/{id}. Items are soft deleted and
// can be recovered.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, h.api.SoftDelete)
}

// Recover handles PUT /admin/{resource}/{id}/recover.
func (h *AdminHandler) Recover(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, h.api.Recover)
}

func (h *AdminHandler) itemAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, token string, res backend.Resource, id string) error) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if err := action(r.Context(), sess.Token, res, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func resourceParam(w http.ResponseWriter, r *http.Request) (backend.Resource, bool) {
	res := backend.Resource(chi.URLParam(r, "resource"))
	if !res.Valid() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown admin resource"})
		return "", false
	}
	return res, true
}

func listParams(w http.ResponseWriter, r *http.Request) (backend.ListParams, bool) {
	q := r.URL.Query()
	p := backend.ListParams{
		Page:    1,
		Limit:   20,
		Status:  strings.TrimSpace(q.Get("status")),
		Search:  strings.TrimSpace(q.Get("search")),
		Deleted: q.Get("deleted") == "true",
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
			return p, false
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return p, false
		}
		p.Limit = n
	}
	return p, true
}

// toCakeInput validates an admin form. Ready-made cakes carry a comma
// separated flavor list that is split into even shares.
func toCakeInput(res backend.Resource, req cakeInputRequest) (backend.CakeInput, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return backend.CakeInput{}, fmt.Errorf("name is required")
	}
	price := decimal.Zero
	if strings.TrimSpace(req.Price) != "" {
		p, err := decimal.NewFromString(strings.TrimSpace(req.Price))
		if err != nil || p.IsNegative() {
			return backend.CakeInput{}, fmt.Errorf("price must be a non-negative number")
		}
		price = p
	}
	if req.Shape != "" && !enum.ValidShape(enum.Shape(req.Shape)) {
		return backend.CakeInput{}, fmt.Errorf("invalid shape %q", req.Shape)
	}

	in := backend.CakeInput{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Shape:       req.Shape,
		Tiers:       req.Tiers,
		Price:       price,
	}
	if res == backend.ResourceReadyMade {
		if price.IsZero() {
			return backend.CakeInput{}, fmt.Errorf("price is required for ready-made cakes")
		}
		in.Flavors = checkout.SplitFlavors(req.Flavors)
		if len(in.Flavors) == 0 {
			return backend.CakeInput{}, fmt.Errorf("at least one flavor is required")
		}
	}
	return in, nil
}

func toOrderResponse(o backend.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderType:       o.OrderType,
		Status:          o.Status,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		Total:           o.Total.StringFixed(2),
		DeliveryMethod:  o.DeliveryMethod,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryDate:    o.DeliveryDate,
		CreatedAt:       o.CreatedAt,
	}
}
