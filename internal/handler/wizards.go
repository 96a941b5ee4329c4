package handler

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/drafts"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/wizard"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

const maxDesignImageBytes = 5 << 20

// OrderSubmitter places orders.
// Satisfied by *checkout.Submitter; narrow interface for testability.
type OrderSubmitter interface {
	Submit(ctx context.Context, sess *session.Session, d *wizard.OrderDraft, key string) (*checkout.Result, error)
	SubmitReadyMade(ctx context.Context, sess *session.Session, o checkout.ReadyMade, key string) (*checkout.Result, error)
}

// PriceQuoter prices a custom cake.
// Satisfied by *backend.Client.
type PriceQuoter interface {
	CalculatePrice(ctx context.Context, token string, payload backend.OrderPayload) (*backend.PriceQuote, error)
}

// WizardHandler drives the custom and modify cake wizards.
type WizardHandler struct {
	drafts    *drafts.Store
	submitter OrderSubmitter
	prices    PriceQuoter
	hub       Broadcaster
	sessions  SessionInvalidator
}

func NewWizardHandler(store *drafts.Store, submitter OrderSubmitter, prices PriceQuoter, hub Broadcaster, sessions SessionInvalidator) *WizardHandler {
	return &WizardHandler{drafts: store, submitter: submitter, prices: prices, hub: hub, sessions: sessions}
}

// RegisterRoutes registers wizard endpoints. Expected to be mounted at
// /wizards behind session authentication.
func (h *WizardHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)

		r.Put("/shape", h.SetShape)
		r.Put("/tiers", h.SetTierCount)
		r.Put("/tiers/{tier}/flavor-count", h.SetFlavorCount)
		r.Post("/tiers/{tier}/flavors", h.AddFlavor)
		r.Put("/tiers/{tier}/flavors/{flavor}", h.SetFlavor)
		r.Put("/tiers/{tier}/size", h.SetSize)
		r.Post("/tiers/{tier}/size/step", h.StepSize)
		r.Put("/covering", h.SetCovering)
		r.Put("/design-image", h.SetDesignImage)
		r.Delete("/design-image", h.RemoveDesignImage)
		r.Put("/note", h.SetNote)
		r.Put("/delivery", h.SetDelivery)

		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/reset", h.Reset)

		r.Post("/price", h.Price)
		r.Post("/checkout", h.Checkout)
	})
}

// --- Request / Response types ---

type createWizardRequest struct {
	Flow       string `json:"flow"`
	BaseCakeID string `json:"base_cake_id"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type countRequest struct {
	Count int `json:"count"`
}

type flavorFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type sizeFieldRequest struct {
	Field string `json:"field"`
	Value int    `json:"value"`
}

type sizeStepRequest struct {
	Field string `json:"field"`
	Delta int    `json:"delta"`
}

type deliveryRequest struct {
	Method  string `json:"method"`
	Address string `json:"address"`
	Date    string `json:"date"`
}

type flavorResponse struct {
	Flavor        string `json:"flavor"`
	Special       string `json:"special,omitempty"`
	Specification string `json:"specification,omitempty"`
}

type sizeResponse struct {
	Height   int `json:"height"`
	Diameter int `json:"diameter"`
	Length   int `json:"length"`
	Width    int `json:"width"`
}

type tierResponse struct {
	Number      int              `json:"number"`
	FlavorCount int              `json:"flavor_count"`
	Flavors     []flavorResponse `json:"flavors"`
	Size        sizeResponse     `json:"size"`
	SizeFields  []string         `json:"size_fields"`
}

type deliveryResponse struct {
	Method  string `json:"method"`
	Address string `json:"address,omitempty"`
	Date    string `json:"date"`
}

type draftResponse struct {
	BaseCakeID    string           `json:"base_cake_id,omitempty"`
	Shape         string           `json:"shape"`
	NumberOfTiers int              `json:"number_of_tiers"`
	Tiers         []tierResponse   `json:"tiers"`
	Covering      string           `json:"covering"`
	DesignImage   string           `json:"design_image,omitempty"`
	CustomerNote  string           `json:"customer_note"`
	Delivery      deliveryResponse `json:"delivery"`
}

type wizardResponse struct {
	ID         string        `json:"id"`
	Flow       string        `json:"flow"`
	Step       int           `json:"step"`
	TotalSteps int           `json:"total_steps"`
	Screen     string        `json:"screen"`
	Tier       int           `json:"tier,omitempty"`
	SubStep    string        `json:"sub_step,omitempty"`
	Draft      draftResponse `json:"draft"`
}

type checkoutResponse struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status,omitempty"`
	ChatLink string `json:"chat_link,omitempty"`
}

type priceResponse struct {
	Price    string `json:"price"`
	Currency string `json:"currency,omitempty"`
}

// --- Handlers ---

// Create handles POST /wizards.
func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}

	var req createWizardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Flow == "" {
		req.Flow = enum.OrderTypeCustom
	}
	flow, ok := wizard.FlowByName(req.Flow)
	if !ok || !flow.Tiered {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "flow must be custom or modify"})
		return
	}

	view, err := h.drafts.Create(sess.ID, flow, req.BaseCakeID)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWizardResponse(view))
}

// Get handles GET /wizards/{id}.
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	view, err := h.drafts.Get(sess.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(view))
}

// Delete handles DELETE /wizards/{id}.
func (h *WizardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	if err := h.drafts.Delete(sess.ID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) SetShape(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetShape(enum.Shape(req.Value))
	})
}

func (h *WizardHandler) SetTierCount(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.SetTierCount(req.Count)
		return nil
	})
}

func (h *WizardHandler) SetFlavorCount(w http.ResponseWriter, r *http.Request) {
	tier, ok := oneBasedParam(r, "tier")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}
	var req countRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetTierFlavorCount(tier, req.Count)
	})
}

// AddFlavor handles POST /wizards/{id}/tiers/{tier}/flavors. A full tier is
// left as is.
func (h *WizardHandler) AddFlavor(w http.ResponseWriter, r *http.Request) {
	tier, ok := oneBasedParam(r, "tier")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		_, err := wz.Draft.AppendFlavorIfRoom(tier)
		return err
	})
}

func (h *WizardHandler) SetFlavor(w http.ResponseWriter, r *http.Request) {
	tier, ok := oneBasedParam(r, "tier")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}
	flavor, ok := oneBasedParam(r, "flavor")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid flavor"})
		return
	}
	var req flavorFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetFlavorField(tier, flavor, wizard.FlavorField(req.Field), req.Value)
	})
}

func (h *WizardHandler) SetSize(w http.ResponseWriter, r *http.Request) {
	tier, ok := oneBasedParam(r, "tier")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}
	var req sizeFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetTierSizeField(tier, wizard.SizeField(req.Field), req.Value)
	})
}

// StepSize handles POST /wizards/{id}/tiers/{tier}/size/step, the +/- buttons.
func (h *WizardHandler) StepSize(w http.ResponseWriter, r *http.Request) {
	tier, ok := oneBasedParam(r, "tier")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}
	var req sizeStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		_, err := wz.Draft.StepTierSize(tier, wizard.SizeField(req.Field), req.Delta)
		return err
	})
}

func (h *WizardHandler) SetCovering(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetCovering(enum.Covering(req.Value))
	})
}

// SetDesignImage handles PUT /wizards/{id}/design-image (multipart field "image").
func (h *WizardHandler) SetDesignImage(w http.ResponseWriter, r *http.Request) {
	img, ok := readImage(w, r, "image")
	if !ok {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.Draft.SetDesignImage(&wizard.DesignImage{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Data:        img.Data,
		})
		return nil
	})
}

func (h *WizardHandler) RemoveDesignImage(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.Draft.SetDesignImage(nil)
		return nil
	})
}

func (h *WizardHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.Draft.SetNote(req.Value)
		return nil
	})
}

func (h *WizardHandler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Draft.SetDelivery(wizard.Delivery{
			Method:  enum.DeliveryMethod(req.Method),
			Address: req.Address,
			Date:    strings.TrimSpace(req.Date),
		})
	})
}

// Next handles POST /wizards/{id}/next. A blocked step answers 422 with the
// reason and leaves the wizard where it was.
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Next()
	})
}

func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.Back()
		return nil
	})
}

func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(wz *wizard.Wizard) error {
		wz.Reset()
		return nil
	})
}

// Price handles POST /wizards/{id}/price. Shape, tiers and flavors must be
// complete; covering and delivery are not needed for a quote.
func (h *WizardHandler) Price(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	view, err := h.drafts.Update(sess.ID, chi.URLParam(r, "id"), func(wz *wizard.Wizard) error {
		n := wz.Draft.NumberOfTiers
		for step := wizard.ShapeStep; step < wizard.CoveringStep(n); step++ {
			if err := wz.Gate().Check(wz.Draft, step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	quote, err := h.prices.CalculatePrice(r.Context(), sess.Token, checkout.BuildPayload(view.Draft))
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{Price: quote.Price.StringFixed(2), Currency: quote.Currency})
}

// Checkout handles POST /wizards/{id}/checkout. The wizard must be on its
// confirmation step with every step valid. The wizard is locked while the
// order is in flight and discarded once it is placed.
func (h *WizardHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	id := chi.URLParam(r, "id")

	view, err := h.drafts.BeginCheckout(sess.ID, id, func(wz *wizard.Wizard) error {
		return wz.ReadyForCheckout()
	})
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	res, err := h.submitter.Submit(r.Context(), sess, view.Draft, view.IdempotencyKey)
	h.drafts.FinishCheckout(sess.ID, id, err == nil)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}

	publishOrderCreated(h.hub, res, view.Flow, sess)
	writeJSON(w, http.StatusCreated, checkoutResponse{OrderID: res.OrderID, Status: res.Status, ChatLink: res.ChatLink})
}

// update applies fn to the caller's wizard and writes the resulting state.
func (h *WizardHandler) update(w http.ResponseWriter, r *http.Request, fn func(*wizard.Wizard) error) {
	sess := sessionOrFail(w, r)
	if sess == nil {
		return
	}
	view, err := h.drafts.Update(sess.ID, chi.URLParam(r, "id"), fn)
	if err != nil {
		respondError(w, r, h.sessions, err)
		return
	}
	writeJSON(w, http.StatusOK, toWizardResponse(view))
}

// --- Helpers ---

func publishOrderCreated(hub Broadcaster, res *checkout.Result, orderType string, sess *session.Session) {
	if hub == nil {
		return
	}
	event, err := ws.NewEvent(ws.EventOrderCreated, map[string]string{
		"order_id":      res.OrderID,
		"order_type":    orderType,
		"status":        res.Status,
		"customer_name": sess.User.Name,
	})
	if err != nil {
		log.Printf("ERROR: encode order event: %v", err)
		return
	}
	hub.Broadcast(ws.TopicAdminOrders, event)
}

// readImage reads one uploaded file from a multipart form.
func readImage(w http.ResponseWriter, r *http.Request, field string) (*backend.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDesignImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxDesignImageBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return nil, false
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " file is required"})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDesignImageBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read " + field})
		return nil, false
	}
	if len(data) > maxDesignImageBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image must be 5MB or smaller"})
		return nil, false
	}
	contentType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " must be an image"})
		return nil, false
	}
	return &backend.Image{Filename: hdr.Filename, ContentType: contentType, Data: data}, true
}

func toWizardResponse(v drafts.View) wizardResponse {
	resp := wizardResponse{
		ID:         v.ID,
		Flow:       v.Flow,
		Step:       v.Step,
		TotalSteps: v.TotalSteps,
		Screen:     string(v.Position.Screen),
		SubStep:    string(v.Position.SubStep),
		Draft:      toDraftResponse(v.Draft),
	}
	if v.Position.Tier >= 0 && v.Position.Screen == wizard.ScreenTier {
		resp.Tier = v.Position.Tier + 1
	}
	return resp
}

func toDraftResponse(d *wizard.OrderDraft) draftResponse {
	resp := draftResponse{
		BaseCakeID:    d.BaseCakeID,
		Shape:         string(d.Shape),
		NumberOfTiers: d.NumberOfTiers,
		Tiers:         make([]tierResponse, len(d.Tiers)),
		Covering:      string(d.Covering),
		CustomerNote:  d.CustomerNote,
		Delivery: deliveryResponse{
			Method:  string(d.Delivery.Method),
			Address: d.Delivery.Address,
			Date:    d.Delivery.Date,
		},
	}
	if d.DesignImage != nil {
		resp.DesignImage = d.DesignImage.Filename
	}
	fields := wizard.RequiredSizeFields(d.Shape)
	sizeFields := make([]string, len(fields))
	for i, f := range fields {
		sizeFields[i] = string(f)
	}
	for i, t := range d.Tiers {
		flavors := make([]flavorResponse, len(t.Flavors))
		for j, f := range t.Flavors {
			flavors[j] = flavorResponse{Flavor: string(f.Flavor), Special: string(f.Special), Specification: f.Specification}
		}
		resp.Tiers[i] = tierResponse{
			Number:      i + 1,
			FlavorCount: t.FlavorCount,
			Flavors:     flavors,
			Size: sizeResponse{
				Height:   t.Size.Height,
				Diameter: t.Size.Diameter,
				Length:   t.Size.Length,
				Width:    t.Size.Width,
			},
			SizeFields: sizeFields,
		}
	}
	return resp
}
