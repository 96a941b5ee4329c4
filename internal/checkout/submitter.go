package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/wizard"
)

// ErrDuplicateSubmission means an order with the same idempotency key is
// already on its way to the backend.
var ErrDuplicateSubmission = errors.New("this order is already being submitted")

// OrderAPI is the part of the backend client that creates orders.
// Satisfied by *backend.Client; narrow interface for testability.
type OrderAPI interface {
	CreateCustomCakeOrder(ctx context.Context, token string, payload backend.OrderPayload, img *backend.Image, opts ...backend.RequestOption) (*backend.OrderResult, error)
	CreateModifyCakeOrder(ctx context.Context, token string, payload backend.OrderPayload, img *backend.Image, opts ...backend.RequestOption) (*backend.OrderResult, error)
	CreateReadyMadeOrder(ctx context.Context, token string, order backend.ReadyMadeOrder, opts ...backend.RequestOption) (*backend.OrderResult, error)
}

// Result is what the customer needs after a successful order: its id and
// the chat link used to arrange payment.
type Result struct {
	OrderID  string
	Status   string
	ChatLink string
}

// ReadyMade is a checkout of a catalog cake.
type ReadyMade struct {
	CakeID   string
	Quantity int
	Note     string
	Delivery wizard.Delivery
}

// Submitter sends orders to the backend. It never retries.
type Submitter struct {
	api OrderAPI
	now func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSubmitter(api OrderAPI, now func() time.Time) *Submitter {
	if now == nil {
		now = time.Now
	}
	return &Submitter{api: api, now: now, inflight: make(map[string]struct{})}
}

// Submit sends a custom or modify draft. Delivery details are validated
// again here, whatever the wizard step says.
func (s *Submitter) Submit(ctx context.Context, sess *session.Session, d *wizard.OrderDraft, key string) (*Result, error) {
	if sess == nil || sess.Token == "" {
		return nil, session.ErrUnauthenticated
	}
	if !d.Flow.Tiered {
		return nil, fmt.Errorf("%s orders go through SubmitReadyMade", d.Flow.Name)
	}
	if err := wizard.CheckDelivery(d.Delivery, s.now()); err != nil {
		return nil, err
	}

	release, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	defer release()

	snap := d.Clone()
	payload := BuildPayload(snap)
	var img *backend.Image
	if snap.DesignImage != nil {
		img = &backend.Image{
			Filename:    snap.DesignImage.Filename,
			ContentType: snap.DesignImage.ContentType,
			Data:        snap.DesignImage.Data,
		}
	}

	create := s.api.CreateCustomCakeOrder
	if snap.Flow.RequireBaseCake {
		create = s.api.CreateModifyCakeOrder
	}
	res, err := create(ctx, sess.Token, payload, img, backend.WithIdempotencyKey(key))
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// SubmitReadyMade orders a catalog cake as is.
func (s *Submitter) SubmitReadyMade(ctx context.Context, sess *session.Session, o ReadyMade, key string) (*Result, error) {
	if sess == nil || sess.Token == "" {
		return nil, session.ErrUnauthenticated
	}
	if strings.TrimSpace(o.CakeID) == "" {
		return nil, &wizard.StepError{Message: "Please choose a cake"}
	}
	if err := wizard.CheckDelivery(o.Delivery, s.now()); err != nil {
		return nil, err
	}
	if o.Quantity <= 0 {
		o.Quantity = 1
	}

	release, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	defer release()

	order := backend.ReadyMadeOrder{
		CakeID:         o.CakeID,
		Quantity:       o.Quantity,
		CustomerNote:   strings.TrimSpace(o.Note),
		DeliveryMethod: o.Delivery.Method.Wire(),
		DeliveryDate:   o.Delivery.Date,
	}
	if o.Delivery.Method == enum.DeliveryDoorstep {
		order.DeliveryAddress = strings.TrimSpace(o.Delivery.Address)
	}
	res, err := s.api.CreateReadyMadeOrder(ctx, sess.Token, order, backend.WithIdempotencyKey(key))
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// acquire marks key as in flight. An empty key is not guarded.
func (s *Submitter) acquire(key string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, ErrDuplicateSubmission
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

func toResult(r *backend.OrderResult) *Result {
	return &Result{OrderID: r.OrderID, Status: r.Status, ChatLink: r.ChatLink}
}
