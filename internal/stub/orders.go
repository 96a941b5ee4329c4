package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

const maxOrderBody = 10 << 20

func deliveryErrors(method, address, date string) []backend.FieldError {
	var errs []backend.FieldError
	switch method {
	case enum.DeliveryPickup.Wire():
	case enum.DeliveryDoorstep.Wire():
		if strings.TrimSpace(address) == "" {
			errs = append(errs, backend.FieldError{Field: "deliveryAddress", Message: "Delivery address is required"})
		}
	default:
		errs = append(errs, backend.FieldError{Field: "deliveryMethod", Message: "Delivery method must be pickup or delivery"})
	}
	if strings.TrimSpace(date) == "" {
		errs = append(errs, backend.FieldError{Field: "deliveryDate", Message: "Delivery date is required"})
	}
	return errs
}

// readOrderPayload accepts a JSON body or a multipart body with the JSON in
// "orderData" and an optional "designImage". It reports the image filename.
func readOrderPayload(r *http.Request) (backend.OrderPayload, string, error) {
	var p backend.OrderPayload
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := json.NewDecoder(r.Body).Decode(&p)
		return p, "", err
	}

	if err := r.ParseMultipartForm(maxOrderBody); err != nil {
		return p, "", err
	}
	if err := json.Unmarshal([]byte(r.FormValue("orderData")), &p); err != nil {
		return p, "", fmt.Errorf("orderData: %w", err)
	}
	f, hdr, err := r.FormFile("designImage")
	if err != nil {
		return p, "", nil
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return p, "", err
	}
	return p, hdr.Filename, nil
}

func (s *Server) createTieredOrder(orderType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, image, err := readOrderPayload(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid order body")
			return
		}

		errs := validatePayload(p)
		if !enum.ValidCovering(enum.Covering(p.Covering)) {
			errs = append(errs, backend.FieldError{Field: "covering", Message: "Covering is required"})
		}
		errs = append(errs, deliveryErrors(p.DeliveryMethod, p.DeliveryAddress, p.DeliveryDate)...)
		if orderType == enum.OrderTypeModify {
			if _, err := s.store.cake(backend.ResourceGallery, p.BaseCakeID); err != nil {
				errs = append(errs, backend.FieldError{Field: "baseCakeId", Message: "Base cake not found"})
			}
		}
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		p.OrderType = orderType

		u, err := s.store.userByID(claimsFrom(r).UserID.String())
		if err != nil {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		o, created := s.store.createOrder(r.Header.Get("Idempotency-Key"), order{
			Order: backend.Order{
				OrderType:       orderType,
				Status:          enum.OrderStatusPending,
				CustomerName:    u.Name,
				CustomerEmail:   u.Email,
				Total:           quote(p),
				DeliveryMethod:  p.DeliveryMethod,
				DeliveryAddress: p.DeliveryAddress,
				DeliveryDate:    p.DeliveryDate,
				Details:         &p,
				CreatedAt:       s.now().UTC(),
			},
			userID: u.ID,
		})
		if created && image != "" {
			s.store.addUpload(backend.Upload{
				OrderID:      o.ID,
				CustomerName: u.Name,
				ImageURL:     "/images/uploads/" + o.ID + "-" + slug(image),
				Note:         p.CustomerNote,
				CreatedAt:    o.CreatedAt,
			})
		}
		s.writeOrderResult(w, o, created)
	}
}

func (s *Server) createReadyMadeOrder(w http.ResponseWriter, r *http.Request) {
	var req backend.ReadyMadeOrder
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := deliveryErrors(req.DeliveryMethod, req.DeliveryAddress, req.DeliveryDate)
	if req.Quantity < 1 {
		errs = append(errs, backend.FieldError{Field: "quantity", Message: "Quantity must be at least 1"})
	}
	c, err := s.store.cake(backend.ResourceReadyMade, req.CakeID)
	if err != nil {
		errs = append(errs, backend.FieldError{Field: "cakeId", Message: "Cake not found"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	u, err := s.store.userByID(claimsFrom(r).UserID.String())
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	o, created := s.store.createOrder(r.Header.Get("Idempotency-Key"), order{
		Order: backend.Order{
			OrderType:       enum.OrderTypeReadyMade,
			Status:          enum.OrderStatusPending,
			CustomerName:    u.Name,
			CustomerEmail:   u.Email,
			Total:           c.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
			DeliveryMethod:  req.DeliveryMethod,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryDate:    req.DeliveryDate,
			CreatedAt:       s.now().UTC(),
		},
		userID: u.ID,
	})
	s.writeOrderResult(w, o, created)
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r).UserID.String()
	prev, err := s.store.orderFor(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	next := prev
	next.Status = enum.OrderStatusPending
	next.CreatedAt = s.now().UTC()
	if prev.Details != nil {
		d := *prev.Details
		next.Details = &d
	}
	o, _ := s.store.createOrder("", next)
	s.writeOrderResult(w, o, true)
}

func (s *Server) writeOrderResult(w http.ResponseWriter, o backend.Order, created bool) {
	status := http.StatusCreated
	msg := "Order placed"
	if !created {
		status = http.StatusOK
		msg = "Order already placed"
	}
	writeJSON(w, status, backend.OrderResult{
		OrderID:  o.ID,
		Status:   o.Status,
		ChatLink: chatLink(o),
		Message:  msg,
	})
}

func chatLink(o backend.Order) string {
	text := fmt.Sprintf("Hello! I'd like to pay for order %s (total %s).", o.ID, o.Total.StringFixed(2))
	return "https://wa.me/" + ChatNumber + "?text=" + url.QueryEscape(text)
}
