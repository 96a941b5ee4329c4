package stub

import (
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

func (s *Server) listPublic(res backend.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.store.listCakes(res, backend.ListParams{}))
	}
}

var sizeNumber = regexp.MustCompile(`\d+`)

// Pricing used by the stub. Each tier costs a base plus its volume in cubic
// inches; coverings and dietary tags add a flat amount.
var (
	tierBase       = decimal.NewFromInt(20)
	perCubicInch   = decimal.RequireFromString("0.05")
	specialFlavor  = decimal.NewFromInt(4)
	coveringPrices = map[string]decimal.Decimal{
		string(enum.CoveringFondant):      decimal.NewFromInt(15),
		string(enum.CoveringButtercream):  decimal.NewFromInt(8),
		string(enum.CoveringWhippedCream): decimal.NewFromInt(6),
	}
)

// quote prices an order payload.
func quote(p backend.OrderPayload) decimal.Decimal {
	total := coveringPrices[p.Covering]
	for _, t := range p.Tiers {
		volume := int64(1)
		for _, n := range sizeNumber.FindAllString(t.Size, -1) {
			v, _ := strconv.ParseInt(n, 10, 64)
			volume *= v
		}
		total = total.Add(tierBase).Add(perCubicInch.Mul(decimal.NewFromInt(volume)))
		for _, f := range t.Flavors {
			if f.Special != "" {
				total = total.Add(specialFlavor)
			}
		}
	}
	return total.Round(2)
}

func validatePayload(p backend.OrderPayload) []backend.FieldError {
	var errs []backend.FieldError
	if !enum.ValidShape(enum.Shape(p.Shape)) {
		errs = append(errs, backend.FieldError{Field: "shape", Message: "Shape is required"})
	}
	if p.NumberOfTiers < 1 || len(p.Tiers) != p.NumberOfTiers {
		errs = append(errs, backend.FieldError{Field: "tiers", Message: "Tier details do not match the number of tiers"})
	}
	for _, t := range p.Tiers {
		if len(t.Flavors) != t.NumberOfFlavors || len(t.Flavors) == 0 {
			errs = append(errs, backend.FieldError{Field: "tiers", Message: "Tier " + strconv.Itoa(t.TierNumber) + " flavors are incomplete"})
		}
	}
	return errs
}

func (s *Server) calculatePrice(w http.ResponseWriter, r *http.Request) {
	var p backend.OrderPayload
	if !decodeJSON(w, r, &p) {
		return
	}
	if errs := validatePayload(p); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusOK, backend.PriceQuote{Price: quote(p), Currency: "USD"})
}

// --- Reviews ---

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"reviews": s.store.listReviews(r.URL.Query().Get("cakeId"))})
}

func reviewErrors(in backend.ReviewInput) []backend.FieldError {
	var errs []backend.FieldError
	if in.Rating < 1 || in.Rating > 5 {
		errs = append(errs, backend.FieldError{Field: "rating", Message: "Rating must be between 1 and 5"})
	}
	if strings.TrimSpace(in.Comment) == "" {
		errs = append(errs, backend.FieldError{Field: "comment", Message: "Comment is required"})
	}
	return errs
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var in backend.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := reviewErrors(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	claims := claimsFrom(r)
	u, err := s.store.userByID(claims.UserID.String())
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	rv := s.store.addReview(backend.Review{
		CakeID:    in.CakeID,
		UserID:    u.ID,
		UserName:  u.Name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now().UTC(),
	})
	writeJSON(w, http.StatusCreated, rv)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	var in backend.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := reviewErrors(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	claims := claimsFrom(r)
	rv, err := s.store.updateReview(claims.UserID.String(), claims.Role == enum.UserRoleAdmin, chi.URLParam(r, "id"), func(rv *backend.Review) {
		rv.Rating = in.Rating
		rv.Comment = strings.TrimSpace(in.Comment)
	})
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Review not found")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if err := s.store.deleteReview(claims.UserID.String(), claims.Role == enum.UserRoleAdmin, chi.URLParam(r, "id")); err != nil {
		writeMessage(w, http.StatusNotFound, "Review not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Contact ---

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var msg backend.ContactMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	var errs []backend.FieldError
	if strings.TrimSpace(msg.Name) == "" {
		errs = append(errs, backend.FieldError{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		errs = append(errs, backend.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if strings.TrimSpace(msg.Message) == "" {
		errs = append(errs, backend.FieldError{Field: "message", Message: "Message is required"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	if !s.store.allowContact(strings.ToLower(msg.Email), s.now(), contactLimit, contactWindow) {
		writeMessage(w, http.StatusTooManyRequests, "Too many messages, please try again later")
		return
	}
	writeMessage(w, http.StatusOK, "Message received")
}
