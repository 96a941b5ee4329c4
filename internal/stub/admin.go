package stub

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.stats())
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.listOrders(listParams(r)))
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !enum.ValidOrderStatus(req.Status) {
		writeFieldErrors(w, []backend.FieldError{{Field: "status", Message: "Unknown order status"}})
		return
	}
	o, err := s.store.setOrderStatus(chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// resourceParam reads {resource}, a backend collection name such as
// "cake-gallery"; ok is false after a 404 was written.
func resourceParam(w http.ResponseWriter, r *http.Request) (backend.Resource, bool) {
	res, ok := backend.ResourceFromBackendName(chi.URLParam(r, "resource"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Unknown resource")
		return "", false
	}
	return res, true
}

func (s *Server) adminList(w http.ResponseWriter, r *http.Request) {
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if res == backend.ResourceUploads {
		writeJSON(w, http.StatusOK, s.store.listUploads(listParams(r)))
		return
	}
	writeJSON(w, http.StatusOK, s.store.listCakes(res, listParams(r)))
}

func cakeErrors(in backend.CakeInput) []backend.FieldError {
	var errs []backend.FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, backend.FieldError{Field: "name", Message: "Name is required"})
	}
	if in.Price.IsNegative() {
		errs = append(errs, backend.FieldError{Field: "price", Message: "Price cannot be negative"})
	}
	if in.Shape != "" && !enum.ValidShape(enum.Shape(in.Shape)) {
		errs = append(errs, backend.FieldError{Field: "shape", Message: "Unknown shape"})
	}
	return errs
}

func (s *Server) adminCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if res == backend.ResourceUploads {
		writeMessage(w, http.StatusMethodNotAllowed, "Uploads are created with orders")
		return
	}
	if err := r.ParseMultipartForm(maxOrderBody); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	var in backend.CakeInput
	if err := json.Unmarshal([]byte(r.FormValue("data")), &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid cake data")
		return
	}
	errs := cakeErrors(in)
	f, hdr, err := r.FormFile("image")
	if err != nil {
		errs = append(errs, backend.FieldError{Field: "image", Message: "Image is required"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read image")
		return
	}

	c := s.store.addCake(res, backend.Cake{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Shape:       in.Shape,
		Tiers:       in.Tiers,
		Flavors:     in.Flavors,
		Price:       in.Price,
		ImageURL:    "/images/" + string(res) + "/" + slug(hdr.Filename),
		CreatedAt:   s.now().UTC(),
	})
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) adminUpdate(w http.ResponseWriter, r *http.Request) {
	res, ok := resourceParam(w, r)
	if !ok {
		return
	}
	if res == backend.ResourceUploads {
		writeMessage(w, http.StatusMethodNotAllowed, "Uploads cannot be edited")
		return
	}
	var in backend.CakeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := cakeErrors(in); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	c, err := s.store.updateCake(res, chi.URLParam(r, "id"), in)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) adminSetDeleted(deleted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := resourceParam(w, r)
		if !ok {
			return
		}
		if err := s.store.setDeleted(res, chi.URLParam(r, "id"), deleted); err != nil {
			writeMessage(w, http.StatusNotFound, "Item not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
