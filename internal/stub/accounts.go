package stub

import (
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/enum"
)

const minPasswordLength = 8

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req backend.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.store.authenticate(req.Email, req.Password)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.writeAuth(w, http.StatusOK, u)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req backend.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs []backend.FieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, backend.FieldError{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, backend.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(req.Password) < minPasswordLength {
		errs = append(errs, backend.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	u, err := s.store.createUser(strings.TrimSpace(req.Name), req.Email, strings.TrimSpace(req.Phone), req.Password, enum.UserRoleCustomer)
	if errors.Is(err, errEmailTaken) {
		writeFieldErrors(w, []backend.FieldError{{Field: "email", Message: "Email is already registered"}})
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not create account")
		return
	}
	s.writeAuth(w, http.StatusCreated, u)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, u *user) {
	token, err := s.issueToken(u)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, status, backend.AuthResponse{Token: token, User: u.User})
}

// forgotPassword always succeeds so it never reveals whether an account exists.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeMessage(w, http.StatusOK, "If the email is registered, a reset link has been sent")
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.userByID(claimsFrom(r).UserID.String())
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req backend.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.store.updateUser(claimsFrom(r).UserID.String(), func(u *user) error {
		if name := strings.TrimSpace(req.Name); name != "" {
			u.Name = name
		}
		if phone := strings.TrimSpace(req.Phone); phone != "" {
			u.Phone = phone
		}
		return nil
	})
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) uploadPicture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	f, hdr, err := r.FormFile("profilePicture")
	if err != nil {
		writeFieldErrors(w, []backend.FieldError{{Field: "profilePicture", Message: "Picture is required"}})
		return
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read picture")
		return
	}

	id := claimsFrom(r).UserID.String()
	u, err := s.store.updateUser(id, func(u *user) error {
		u.ProfilePicture = "/images/profiles/" + id + "-" + slug(hdr.Filename)
		return nil
	})
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) updateEmail(w http.ResponseWriter, r *http.Request) {
	var req backend.EmailUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	id := claimsFrom(r).UserID.String()
	if !s.checkPassword(id, req.Password) {
		writeFieldErrors(w, []backend.FieldError{{Field: "password", Message: "Password is incorrect"}})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeFieldErrors(w, []backend.FieldError{{Field: "email", Message: "A valid email is required"}})
		return
	}
	if err := s.store.changeEmail(id, req.Email); err != nil {
		if errors.Is(err, errEmailTaken) {
			writeFieldErrors(w, []backend.FieldError{{Field: "email", Message: "Email is already registered"}})
			return
		}
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "Email updated")
}

func (s *Server) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req backend.PasswordUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	id := claimsFrom(r).UserID.String()
	if !s.checkPassword(id, req.CurrentPassword) {
		writeFieldErrors(w, []backend.FieldError{{Field: "currentPassword", Message: "Password is incorrect"}})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeFieldErrors(w, []backend.FieldError{{Field: "newPassword", Message: "Password must be at least 8 characters"}})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not update password")
		return
	}
	if _, err := s.store.updateUser(id, func(u *user) error {
		u.hashedPassword = hash
		return nil
	}); err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}

func (s *Server) checkPassword(userID, password string) bool {
	u, err := s.store.userByID(userID)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.hashedPassword, []byte(password)) == nil
}
