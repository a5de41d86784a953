// Package auth exposes registration, login and token verification for the
// HTTP API. Tokens are opaque bearer strings issued by the store.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/internal/transport"
	"github.com/Swatijha060/chatly/store"
)

type Service struct {
	Store store.Store
}

// UserHandler is an HTTP handler that additionally receives the
// authenticated user.
type UserHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

type authResponse struct {
	domain.User
	Token string `json:"token"`
}

// RegisterHandler handles POST /api/users/register.
func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := transport.ReadJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.Store.CreateUser(req.Username, req.Email, req.Password, req.IsAdmin)
	if errors.Is(err, store.ErrExists) {
		transport.WriteError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if errors.Is(err, store.ErrInvalidInput) {
		transport.WriteError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if err != nil {
		slog.Error("register failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := s.Store.IssueToken(user.ID)
	if err != nil {
		slog.Error("token issue failed", "userId", user.ID, "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	transport.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// LoginHandler handles POST /api/users/login.
func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := transport.ReadJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.Store.UserByCredentials(req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		transport.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := s.Store.IssueToken(user.ID)
	if err != nil {
		slog.Error("token issue failed", "userId", user.ID, "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	transport.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// MeHandler returns the authenticated user.
func (s *Service) MeHandler(w http.ResponseWriter, _ *http.Request, user domain.User) {
	transport.WriteJSON(w, http.StatusOK, user)
}

// RequireUser verifies the bearer token and passes the resolved user on.
func (s *Service) RequireUser(next UserHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.userFromRequest(r)
		if !ok {
			transport.WriteError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next(w, r, user)
	}
}

// RequireAdmin is RequireUser plus an admin check.
func (s *Service) RequireAdmin(next UserHandler) http.HandlerFunc {
	return s.RequireUser(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !user.IsAdmin {
			transport.WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, user)
	})
}

func (s *Service) userFromRequest(r *http.Request) (domain.User, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return domain.User{}, false
	}
	token := strings.TrimSpace(header[7:])
	if token == "" {
		return domain.User{}, false
	}
	return s.Store.UserByToken(token)
}
