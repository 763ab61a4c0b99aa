package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freshcart/storefront/internal/domain/user"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Cart  user.Cart `json:"cartItems"`
}

// Register handles POST /api/user/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Name == "" || req.Email == "" || req.Password == "" {
		writeFailure(w, "Missing details")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zctx.From(r.Context()).Error("hash password failed", zap.Error(err))
		writeFailure(w, "could not register")
		return
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Cart:         user.Cart{},
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeFailure(w, "User already exists")
			return
		}
		zctx.From(r.Context()).Error("create user failed", zap.Error(err))
		writeFailure(w, "could not register")
		return
	}

	if err := h.sessions.IssueUser(w, u.ID); err != nil {
		zctx.From(r.Context()).Error("issue session failed", zap.Error(err))
		writeFailure(w, "could not register")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userView{Name: u.Name, Email: u.Email, Cart: u.Cart},
	})
}

// Login handles POST /api/user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Email == "" || req.Password == "" {
		writeFailure(w, "Email and password required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same message for unknown email and wrong password.
		writeFailure(w, "Invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeFailure(w, "Invalid email or password")
		return
	}

	if err := h.sessions.IssueUser(w, u.ID); err != nil {
		zctx.From(r.Context()).Error("issue session failed", zap.Error(err))
		writeFailure(w, "could not log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userView{Name: u.Name, Email: u.Email, Cart: u.Cart},
	})
}

// IsAuth handles GET /api/user/is-auth.
func (h *Handler) IsAuth(w http.ResponseWriter, r *http.Request, p Principal) {
	u, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"message": "User not found",
			})
			return
		}
		zctx.From(r.Context()).Error("is-auth lookup failed", zap.Error(err))
		writeFailure(w, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userView{Name: u.Name, Email: u.Email, Cart: u.Cart},
	})
}

// Logout handles POST /api/user/logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w, userCookie)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}
