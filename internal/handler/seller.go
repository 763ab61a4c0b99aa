package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// SellerLogin handles POST /api/seller/login. The seller is a single
// env-configured credential; comparison is constant-time to avoid leaking
// prefix matches.
func (h *Handler) SellerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Email == "" || req.Password == "" {
		writeFailure(w, "Email and password required")
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.sessions.sellerEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.sellerPassword)) == 1
	if !emailOK || !passOK {
		writeFailure(w, "Invalid credentials")
		return
	}

	if err := h.sessions.IssueSeller(w); err != nil {
		zctx.From(r.Context()).Error("issue seller session failed", zap.Error(err))
		writeFailure(w, "could not log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged in",
	})
}

// SellerIsAuth handles GET /api/seller/is-auth.
func (h *Handler) SellerIsAuth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SellerLogout handles POST /api/seller/logout.
func (h *Handler) SellerLogout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w, sellerCookie)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}
