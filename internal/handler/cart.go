package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/user"
)

type updateCartRequest struct {
	CartItems map[string]int `json:"cartItems"`
}

// UpdateCart handles POST /api/cart/update: replace the caller's cart mapping
// wholesale. Zero and negative quantities are dropped so the stored mapping
// only contains live lines.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request, p Principal) {
	var req updateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CartItems == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "cartItems must be a valid object",
		})
		return
	}

	cart := make(user.Cart, len(req.CartItems))
	for id, qty := range req.CartItems {
		if qty > 0 {
			cart[id] = qty
		}
	}

	if err := h.users.SetCart(r.Context(), p.UserID, cart); err != nil {
		zctx.From(r.Context()).Error("cart update failed", zap.Error(err))
		writeFailure(w, "Failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Cart updated successfully",
		"cartItems": cart,
	})
}
