package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/address"
)

type addAddressRequest struct {
	Address struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Street    string `json:"street"`
		City      string `json:"city"`
		State     string `json:"state"`
		Zipcode   string `json:"zipcode"`
		Country   string `json:"country"`
		Phone     string `json:"phone"`
	} `json:"address"`
}

// AddAddress handles POST /api/address/add.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request, p Principal) {
	var req addAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Address data is required",
		})
		return
	}

	a := &address.Address{
		ID:        uuid.New().String(),
		UserID:    p.UserID,
		FirstName: req.Address.FirstName,
		LastName:  req.Address.LastName,
		Email:     req.Address.Email,
		Street:    req.Address.Street,
		City:      req.Address.City,
		State:     req.Address.State,
		Zipcode:   req.Address.Zipcode,
		Country:   req.Address.Country,
		Phone:     req.Address.Phone,
	}
	if a.Street == "" || a.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Address data is required",
		})
		return
	}

	if err := h.addresses.Create(r.Context(), a); err != nil {
		zctx.From(r.Context()).Error("add address failed", zap.Error(err))
		writeFailure(w, "Failed to add address")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Address added successfully",
	})
}

// ListAddresses handles GET /api/address/list: the caller's addresses, newest
// first.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request, p Principal) {
	addresses, err := h.addresses.ListByUser(r.Context(), p.UserID)
	if err != nil {
		zctx.From(r.Context()).Error("list addresses failed", zap.Error(err))
		writeFailure(w, "Failed to fetch addresses")
		return
	}

	views := make([]*addressView, len(addresses))
	for i := range addresses {
		views[i] = addressToView(&addresses[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"addresses": views,
	})
}
