package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/address"
	"github.com/freshcart/storefront/internal/domain/order"
	"github.com/freshcart/storefront/internal/payment"
)

// maxWebhookBody bounds the raw payload read for signature verification.
const maxWebhookBody = 1 << 16

type placeOrderRequest struct {
	Items []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Address string `json:"address"`
}

func (req *placeOrderRequest) toDomain(userID string) order.PlaceRequest {
	items := make([]order.LineSelection, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.LineSelection{ProductID: it.Product, Quantity: it.Quantity}
	}
	return order.PlaceRequest{
		UserID:    userID,
		Items:     items,
		AddressID: req.Address,
	}
}

// PlaceOrderCOD handles POST /api/order/cod.
func (h *Handler) PlaceOrderCOD(w http.ResponseWriter, r *http.Request, p Principal) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if _, err := h.orderSvc.PlaceCOD(r.Context(), req.toDomain(p.UserID)); err != nil {
		h.writePlacementError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Order placed successfully",
	})
}

// PlaceOrderStripe handles POST /api/order/stripe. On success the response
// carries the hosted checkout redirect URL; payment completion arrives later
// via webhook.
func (h *Handler) PlaceOrderStripe(w http.ResponseWriter, r *http.Request, p Principal) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	result, err := h.orderSvc.PlaceOnline(r.Context(), req.toDomain(p.UserID))
	if err != nil {
		h.writePlacementError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     result.RedirectURL,
	})
}

// writePlacementError maps domain errors onto the uniform failure body.
// Placement endpoints keep answering HTTP 200 with success:false; the client
// dispatches on the body, not the status code.
func (h *Handler) writePlacementError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upErr *order.UnknownProductError
		iqErr *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrInvalidOrder):
		writeFailure(w, "Invalid order data")
	case errors.As(err, &upErr):
		writeFailure(w, upErr.Error())
	case errors.As(err, &iqErr):
		writeFailure(w, iqErr.Error())
	case errors.Is(err, payment.ErrUnavailable):
		zctx.From(r.Context()).Error("payment gateway unavailable", zap.Error(err))
		writeFailure(w, "payment gateway unavailable, please retry")
	default:
		zctx.From(r.Context()).Error("order placement failed", zap.Error(err))
		writeFailure(w, "could not place order")
	}
}

// PaymentWebhook handles POST /api/order/webhook. It must see the raw,
// unparsed body: signature verification covers the exact bytes sent by the
// gateway.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	ev, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		zctx.From(r.Context()).Warn("webhook rejected", zap.Error(err))
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	if err := h.reconciler.HandleEvent(r.Context(), *ev); err != nil {
		// Let the gateway retry: reconciliation is idempotent.
		zctx.From(r.Context()).Error("webhook reconciliation failed",
			zap.String("type", ev.Type),
			zap.Error(err),
		)
		http.Error(w, "reconciliation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

// GetUserOrders handles GET /api/order/user: the caller's visible orders,
// newest first.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request, p Principal) {
	orders, err := h.orders.ListVisibleByUser(r.Context(), p.UserID)
	if err != nil {
		zctx.From(r.Context()).Error("list user orders failed", zap.Error(err))
		writeFailure(w, "could not load orders")
		return
	}
	h.writeOrders(w, r, orders)
}

// GetAllOrders handles GET /api/order/seller: every visible order.
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListVisible(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list all orders failed", zap.Error(err))
		writeFailure(w, "could not load orders")
		return
	}
	h.writeOrders(w, r, orders)
}

// --- response assembly ---

type orderItemView struct {
	Product  *productView `json:"product"`
	Quantity int          `json:"quantity"`
}

type orderView struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []orderItemView `json:"items"`
	Amount      string          `json:"amount"`
	Address     *addressView    `json:"address"`
	PaymentType string          `json:"paymentType"`
	IsPaid      bool            `json:"isPaid"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type addressView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// writeOrders resolves product and address references at read time and writes
// the order list. A product deleted after purchase leaves a null product on
// the line rather than failing the whole listing.
func (h *Handler) writeOrders(w http.ResponseWriter, r *http.Request, orders []order.Order) {
	ctx := r.Context()

	views := make([]orderView, len(orders))
	for i, o := range orders {
		items := make([]orderItemView, len(o.Items))
		for j, it := range o.Items {
			view := orderItemView{Quantity: it.Quantity}
			if p, err := h.products.GetByID(ctx, it.ProductID); err == nil {
				pv := h.productToView(*p)
				view.Product = &pv
			}
			items[j] = view
		}

		var av *addressView
		if a, err := h.addresses.GetByID(ctx, o.AddressID); err == nil {
			av = addressToView(a)
		}

		views[i] = orderView{
			ID:          o.ID,
			UserID:      o.UserID,
			Items:       items,
			Amount:      o.Amount.String(),
			Address:     av,
			PaymentType: string(o.PaymentType),
			IsPaid:      o.IsPaid,
			CreatedAt:   o.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  views,
	})
}

func addressToView(a *address.Address) *addressView {
	return &addressView{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		Zipcode:   a.Zipcode,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}
