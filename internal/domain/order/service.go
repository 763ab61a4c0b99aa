package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/product"
	"github.com/freshcart/storefront/internal/payment"
)

// ErrInvalidOrder rejects placement requests missing an address or items.
var ErrInvalidOrder = errors.New("address and at least one item are required")

// DefaultGatewayTimeout bounds the blocking checkout-session call made from
// the request path.
const DefaultGatewayTimeout = 10 * time.Second

// PlaceRequest holds the input for placing an order. UserID is the
// authenticated principal, injected by the transport layer.
type PlaceRequest struct {
	UserID    string
	Items     []LineSelection
	AddressID string
}

// PlaceResult is the outcome of a successful placement. RedirectURL is only
// set for online orders.
type PlaceResult struct {
	Order       *Order
	RedirectURL string
}

// Service orchestrates snapshot building, amount calculation, persistence and
// (for online orders) the payment gateway.
type Service struct {
	snapshots      *SnapshotBuilder
	orders         Repository
	gateway        payment.Gateway
	gatewayTimeout time.Duration

	// SuccessURL and CancelURL are where the gateway redirects the customer
	// after checkout.
	successURL string
	cancelURL  string
}

// ServiceConfig holds non-dependency settings for the order service.
type ServiceConfig struct {
	SuccessURL     string
	CancelURL      string
	GatewayTimeout time.Duration
}

// NewService creates an order Service.
func NewService(
	cfg ServiceConfig,
	products product.Repository,
	orders Repository,
	gateway payment.Gateway,
) *Service {
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &Service{
		snapshots:      NewSnapshotBuilder(products),
		orders:         orders,
		gateway:        gateway,
		gatewayTimeout: timeout,
		successURL:     cfg.SuccessURL,
		cancelURL:      cfg.CancelURL,
	}
}

// PlaceCOD places a cash-on-delivery order. The order is final on creation:
// visible immediately, never payment-gated.
func (s *Service) PlaceCOD(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	o, _, err := s.createOrder(ctx, req, PaymentCOD)
	if err != nil {
		return nil, err
	}
	return &PlaceResult{Order: o}, nil
}

// PlaceOnline places an online order and requests a hosted checkout session.
// The order is persisted unpaid before the gateway call; the response does
// not wait for payment. If session creation fails the just-created order is
// deleted as a compensating action so no orphaned unpaid order is left
// behind.
func (s *Service) PlaceOnline(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	o, items, err := s.createOrder(ctx, req, PaymentOnline)
	if err != nil {
		return nil, err
	}

	// One gateway line item per product, priced per line with tax. The
	// gateway-facing total may diverge from the stored amount by a few minor
	// units because the two round independently; the stored amount stays
	// authoritative.
	checkoutItems := make([]payment.CheckoutItem, len(items))
	for i, it := range items {
		unit := it.Product.OfferPrice.Add(it.Product.OfferPrice.Mul(TaxRate)).Floor()
		checkoutItems[i] = payment.CheckoutItem{
			Name:       it.Product.Name,
			UnitAmount: unit.Mul(decimal.NewFromInt(100)).IntPart(),
			Quantity:   it.Quantity,
		}
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	sess, err := s.gateway.CreateCheckoutSession(gwCtx, payment.CheckoutParams{
		OrderID:    o.ID,
		UserID:     req.UserID,
		Items:      checkoutItems,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		// Compensate: without a session no webhook will ever reference this
		// order, so keeping it would strand it unpaid forever.
		if delErr := s.orders.Delete(ctx, o.ID); delErr != nil {
			zctx.From(ctx).Error("compensating order delete failed",
				zap.String("order_id", o.ID),
				zap.Error(delErr),
			)
		}
		return nil, errors.Wrap(err, "create checkout session")
	}

	return &PlaceResult{Order: o, RedirectURL: sess.URL}, nil
}

// createOrder runs the shared placement steps: validate, snapshot, price,
// persist.
func (s *Service) createOrder(ctx context.Context, req PlaceRequest, pt PaymentType) (*Order, []LineItem, error) {
	if req.AddressID == "" || len(req.Items) == 0 {
		return nil, nil, ErrInvalidOrder
	}

	items, err := s.snapshots.Build(ctx, req.Items)
	if err != nil {
		return nil, nil, err
	}

	orderItems := make([]OrderItem, len(req.Items))
	for i, sel := range req.Items {
		orderItems[i] = OrderItem{ProductID: sel.ProductID, Quantity: sel.Quantity}
	}

	o := &Order{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Items:       orderItems,
		Amount:      ComputeAmount(items),
		AddressID:   req.AddressID,
		PaymentType: pt,
		IsPaid:      false,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, nil, errors.Wrap(err, "create order")
	}

	return o, items, nil
}
