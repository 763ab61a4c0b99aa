package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType discriminates the two order-placement protocols. It is fixed at
// creation and never changes.
type PaymentType string

const (
	// PaymentCOD is cash on delivery: the order is final the moment it is
	// created and is never payment-gated.
	PaymentCOD PaymentType = "COD"
	// PaymentOnline is hosted-checkout payment: the order stays provisional
	// until the gateway confirms or expires it.
	PaymentOnline PaymentType = "Online"
)

// Order is a placed customer order. IsPaid is the only field that mutates
// after creation; together with PaymentType it decides listing visibility:
// an order is visible iff PaymentType == COD or IsPaid.
type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	Amount      decimal.Decimal
	AddressID   string
	PaymentType PaymentType
	IsPaid      bool
	CreatedAt   time.Time
}

// OrderItem is one line of an order. The product is a weak reference resolved
// at read time against the catalog, not an embedded snapshot.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
//
// MarkPaid and Delete are idempotent: marking an already-paid order paid and
// deleting a missing order are both no-ops. The webhook reconciler depends on
// this to tolerate at-least-once event delivery.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	MarkPaid(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListVisibleByUser(ctx context.Context, userID string) ([]Order, error)
	ListVisible(ctx context.Context) ([]Order, error)
}
