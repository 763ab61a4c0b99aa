// Package payment defines the hosted-checkout gateway boundary and its Stripe
// implementation. The rest of the application only sees the Gateway and
// Verifier interfaces, so tests can substitute fakes without touching Stripe.
package payment

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnavailable wraps gateway transport failures so callers can distinguish
// "gateway down" from validation problems.
var ErrUnavailable = errors.New("payment gateway unavailable")

// ErrBadSignature is returned by VerifyEvent when the webhook signature does
// not match the shared secret.
var ErrBadSignature = errors.New("webhook signature verification failed")

// CheckoutItem is one gateway-facing line item. UnitAmount is in minor
// currency units (cents/paise) and already includes per-line tax.
type CheckoutItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// CheckoutParams describes a hosted checkout session to create. OrderID and
// UserID travel as opaque metadata and come back on webhook events.
type CheckoutParams struct {
	OrderID    string
	UserID     string
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

// Session is a created hosted checkout session. URL is where the customer is
// redirected to complete payment.
type Session struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions with an external payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
}

// EventKind classifies inbound gateway callback events.
type EventKind string

const (
	// EventCompleted signals a successfully paid checkout session.
	EventCompleted EventKind = "completed"
	// EventExpired signals a session that expired or whose payment failed.
	EventExpired EventKind = "expired"
	// EventIgnored is any event kind this system does not act on.
	EventIgnored EventKind = "ignored"
)

// Event is a verified gateway callback, reduced to what reconciliation needs.
type Event struct {
	Kind    EventKind
	Type    string
	OrderID string
	UserID  string
}

// Verifier authenticates a raw webhook payload against its signature header
// and extracts the correlation metadata.
type Verifier interface {
	VerifyEvent(payload []byte, signature string) (*Event, error)
}
