package payment

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// metadata keys carried on checkout sessions.
const (
	metaOrderID = "orderId"
	metaUserID  = "userId"
)

// StripeConfig holds credentials and presentation settings for the Stripe
// gateway.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// Currency is the ISO 4217 code used for all checkout sessions.
	Currency string
}

// StripeGateway implements Gateway and Verifier on top of the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

var (
	_ Gateway  = (*StripeGateway)(nil)
	_ Verifier = (*StripeGateway)(nil)
)

// NewStripeGateway constructs a StripeGateway with its own API client.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	currency := cfg.Currency
	if currency == "" {
		currency = "inr"
	}

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
	}
}

// CreateCheckoutSession creates a payment-mode hosted checkout session with
// one line item per checkout item and the order/user IDs attached as metadata.
// The caller is expected to pass a context with a deadline; Stripe calls
// inherit it.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(p.Items))
	for i, it := range p.Items {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metaOrderID, p.OrderID)
	params.AddMetadata(metaUserID, p.UserID)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header against the raw payload and
// maps the event to the reduced Event form. Checkout session completion maps
// to EventCompleted; expiry and async payment failure map to EventExpired;
// everything else is EventIgnored with no metadata extracted.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Wrap(ErrBadSignature, err.Error())
	}

	out := &Event{Type: string(ev.Type), Kind: EventIgnored}

	switch ev.Type {
	case "checkout.session.completed":
		out.Kind = EventCompleted
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		out.Kind = EventExpired
	default:
		return out, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return nil, errors.Wrap(err, "decode checkout session")
	}
	out.OrderID = cs.Metadata[metaOrderID]
	out.UserID = cs.Metadata[metaUserID]

	return out, nil
}
