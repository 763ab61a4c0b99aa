package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshcart/storefront/internal/domain/user"
	"github.com/freshcart/storefront/internal/payment"
)

// Reconciler applies verified gateway callback events to order state. It is
// stateless; every event is handled independently of the request that created
// the order.
type Reconciler struct {
	orders Repository
	users  user.Repository
}

// NewReconciler returns a Reconciler over the given stores.
func NewReconciler(orders Repository, users user.Repository) *Reconciler {
	return &Reconciler{orders: orders, users: users}
}

// HandleEvent dispatches one verified event.
//
// Completed marks the order paid and clears the user's cart. The two writes
// are independent single-document updates with no transaction tying them
// together, so each must be (and is) an absolute, idempotent set: redelivery
// of the same event is a no-op. Expired deletes the order outright; deleting
// an order that no longer exists is a no-op too. Unrecognized kinds are
// logged and acknowledged so the gateway stops retrying them.
func (r *Reconciler) HandleEvent(ctx context.Context, ev payment.Event) error {
	lg := zctx.From(ctx)

	switch ev.Kind {
	case payment.EventCompleted:
		if err := r.orders.MarkPaid(ctx, ev.OrderID); err != nil {
			return errors.Wrapf(err, "mark order %s paid", ev.OrderID)
		}
		if err := r.users.ClearCart(ctx, ev.UserID); err != nil {
			return errors.Wrapf(err, "clear cart for user %s", ev.UserID)
		}
		lg.Info("order paid",
			zap.String("order_id", ev.OrderID),
			zap.String("user_id", ev.UserID),
		)

	case payment.EventExpired:
		if err := r.orders.Delete(ctx, ev.OrderID); err != nil {
			return errors.Wrapf(err, "delete order %s", ev.OrderID)
		}
		lg.Info("unpaid order removed", zap.String("order_id", ev.OrderID))

	default:
		lg.Info("ignoring gateway event", zap.String("type", ev.Type))
	}

	return nil
}
