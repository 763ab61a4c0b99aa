package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/freshcart/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, items, amount, address_id, payment_type, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	markOrderPaidSQL = `UPDATE orders SET is_paid = TRUE WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	// Visibility predicate: COD orders are always listed, online orders only
	// once paid.
	listVisibleByUserSQL = `SELECT id, user_id, items, amount, address_id, payment_type, is_paid, created_at
		FROM orders
		WHERE user_id = $1 AND (payment_type = 'COD' OR is_paid)
		ORDER BY created_at DESC`

	listVisibleSQL = `SELECT id, user_id, items, amount, address_id, payment_type, is_paid, created_at
		FROM orders
		WHERE payment_type = 'COD' OR is_paid
		ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Items are
// stored in a JSONB column; single-row updates give the per-document
// atomicity the reconciliation path relies on.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Amount, o.AddressID, string(o.PaymentType), o.IsPaid,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// MarkPaid sets is_paid on the order. An absolute set: repeating it, or
// applying it to a missing order, changes nothing and reports no error.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, markOrderPaidSQL, id); err != nil {
		return fmt.Errorf("marking order %q paid: %w", id, err)
	}
	return nil
}

// Delete removes the order. Deleting a missing order is a no-op.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	return nil
}

// ListVisibleByUser returns the user's visible orders, newest first.
func (r *OrderRepository) ListVisibleByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listVisibleByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListVisible returns all visible orders across users, newest first.
func (r *OrderRepository) ListVisible(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listVisibleSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		itemsJSON   []byte
		amount      decimal.Decimal
		paymentType string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &itemsJSON, &amount, &o.AddressID, &paymentType, &o.IsPaid, &o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Amount = amount
	o.PaymentType = order.PaymentType(paymentType)
	return o, nil
}
