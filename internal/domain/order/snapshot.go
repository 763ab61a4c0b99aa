package order

import (
	"context"
	"fmt"

	"github.com/freshcart/storefront/internal/domain/product"
)

// UnknownProductError indicates a declared item references a product that does
// not exist (or was deleted). Placement fails rather than silently dropping
// the line, which would change the total without telling the caller.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// LineSelection is a client-declared (product, quantity) pair, as submitted at
// checkout.
type LineSelection struct {
	ProductID string
	Quantity  int
}

// LineItem is a selection resolved against the live catalog. Pricing is live:
// the product carries its current offer price, not the price at cart-add time.
type LineItem struct {
	Product  product.Product
	Quantity int
}

// SnapshotBuilder materializes priced line items from client-declared
// selections. It only reads; nothing is persisted.
type SnapshotBuilder struct {
	products product.Repository
}

// NewSnapshotBuilder returns a SnapshotBuilder backed by the given catalog.
func NewSnapshotBuilder(products product.Repository) *SnapshotBuilder {
	return &SnapshotBuilder{products: products}
}

// Build validates quantities, fetches all referenced products in one batch,
// and returns one line item per selection in input order.
func (b *SnapshotBuilder) Build(ctx context.Context, selections []LineSelection) ([]LineItem, error) {
	ids := make([]string, len(selections))
	for i, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: sel.ProductID}
		}
		ids[i] = sel.ProductID
	}

	fetched, err := b.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]LineItem, 0, len(selections))
	for _, sel := range selections {
		p, ok := byID[sel.ProductID]
		if !ok {
			return nil, &UnknownProductError{ProductID: sel.ProductID}
		}
		items = append(items, LineItem{Product: p, Quantity: sel.Quantity})
	}

	return items, nil
}
