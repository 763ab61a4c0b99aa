package order

import "github.com/shopspring/decimal"

// TaxRate is the flat tax applied to every order total.
var TaxRate = decimal.RequireFromString("0.02")

// ComputeAmount returns the order total including tax:
//
//	amount = floor(sum(offerPrice_i * qty_i)); amount += floor(amount * TaxRate)
//
// Tax is computed once on the floored subtotal, never per line; the order of
// operations is load-bearing for reproducing exact totals. The function is
// total over non-negative prices and quantities and does not depend on the
// payment type.
func ComputeAmount(items []LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.Product.OfferPrice.Mul(qty))
	}

	amount := subtotal.Floor()
	return amount.Add(amount.Mul(TaxRate).Floor())
}
