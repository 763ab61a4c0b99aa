package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/freshcart/storefront/internal/domain/product"
)

func lineItem(offerPrice string, qty int) LineItem {
	return LineItem{
		Product:  product.Product{OfferPrice: decimal.RequireFromString(offerPrice)},
		Quantity: qty,
	}
}

func TestComputeAmount(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  string
	}{
		{
			name:  "no items",
			items: nil,
			want:  "0",
		},
		{
			name:  "single line with tax",
			items: []LineItem{lineItem("100", 2)},
			// subtotal 200, tax floor(200*0.02)=4
			want: "204",
		},
		{
			name:  "multiple lines",
			items: []LineItem{lineItem("10", 3), lineItem("45", 1)},
			// subtotal 75, tax floor(1.5)=1
			want: "76",
		},
		{
			name:  "fractional subtotal floored before tax",
			items: []LineItem{lineItem("33.40", 3)},
			// 100.20 -> floor 100, tax floor(2.00)=2
			want: "102",
		},
		{
			name:  "tax floors to zero on small totals",
			items: []LineItem{lineItem("49", 1)},
			// tax floor(0.98)=0
			want: "49",
		},
		{
			name:  "zero priced product",
			items: []LineItem{lineItem("0", 5)},
			want:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAmount(tt.items)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeAmount_TaxOnSummedSubtotalNotPerLine(t *testing.T) {
	// Two lines of 49 each: per-line tax would floor to 0 twice, but the
	// summed subtotal 98 yields floor(1.96)=1.
	got := ComputeAmount([]LineItem{lineItem("49", 1), lineItem("49", 1)})
	assert.True(t, decimal.RequireFromString("99").Equal(got), "got %s", got)
}
