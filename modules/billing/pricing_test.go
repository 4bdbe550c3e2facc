package billing

import (
	"math"
	"testing"

	"github.com/example/pos-billing/domain/product"
)

func floatPtr(v float64) *float64 { return &v }

func TestPriceLine(t *testing.T) {
	tests := []struct {
		name      string
		product   product.Product
		quantity  int
		wantUnit  float64
		wantTotal float64
	}{
		{
			name:      "offer price wins",
			product:   product.Product{ID: "p1", Name: "Tea", Price: 10, OfferPrice: floatPtr(8)},
			quantity:  2,
			wantUnit:  8,
			wantTotal: 16,
		},
		{
			name:      "base price without offer",
			product:   product.Product{ID: "p2", Name: "Milk", Price: 2.25},
			quantity:  3,
			wantUnit:  2.25,
			wantTotal: 6.75,
		},
		{
			name:      "zero offer price is still an offer",
			product:   product.Product{ID: "p3", Name: "Sample", Price: 5, OfferPrice: floatPtr(0)},
			quantity:  4,
			wantUnit:  0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := PriceLine(&tt.product, tt.quantity)
			if line.UnitPrice != tt.wantUnit {
				t.Errorf("UnitPrice = %v, want %v", line.UnitPrice, tt.wantUnit)
			}
			if line.LineTotal != tt.wantTotal {
				t.Errorf("LineTotal = %v, want %v", line.LineTotal, tt.wantTotal)
			}
			if line.BasePrice != tt.product.Price {
				t.Errorf("BasePrice = %v, want %v", line.BasePrice, tt.product.Price)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	tea := PriceLine(&product.Product{ID: "p1", Name: "Tea", Price: 10, OfferPrice: floatPtr(8)}, 2)
	milk := PriceLine(&product.Product{ID: "p2", Name: "Milk", Price: 2.5}, 4)

	tests := []struct {
		name         string
		lines        []PricedLine
		billDiscount float64
		taxRate      float64
		want         Totals
	}{
		{
			name:         "offer and bill discount",
			lines:        []PricedLine{tea},
			billDiscount: 5,
			want: Totals{
				TotalCount:    2,
				Subtotal:      16,
				MRPTotal:      20,
				OfferDiscount: 4,
				BillDiscount:  5,
				DiscountTotal: 9,
				TotalAmount:   11,
			},
		},
		{
			name:         "negative bill discount floors at zero",
			lines:        []PricedLine{tea},
			billDiscount: -5,
			want: Totals{
				TotalCount:    2,
				Subtotal:      16,
				MRPTotal:      20,
				OfferDiscount: 4,
				DiscountTotal: 4,
				TotalAmount:   16,
			},
		},
		{
			name:         "bill discount capped at subtotal",
			lines:        []PricedLine{tea},
			billDiscount: 100,
			want: Totals{
				TotalCount:    2,
				Subtotal:      16,
				MRPTotal:      20,
				OfferDiscount: 4,
				BillDiscount:  16,
				DiscountTotal: 20,
				TotalAmount:   0,
			},
		},
		{
			name:         "NaN bill discount ignored",
			lines:        []PricedLine{milk},
			billDiscount: math.NaN(),
			want: Totals{
				TotalCount:  4,
				Subtotal:    10,
				MRPTotal:    10,
				TotalAmount: 10,
			},
		},
		{
			name:         "tax mode ignores bill discount",
			lines:        []PricedLine{tea, milk},
			billDiscount: 5,
			taxRate:      18,
			want: Totals{
				TotalCount:    6,
				Subtotal:      26,
				MRPTotal:      30,
				OfferDiscount: 4,
				DiscountTotal: 4,
				TaxRate:       18,
				TaxAmount:     4.68,
				TotalAmount:   30.68,
			},
		},
		{
			name:  "empty lines",
			lines: nil,
			want:  Totals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, tt.billDiscount, tt.taxRate)
			if got != tt.want {
				t.Errorf("ComputeTotals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeTotals_BillDiscountBounds(t *testing.T) {
	lines := []PricedLine{
		PriceLine(&product.Product{ID: "p1", Name: "Rice", Price: 7.99}, 3),
	}

	for _, discount := range []float64{-100, -0.01, 0, 0.01, 12.5, 23.97, 23.98, 1e9} {
		got := ComputeTotals(lines, discount, 0)
		if got.BillDiscount < 0 || got.BillDiscount > got.Subtotal {
			t.Errorf("discount %v: BillDiscount = %v, want within [0, %v]", discount, got.BillDiscount, got.Subtotal)
		}
		if got.TotalAmount < 0 {
			t.Errorf("discount %v: TotalAmount = %v, want >= 0", discount, got.TotalAmount)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.004, 1.0},
		{10.0 / 3.0, 3.33},
		{2.5, 2.5},
		{-0.125, -0.13},
		{0.125, 0.13},
	}

	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
