package billing

import (
	"math"

	"github.com/example/pos-billing/domain/product"
)

// CartLine is one requested product and quantity.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PricedLine is a cart line resolved against the catalog.
type PricedLine struct {
	ProductID string
	Name      string
	BasePrice float64
	UnitPrice float64
	Quantity  int
	LineTotal float64
}

// Totals are the computed money fields of an invoice.
type Totals struct {
	TotalCount    int
	Subtotal      float64
	MRPTotal      float64
	OfferDiscount float64
	BillDiscount  float64
	DiscountTotal float64
	TaxRate       float64
	TaxAmount     float64
	TotalAmount   float64
}

// PriceLine snapshots p for quantity units.
func PriceLine(p *product.Product, quantity int) PricedLine {
	unit := p.EffectivePrice()
	return PricedLine{
		ProductID: p.ID,
		Name:      p.Name,
		BasePrice: p.Price,
		UnitPrice: unit,
		Quantity:  quantity,
		LineTotal: round2(unit * float64(quantity)),
	}
}

// ComputeTotals prices the cart.
// With taxRate > 0 the bill discount is ignored and tax is added on top;
// otherwise the bill discount is clamped to [0, subtotal] and subtracted.
func ComputeTotals(lines []PricedLine, billDiscount, taxRate float64) Totals {
	var t Totals
	for _, l := range lines {
		t.TotalCount += l.Quantity
		t.Subtotal += l.LineTotal
		t.MRPTotal += l.BasePrice * float64(l.Quantity)
	}
	t.Subtotal = round2(t.Subtotal)
	t.MRPTotal = round2(t.MRPTotal)
	t.OfferDiscount = round2(t.MRPTotal - t.Subtotal)

	if taxRate > 0 {
		t.TaxRate = taxRate
		t.TaxAmount = round2(t.Subtotal * taxRate / 100)
		t.DiscountTotal = t.OfferDiscount
		t.TotalAmount = round2(t.Subtotal + t.TaxAmount)
		return t
	}

	t.BillDiscount = clampDiscount(billDiscount, t.Subtotal)
	t.DiscountTotal = round2(t.OfferDiscount + t.BillDiscount)
	t.TotalAmount = round2(t.Subtotal - t.BillDiscount)
	return t
}

func clampDiscount(requested, subtotal float64) float64 {
	if math.IsNaN(requested) || requested <= 0 {
		return 0
	}
	return round2(math.Min(requested, subtotal))
}

// round2 rounds half away from zero to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
