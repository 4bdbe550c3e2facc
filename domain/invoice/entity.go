package invoice

import (
	"time"
)

// Status represents the lifecycle state of an invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DefaultPaymentMethod is recorded when the caller does not supply one.
const DefaultPaymentMethod = "Cash"

// CanTransitionTo reports whether the status may move to next.
// Only pending invoices move, and only to a terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusCancelled)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Invoice is a priced cart recorded for a cashier.
type Invoice struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	PurchaseID    string     `gorm:"uniqueIndex;size:40;not null" json:"purchase_id"`
	InvoiceNumber string     `gorm:"uniqueIndex;size:24;not null" json:"invoice_number"`
	Lines         []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
	TotalCount    int        `gorm:"not null" json:"total_count"`
	Subtotal      float64    `gorm:"not null" json:"subtotal"`
	MRPTotal      float64    `gorm:"column:mrp_total;not null" json:"mrp_total"`
	OfferDiscount float64    `gorm:"not null;default:0" json:"offer_discount"`
	BillDiscount  float64    `gorm:"not null;default:0" json:"bill_discount"`
	DiscountTotal float64    `gorm:"not null;default:0" json:"discount_total"`
	TaxRate       float64    `gorm:"not null;default:0" json:"tax_rate"`
	TaxAmount     float64    `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount   float64    `gorm:"not null" json:"total_amount"`
	CashierID     string     `gorm:"size:36;not null" json:"cashier_id"`
	CashierName   string     `gorm:"size:100" json:"cashier_name"`
	CreatedBy     string     `gorm:"size:36;not null" json:"created_by"`
	PaymentMethod string     `gorm:"size:20;not null" json:"payment_method"`
	Status        Status     `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the table name for Invoice.
func (Invoice) TableName() string {
	return "invoices"
}

// LineItem is one cart line with the product snapshot used on the receipt.
type LineItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	InvoiceID string  `gorm:"size:36;not null;index" json:"-"`
	Position  int     `gorm:"not null" json:"position"`
	ProductID string  `gorm:"size:36;not null;index" json:"product_id"`
	Name      string  `gorm:"size:100;not null" json:"name"`
	BasePrice float64 `gorm:"not null" json:"base_price"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	LineTotal float64 `gorm:"not null" json:"line_total"`
}

// TableName returns the table name for LineItem.
func (LineItem) TableName() string {
	return "invoice_lines"
}

// Sequence is the per-year invoice number counter.
type Sequence struct {
	Year  int `gorm:"primaryKey;autoIncrement:false"`
	Value int `gorm:"not null"`
}

// TableName returns the table name for Sequence.
func (Sequence) TableName() string {
	return "invoice_sequences"
}
