package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// InvoiceLine is the stock-relevant part of an invoice line carried in events.
type InvoiceLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// InvoicePreparedEvent is emitted when a pending invoice is created.
type InvoicePreparedEvent struct {
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CashierID     string    `json:"cashier_id"`
	TotalAmount   float64   `json:"total_amount"`
	PreparedAt    time.Time `json:"prepared_at"`
}

// InvoicePreparedV1 is the typed event definition for invoice preparation.
// Subject: events.billing.v1.invoice-prepared
var InvoicePreparedV1 = helper.EventDefinition[InvoicePreparedEvent](
	"billing", "InvoicePrepared", "v1",
)

// InvoiceConfirmedEvent is emitted after a confirm transaction commits.
type InvoiceConfirmedEvent struct {
	InvoiceID     string        `json:"invoice_id"`
	InvoiceNumber string        `json:"invoice_number"`
	CashierID     string        `json:"cashier_id"`
	CashierName   string        `json:"cashier_name"`
	TotalAmount   float64       `json:"total_amount"`
	TotalCount    int           `json:"total_count"`
	Lines         []InvoiceLine `json:"lines"`
	ConfirmedAt   time.Time     `json:"confirmed_at"`
}

// InvoiceConfirmedV1 is the typed event definition for invoice confirmation.
// Subject: events.billing.v1.invoice-confirmed
var InvoiceConfirmedV1 = helper.EventDefinition[InvoiceConfirmedEvent](
	"billing", "InvoiceConfirmed", "v1",
)

// InvoiceCancelledEvent is emitted when a pending invoice is abandoned.
type InvoiceCancelledEvent struct {
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CashierID     string    `json:"cashier_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// InvoiceCancelledV1 is the typed event definition for invoice cancellation.
// Subject: events.billing.v1.invoice-cancelled
var InvoiceCancelledV1 = helper.EventDefinition[InvoiceCancelledEvent](
	"billing", "InvoiceCancelled", "v1",
)

// StockDepletedEvent is emitted when a confirmed sale takes a product to zero.
type StockDepletedEvent struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	InvoiceNumber string    `json:"invoice_number"`
	DepletedAt    time.Time `json:"depleted_at"`
}

// StockDepletedV1 is the typed event definition for stock depletion.
// Subject: events.billing.v1.stock-depleted
var StockDepletedV1 = helper.EventDefinition[StockDepletedEvent](
	"billing", "StockDepleted", "v1",
)
