package billing

import "github.com/example/pos-billing/domain/invoice"

// PrepareRequest is the request for the prepare and checkout services.
type PrepareRequest struct {
	Cart         []CartLine `json:"cart"`
	BillDiscount float64    `json:"bill_discount"`
	Cashier      Cashier    `json:"cashier"`
}

// InvoiceRequest identifies the invoice for the confirm and cancel services.
type InvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceResponse carries either the invoice or the reason the operation failed.
type InvoiceResponse struct {
	Invoice *invoice.Invoice `json:"invoice,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}
