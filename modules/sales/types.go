package sales

import (
	"context"

	"github.com/example/pos-billing/domain/invoice"
)

// ListSalesRequest filters the sales list.
// Status is pending, completed, cancelled or "all"; empty means completed.
type ListSalesRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListSalesResponse is one page of invoices.
type ListSalesResponse struct {
	Invoices    []invoice.Invoice `json:"invoices"`
	Total       int64             `json:"total"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
	PageRevenue float64           `json:"page_revenue"`
}

// GetInvoiceRequest asks for one invoice.
type GetInvoiceRequest struct {
	ID string `json:"id"`
}

// GetInvoiceResponse carries the invoice when found.
type GetInvoiceResponse struct {
	Invoice *invoice.Invoice `json:"invoice,omitempty"`
	Found   bool             `json:"found"`
}

// SalesPort defines the sales operations used by other modules.
type SalesPort interface {
	ListSales(ctx context.Context, req ListSalesRequest) (*ListSalesResponse, error)
	GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
}
