package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// salesAdapter wraps ServiceContainer for type-safe cross-module communication.
type salesAdapter struct {
	container mono.ServiceContainer
}

// NewSalesAdapter creates a new adapter for sales services.
func NewSalesAdapter(container mono.ServiceContainer) SalesPort {
	if container == nil {
		panic("sales adapter requires non-nil ServiceContainer")
	}
	return &salesAdapter{container: container}
}

// ListSales lists invoices via the list-sales service.
func (a *salesAdapter) ListSales(ctx context.Context, req ListSalesRequest) (*ListSalesResponse, error) {
	var resp ListSalesResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-sales",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		if strings.Contains(err.Error(), ErrInvalidFilter.Error()) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		return nil, fmt.Errorf("list-sales service call failed: %w", err)
	}
	return &resp, nil
}

// GetInvoice retrieves one invoice via the get-invoice service.
func (a *salesAdapter) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	req := GetInvoiceRequest{ID: id}
	var resp GetInvoiceResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-invoice",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-invoice service call failed: %w", err)
	}

	if !resp.Found || resp.Invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return resp.Invoice, nil
}
