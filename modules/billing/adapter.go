package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// BillingPort defines the billing operations other modules use.
type BillingPort interface {
	Prepare(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error)
	Confirm(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
	Cancel(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
	Checkout(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error)
}

// BillingAdapter implements BillingPort using the service container.
type BillingAdapter struct {
	container mono.ServiceContainer
}

var _ BillingPort = (*BillingAdapter)(nil)

// NewBillingAdapter creates a new BillingAdapter.
func NewBillingAdapter(container mono.ServiceContainer) *BillingAdapter {
	return &BillingAdapter{container: container}
}

// Prepare stores a pending invoice for the cart.
func (a *BillingAdapter) Prepare(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error) {
	req := PrepareRequest{Cart: cart, Cashier: cashier, BillDiscount: billDiscount}
	return callInvoiceService(ctx, a.container, "prepare", &req)
}

// Confirm completes a pending invoice.
func (a *BillingAdapter) Confirm(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	req := InvoiceRequest{InvoiceID: invoiceID}
	return callInvoiceService(ctx, a.container, "confirm", &req)
}

// Cancel abandons a pending invoice.
func (a *BillingAdapter) Cancel(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	req := InvoiceRequest{InvoiceID: invoiceID}
	return callInvoiceService(ctx, a.container, "cancel", &req)
}

// Checkout prepares and confirms the cart in one call.
func (a *BillingAdapter) Checkout(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error) {
	req := PrepareRequest{Cart: cart, Cashier: cashier, BillDiscount: billDiscount}
	return callInvoiceService(ctx, a.container, "checkout", &req)
}

func callInvoiceService[Req any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*invoice.Invoice, error) {
	var resp InvoiceResponse

	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", service, err)
	}

	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	if resp.Invoice == nil {
		return nil, fmt.Errorf("%s request returned no invoice", service)
	}
	return resp.Invoice, nil
}
