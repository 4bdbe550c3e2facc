package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when a cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidCart is returned when a cart line has no product id or a non-positive quantity.
	ErrInvalidCart = errors.New("invalid cart line")
	// ErrProductNotFound is returned when a cart or invoice line references a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvoiceNotFound is returned when the invoice does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInsufficientStock is matched by every *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrAlreadyProcessed is returned when the invoice is no longer pending.
	ErrAlreadyProcessed = errors.New("invoice already processed")
	// ErrStoreFailure is returned when the store could not commit the operation.
	ErrStoreFailure = errors.New("store failure")
)

// InsufficientStockError names the product that cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Product, e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) true.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Error codes carried across the service boundary.
const (
	CodeEmptyCart         = "empty_cart"
	CodeInvalidCart       = "invalid_cart"
	CodeProductNotFound   = "product_not_found"
	CodeInvoiceNotFound   = "invoice_not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeAlreadyProcessed  = "already_processed"
	CodeStoreFailure      = "store_failure"
	CodeInternal          = "internal_error"
)

// ErrorDetail describes a failed billing operation inside a reply.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	Product   string `json:"product,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// toDetail converts a service error into its wire form.
func toDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	detail := &ErrorDetail{Code: CodeInternal, Message: err.Error()}

	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		detail.Code = CodeInsufficientStock
		detail.ProductID = stockErr.ProductID
		detail.Product = stockErr.Product
		detail.Requested = stockErr.Requested
		detail.Available = stockErr.Available
	case errors.Is(err, ErrEmptyCart):
		detail.Code = CodeEmptyCart
	case errors.Is(err, ErrInvalidCart):
		detail.Code = CodeInvalidCart
	case errors.Is(err, ErrProductNotFound):
		detail.Code = CodeProductNotFound
	case errors.Is(err, ErrInvoiceNotFound):
		detail.Code = CodeInvoiceNotFound
	case errors.Is(err, ErrAlreadyProcessed):
		detail.Code = CodeAlreadyProcessed
	case errors.Is(err, ErrStoreFailure):
		detail.Code = CodeStoreFailure
	}
	return detail
}

// Err rebuilds an error that matches the original sentinel with errors.Is.
func (d *ErrorDetail) Err() error {
	if d == nil {
		return nil
	}

	var sentinel error
	switch d.Code {
	case CodeInsufficientStock:
		return &InsufficientStockError{
			ProductID: d.ProductID,
			Product:   d.Product,
			Requested: d.Requested,
			Available: d.Available,
		}
	case CodeEmptyCart:
		sentinel = ErrEmptyCart
	case CodeInvalidCart:
		sentinel = ErrInvalidCart
	case CodeProductNotFound:
		sentinel = ErrProductNotFound
	case CodeInvoiceNotFound:
		sentinel = ErrInvoiceNotFound
	case CodeAlreadyProcessed:
		sentinel = ErrAlreadyProcessed
	case CodeStoreFailure:
		sentinel = ErrStoreFailure
	default:
		return errors.New(d.Message)
	}

	if d.Message == "" || d.Message == sentinel.Error() {
		return sentinel
	}
	return &detailError{sentinel: sentinel, message: d.Message}
}

// detailError keeps the remote message while matching the local sentinel.
type detailError struct {
	sentinel error
	message  string
}

func (e *detailError) Error() string { return e.message }

func (e *detailError) Unwrap() error { return e.sentinel }
