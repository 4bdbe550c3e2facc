package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/example/pos-billing/domain/product"
	"github.com/example/pos-billing/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config controls pricing and retry behaviour.
type Config struct {
	// TaxRate in percent. A positive rate switches pricing to tax mode.
	TaxRate float64
	// PaymentMethod recorded on every invoice.
	PaymentMethod string
	// MaxAttempts bounds the retries on an invoice number collision.
	MaxAttempts int
}

// DefaultConfig returns discount-mode pricing with cash payments.
func DefaultConfig() Config {
	return Config{
		PaymentMethod: invoice.DefaultPaymentMethod,
		MaxAttempts:   3,
	}
}

// Cashier identifies who rings up the sale.
type Cashier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service runs the prepare, confirm and cancel lifecycle of invoices.
type Service struct {
	db       *gorm.DB
	numberer *Numberer
	config   Config
	eventBus mono.EventBus
}

// NewService creates a billing service over the shared database.
func NewService(db *gorm.DB, numberer *Numberer, config Config) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.PaymentMethod == "" {
		config.PaymentMethod = invoice.DefaultPaymentMethod
	}
	return &Service{
		db:       db,
		numberer: numberer,
		config:   config,
	}
}

// SetEventBus sets the bus used to publish billing events. A nil bus disables publishing.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

// Prepare prices the cart and stores a pending invoice. Stock is checked but not changed.
func (s *Service) Prepare(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error) {
	if err := validateCart(cart); err != nil {
		return nil, err
	}

	year := s.numberer.Year()

	var inv *invoice.Invoice
	var err error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		inv, err = s.prepareOnce(ctx, cart, cashier, billDiscount, year)
		if !errors.Is(err, invoice.ErrDuplicateNumber) {
			break
		}

		log.Printf("[billing] Invoice number collision (attempt %d/%d): %v", attempt, s.config.MaxAttempts, err)
		if syncErr := invoice.NewRepository(s.db).ResyncSequence(ctx, year); syncErr != nil {
			log.Printf("[billing] Warning: failed to resync invoice sequence: %v", syncErr)
		}
	}
	if err != nil {
		if errors.Is(err, invoice.ErrDuplicateNumber) {
			return nil, fmt.Errorf("%w: could not allocate a unique invoice number after %d attempts", ErrStoreFailure, s.config.MaxAttempts)
		}
		return nil, storeFailure(err)
	}

	log.Printf("[billing] Invoice prepared: %s (purchase %s, cashier %s, total %.2f)",
		inv.InvoiceNumber, inv.PurchaseID, inv.CashierName, inv.TotalAmount)

	if s.eventBus != nil {
		event := events.InvoicePreparedEvent{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CashierID:     inv.CashierID,
			TotalAmount:   inv.TotalAmount,
			PreparedAt:    inv.CreatedAt,
		}
		if err := events.InvoicePreparedV1.Publish(s.eventBus, event, nil); err != nil {
			log.Printf("[billing] Warning: failed to publish InvoicePrepared event: %v", err)
		}
	}

	return inv, nil
}

func (s *Service) prepareOnce(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64, year int) (*invoice.Invoice, error) {
	var inv *invoice.Invoice

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := product.NewRepository(tx)
		invoices := invoice.NewRepository(tx)

		lines, err := priceCart(ctx, products, cart)
		if err != nil {
			return err
		}
		totals := ComputeTotals(lines, billDiscount, s.config.TaxRate)

		seq, err := invoices.NextSequence(ctx, year)
		if err != nil {
			return err
		}

		inv = newInvoice(lines, totals, cashier, s.config.PaymentMethod)
		inv.InvoiceNumber = invoice.FormatNumber(year, seq)
		inv.PurchaseID = s.numberer.PurchaseID()

		return invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// priceCart resolves every line against the catalog and checks the
// aggregated quantity per product against stock on hand. The running total
// never exceeds stock, so it cannot overflow.
func priceCart(ctx context.Context, products *product.Repository, cart []CartLine) ([]PricedLine, error) {
	ids := make([]string, 0, len(cart))
	seen := make(map[string]bool, len(cart))
	for _, line := range cart {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}

	requested := make(map[string]int, len(ids))
	lines := make([]PricedLine, 0, len(cart))
	for _, line := range cart {
		p := found[line.ProductID]
		already := requested[p.ID]
		if line.Quantity > p.Quantity-already {
			total := math.MaxInt
			if line.Quantity <= math.MaxInt-already {
				total = already + line.Quantity
			}
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Product:   p.Name,
				Requested: total,
				Available: p.Quantity,
			}
		}
		requested[p.ID] = already + line.Quantity
		lines = append(lines, PriceLine(p, line.Quantity))
	}
	return lines, nil
}

func newInvoice(lines []PricedLine, totals Totals, cashier Cashier, paymentMethod string) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            uuid.New().String(),
		Lines:         make([]invoice.LineItem, 0, len(lines)),
		TotalCount:    totals.TotalCount,
		Subtotal:      totals.Subtotal,
		MRPTotal:      totals.MRPTotal,
		OfferDiscount: totals.OfferDiscount,
		BillDiscount:  totals.BillDiscount,
		DiscountTotal: totals.DiscountTotal,
		TaxRate:       totals.TaxRate,
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.TotalAmount,
		CashierID:     cashier.ID,
		CashierName:   cashier.Name,
		CreatedBy:     cashier.ID,
		PaymentMethod: paymentMethod,
		Status:        invoice.StatusPending,
	}
	for i, l := range lines {
		inv.Lines = append(inv.Lines, invoice.LineItem{
			Position:  i + 1,
			ProductID: l.ProductID,
			Name:      l.Name,
			BasePrice: l.BasePrice,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}
	return inv
}

// Confirm completes a pending invoice and takes its lines out of stock.
// Either every line is decremented and the invoice completed, or nothing changes.
func (s *Service) Confirm(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, ErrInvoiceNotFound
	}

	var inv *invoice.Invoice
	var depleted []*product.Product

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := product.NewRepository(tx)
		invoices := invoice.NewRepository(tx)

		claimed, err := invoices.UpdateStatus(ctx, invoiceID, invoice.StatusPending, invoice.StatusCompleted)
		if err != nil {
			return mapInvoiceError(err)
		}

		for _, line := range claimed.Lines {
			p, err := products.DecrementStock(ctx, line.ProductID, line.Quantity)
			switch {
			case errors.Is(err, product.ErrNotFound):
				return fmt.Errorf("%w: %s (%s)", ErrProductNotFound, line.Name, line.ProductID)
			case errors.Is(err, product.ErrInsufficientStock):
				return &InsufficientStockError{
					ProductID: line.ProductID,
					Product:   p.Name,
					Requested: line.Quantity,
					Available: p.Quantity,
				}
			case err != nil:
				return err
			}
			if p.Quantity == 0 {
				depleted = append(depleted, p)
			}
		}

		inv = claimed
		return nil
	})
	if err != nil {
		return nil, storeFailure(err)
	}

	log.Printf("[billing] Invoice confirmed: %s (%d items, total %.2f)", inv.InvoiceNumber, inv.TotalCount, inv.TotalAmount)
	s.publishConfirmed(inv, depleted)
	return inv, nil
}

func (s *Service) publishConfirmed(inv *invoice.Invoice, depleted []*product.Product) {
	if s.eventBus == nil {
		return
	}

	now := s.numberer.Now()
	lines := make([]events.InvoiceLine, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, events.InvoiceLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
		})
	}

	event := events.InvoiceConfirmedEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CashierID:     inv.CashierID,
		CashierName:   inv.CashierName,
		TotalAmount:   inv.TotalAmount,
		TotalCount:    inv.TotalCount,
		Lines:         lines,
		ConfirmedAt:   now,
	}
	if err := events.InvoiceConfirmedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[billing] Warning: failed to publish InvoiceConfirmed event: %v", err)
	}

	for _, p := range depleted {
		event := events.StockDepletedEvent{
			ProductID:     p.ID,
			Name:          p.Name,
			InvoiceNumber: inv.InvoiceNumber,
			DepletedAt:    now,
		}
		if err := events.StockDepletedV1.Publish(s.eventBus, event, nil); err != nil {
			log.Printf("[billing] Warning: failed to publish StockDepleted event: %v", err)
		}
	}
}

// Cancel abandons a pending invoice. Stock is never touched.
func (s *Service) Cancel(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, ErrInvoiceNotFound
	}

	inv, err := invoice.NewRepository(s.db).UpdateStatus(ctx, invoiceID, invoice.StatusPending, invoice.StatusCancelled)
	if err != nil {
		return nil, storeFailure(mapInvoiceError(err))
	}

	log.Printf("[billing] Invoice cancelled: %s", inv.InvoiceNumber)

	if s.eventBus != nil {
		event := events.InvoiceCancelledEvent{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CashierID:     inv.CashierID,
			CancelledAt:   s.numberer.Now(),
		}
		if err := events.InvoiceCancelledV1.Publish(s.eventBus, event, nil); err != nil {
			log.Printf("[billing] Warning: failed to publish InvoiceCancelled event: %v", err)
		}
	}

	return inv, nil
}

// Checkout prepares and immediately confirms a cart.
// When the confirm step fails the prepared invoice is cancelled.
func (s *Service) Checkout(ctx context.Context, cart []CartLine, cashier Cashier, billDiscount float64) (*invoice.Invoice, error) {
	prepared, err := s.Prepare(ctx, cart, cashier, billDiscount)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.Confirm(ctx, prepared.ID)
	if err != nil {
		if _, cancelErr := s.Cancel(ctx, prepared.ID); cancelErr != nil && !errors.Is(cancelErr, ErrAlreadyProcessed) {
			log.Printf("[billing] Warning: failed to cancel invoice %s after failed checkout: %v", prepared.InvoiceNumber, cancelErr)
		}
		return nil, err
	}
	return confirmed, nil
}

func validateCart(cart []CartLine) error {
	if len(cart) == 0 {
		return ErrEmptyCart
	}
	for i, line := range cart {
		if strings.TrimSpace(line.ProductID) == "" {
			return fmt.Errorf("%w: line %d has no product id", ErrInvalidCart, i+1)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d has quantity %d", ErrInvalidCart, i+1, line.Quantity)
		}
	}
	return nil
}

func mapInvoiceError(err error) error {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		return ErrInvoiceNotFound
	case errors.Is(err, invoice.ErrStatusConflict):
		return ErrAlreadyProcessed
	default:
		return err
	}
}

var billingErrors = []error{
	ErrEmptyCart,
	ErrInvalidCart,
	ErrProductNotFound,
	ErrInvoiceNotFound,
	ErrInsufficientStock,
	ErrAlreadyProcessed,
	ErrStoreFailure,
}

// storeFailure passes billing errors through and wraps everything else as ErrStoreFailure.
func storeFailure(err error) error {
	for _, target := range billingErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreFailure, err)
}
