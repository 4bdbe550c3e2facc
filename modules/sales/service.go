package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/example/pos-billing/domain/invoice"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	// statusAll disables the status filter.
	statusAll = "all"
)

var (
	// ErrInvoiceNotFound is returned when no invoice has the requested id.
	ErrInvoiceNotFound = invoice.ErrNotFound
	// ErrInvalidFilter is returned for an unknown status or a negative page.
	ErrInvalidFilter = errors.New("invalid sales filter")
)

// Service reads recorded invoices.
type Service struct {
	repo *invoice.Repository
}

// NewService creates a new sales service.
func NewService(repo *invoice.Repository) *Service {
	return &Service{repo: repo}
}

// List returns invoices newest first. An empty status lists completed sales.
func (s *Service) List(ctx context.Context, req ListSalesRequest) (*ListSalesResponse, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}

	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []invoice.Invoice{}
	}

	var revenue float64
	for i := range invoices {
		if invoices[i].Status == invoice.StatusCompleted {
			revenue += invoices[i].TotalAmount
		}
	}

	return &ListSalesResponse{
		Invoices:    invoices,
		Total:       total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
		PageRevenue: math.Round(revenue*100) / 100,
	}, nil
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvoiceNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func buildFilter(req ListSalesRequest) (invoice.ListFilter, error) {
	filter := invoice.ListFilter{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	switch status := invoice.Status(strings.ToLower(strings.TrimSpace(req.Status))); status {
	case "":
		filter.Status = invoice.StatusCompleted
	case statusAll:
	case invoice.StatusPending, invoice.StatusCompleted, invoice.StatusCancelled:
		filter.Status = status
	default:
		return filter, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, req.Status)
	}

	if filter.Offset < 0 || filter.Limit < 0 {
		return filter, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidFilter)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return filter, nil
}
