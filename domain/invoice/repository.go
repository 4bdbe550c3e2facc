package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when an invoice is not found.
	ErrNotFound = errors.New("invoice not found")
	// ErrStatusConflict is returned when a conditional status update finds the invoice in another state.
	ErrStatusConflict = errors.New("invoice status does not allow this transition")
	// ErrDuplicateNumber is returned when the invoice number or purchase id is already taken.
	ErrDuplicateNumber = errors.New("invoice number already exists")
)

// ListFilter narrows List results. Zero values mean no filter.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Repository provides access to invoice storage.
// It works on any *gorm.DB, including a transaction handle.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new invoice repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the invoice together with its lines.
func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, inv.InvoiceNumber)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// FindByID retrieves an invoice with its lines in cart order.
func (r *Repository) FindByID(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return &inv, nil
}

// UpdateStatus moves the invoice from one status to another only if it is
// currently in from. It returns ErrStatusConflict when the invoice exists but
// is in a different state.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Invoice, error) {
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusConflict, from, to)
	}

	result := r.db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	inv, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return inv, ErrStatusConflict
	}
	return inv, nil
}

// FindLatest returns the most recently created invoice, or nil when there is none.
func (r *Repository) FindLatest(ctx context.Context) (*Invoice, error) {
	return r.findLatest(r.db.WithContext(ctx))
}

// FindLatestForYear returns the most recently created invoice numbered in year.
func (r *Repository) FindLatestForYear(ctx context.Context, year int) (*Invoice, error) {
	return r.findLatest(r.db.WithContext(ctx).Where("invoice_number LIKE ?", YearPrefix(year)+"%"))
}

func (r *Repository) findLatest(db *gorm.DB) (*Invoice, error) {
	var inv Invoice
	err := db.Order("created_at DESC").Order("invoice_number DESC").Limit(1).Take(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest invoice: %w", err)
	}
	return &inv, nil
}

// NextSequence atomically increments and returns the counter for year.
// The first use of a year seeds the counter from invoices already numbered in
// that year so existing data keeps its ordering.
func (r *Repository) NextSequence(ctx context.Context, year int) (int, error) {
	db := r.db.WithContext(ctx)

	var seq Sequence
	err := db.First(&seq, "year = ?", year).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		start, err := r.seed(ctx, year)
		if err != nil {
			return 0, err
		}
		seq = Sequence{Year: year, Value: start + 1}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}},
			DoUpdates: clause.Assignments(map[string]any{"value": gorm.Expr("value + 1")}),
		}).Create(&seq).Error
		if err != nil {
			return 0, fmt.Errorf("failed to create invoice sequence: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	default:
		err = db.Model(&Sequence{}).Where("year = ?", year).
			UpdateColumn("value", gorm.Expr("value + 1")).Error
		if err != nil {
			return 0, fmt.Errorf("failed to increment invoice sequence: %w", err)
		}
	}

	if err := db.First(&seq, "year = ?", year).Error; err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return seq.Value, nil
}

// ResyncSequence raises the counter for year to at least the highest
// sequence stored for that year. It repairs a counter that fell behind
// imported or externally written invoices.
func (r *Repository) ResyncSequence(ctx context.Context, year int) error {
	latest, err := r.seed(ctx, year)
	if err != nil {
		return err
	}

	seq := Sequence{Year: year, Value: latest}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value": gorm.Expr("MAX(value, ?)", latest),
		}),
	}).Create(&seq).Error
	if err != nil {
		return fmt.Errorf("failed to resync invoice sequence: %w", err)
	}
	return nil
}

// seed returns the highest sequence already issued in year, or 0.
// Sequences are zero-padded to five digits but may grow longer, so a longer
// number always sorts first.
func (r *Repository) seed(ctx context.Context, year int) (int, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&Invoice{}).
		Where("invoice_number LIKE ?", YearPrefix(year)+"%").
		Order("LENGTH(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to seed invoice sequence: %w", err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	seq, err := ParseSequence(numbers[0])
	if err != nil {
		return 0, fmt.Errorf("failed to seed invoice sequence: %w", err)
	}
	return seq, nil
}

// List returns invoices newest first together with the total matching count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, int64, error) {
	db := r.db.WithContext(ctx).Model(&Invoice{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var invoices []Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

// CountLinesByProduct reports how many invoice lines reference productID.
func CountLinesByProduct(ctx context.Context, db *gorm.DB, productID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&LineItem{}).Where("product_id = ?", productID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count invoice lines: %w", err)
	}
	return count, nil
}
