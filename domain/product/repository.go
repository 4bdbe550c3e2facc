package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a product is not found.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a decrement would make quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrVersionConflict is returned when the product changed since it was read.
	ErrVersionConflict = errors.New("product was modified concurrently")
	// ErrReferenced is returned when deleting a product that invoices still reference.
	ErrReferenced = errors.New("product is referenced by existing invoices")
)

// ReferenceChecker reports how many invoice lines reference a product.
type ReferenceChecker func(ctx context.Context, db *gorm.DB, productID string) (int64, error)

// Stats summarizes the catalog.
type Stats struct {
	Products   int64 `json:"products"`
	TotalStock int64 `json:"total_stock"`
}

// Repository provides access to product storage.
// It works on any *gorm.DB, including a transaction handle.
type Repository struct {
	db         *gorm.DB
	references ReferenceChecker
}

// NewRepository creates a new product repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithReferenceChecker sets the lookup used by Delete to refuse referenced products.
func (r *Repository) WithReferenceChecker(check ReferenceChecker) *Repository {
	r.references = check
	return r
}

// Create saves a new product to the database.
func (r *Repository) Create(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindByIDs retrieves the products with the given IDs keyed by ID.
// Missing IDs are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]*Product, error) {
	var products []*Product
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to find products: %w", err)
		}
	}
	result := make(map[string]*Product, len(products))
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// Search returns products whose name contains query (case-insensitive), newest first.
// An empty query returns the whole catalog.
func (r *Repository) Search(ctx context.Context, query string) ([]*Product, error) {
	tx := r.db.WithContext(ctx).Order("created_at DESC")
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var products []*Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Update writes the product if its version still matches, then bumps the version.
func (r *Repository) Update(ctx context.Context, product *Product) error {
	product.Normalize()

	result := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"offer_price": product.OfferPrice,
			"quantity":    product.Quantity,
			"status":      product.Status,
			"image":       product.Image,
			"version":     product.Version + 1,
			"updated_at":  time.Now(),
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, product.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}

	product.Version++
	return nil
}

// DecrementStock removes amount units from the product in a single conditional
// update, flipping the status to out_of_stock when quantity reaches zero.
// It returns the product as stored after the update.
func (r *Repository) DecrementStock(ctx context.Context, id string, amount int) (*Product, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid decrement amount %d", amount)
	}

	result := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND quantity >= ?", id, amount).
		UpdateColumns(map[string]any{
			"quantity": gorm.Expr("quantity - ?", amount),
			"status": gorm.Expr(
				"CASE WHEN status <> ? AND quantity - ? = 0 THEN ? ELSE status END",
				StatusInactive, amount, StatusOutOfStock,
			),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return product, ErrInsufficientStock
	}
	return product, nil
}

// Delete removes a product by ID unless invoices still reference it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.references != nil {
		count, err := r.references(ctx, r.db.WithContext(ctx), id)
		if err != nil {
			return fmt.Errorf("failed to check product references: %w", err)
		}
		if count > 0 {
			return ErrReferenced
		}
	}

	result := r.db.WithContext(ctx).Delete(&Product{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the number of products and the total units on hand.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).Model(&Product{}).
		Select("COUNT(*) AS products, COALESCE(SUM(quantity), 0) AS total_stock").
		Scan(&stats).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute product stats: %w", err)
	}
	return stats, nil
}
