package inventory

import (
	"context"
	"errors"

	"github.com/example/pos-billing/domain/product"
)

var (
	// ErrInvalidProduct is returned when product fields fail validation.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrProductNotFound is returned when the product does not exist.
	ErrProductNotFound = product.ErrNotFound
	// ErrVersionConflict is returned when an update races with another write.
	ErrVersionConflict = product.ErrVersionConflict
	// ErrProductReferenced is returned when deleting a product that invoices reference.
	ErrProductReferenced = product.ErrReferenced
)

// CreateProductRequest is the request for creating a product.
type CreateProductRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	OfferPrice  *float64       `json:"offer_price,omitempty"`
	Quantity    int            `json:"quantity"`
	Status      product.Status `json:"status,omitempty"`
	Image       string         `json:"image,omitempty"`
}

// UpdateProductRequest is the request for updating a product.
// Nil fields are left unchanged. Version, when set, must match the stored version.
type UpdateProductRequest struct {
	ID          string          `json:"id"`
	Version     int             `json:"version,omitempty"`
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       *float64        `json:"price,omitempty"`
	OfferPrice  *float64        `json:"offer_price,omitempty"`
	ClearOffer  bool            `json:"clear_offer,omitempty"`
	Quantity    *int            `json:"quantity,omitempty"`
	Status      *product.Status `json:"status,omitempty"`
	Image       *string         `json:"image,omitempty"`
}

// GetProductRequest is the request for getting a product.
type GetProductRequest struct {
	ID string `json:"id"`
}

// DeleteProductRequest is the request for deleting a product.
type DeleteProductRequest struct {
	ID string `json:"id"`
}

// DeleteProductResponse is the response for deleting a product.
type DeleteProductResponse struct {
	Deleted bool `json:"deleted"`
}

// ListProductsRequest is the request for listing products.
type ListProductsRequest struct {
	Query string `json:"query,omitempty"`
}

// ListProductsResponse is the response for listing products.
type ListProductsResponse struct {
	Products []*product.Product `json:"products"`
	Total    int                `json:"total"`
	Cached   bool               `json:"cached"`
}

// ProductResponse wraps a single product.
type ProductResponse struct {
	Product *product.Product `json:"product"`
	Cached  bool             `json:"cached"`
}

// StatsRequest is the request for catalog statistics.
type StatsRequest struct{}

// InventoryPort defines the catalog operations other modules use.
type InventoryPort interface {
	ListProducts(ctx context.Context, query string) (*ListProductsResponse, error)
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*product.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Stats(ctx context.Context) (*product.Stats, error)
}
