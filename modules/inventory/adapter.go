package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/pos-billing/domain/product"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// inventoryAdapter implements InventoryPort over the service container.
type inventoryAdapter struct {
	container mono.ServiceContainer
}

// NewInventoryAdapter creates a new adapter for inventory services.
func NewInventoryAdapter(container mono.ServiceContainer) InventoryPort {
	if container == nil {
		panic("inventory adapter requires non-nil ServiceContainer")
	}
	return &inventoryAdapter{container: container}
}

// ListProducts lists products whose name matches query.
func (a *inventoryAdapter) ListProducts(ctx context.Context, query string) (*ListProductsResponse, error) {
	req := ListProductsRequest{Query: query}
	var resp ListProductsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-products",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-products service call failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// GetProduct retrieves a product by id.
func (a *inventoryAdapter) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	req := GetProductRequest{ID: id}
	var resp ProductResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-product",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-product service call failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// CreateProduct creates a product.
func (a *inventoryAdapter) CreateProduct(ctx context.Context, req *CreateProductRequest) (*product.Product, error) {
	var resp ProductResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-product",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-product service call failed: %w", mapServiceError(err))
	}
	return resp.Product, nil
}

// UpdateProduct updates a product.
func (a *inventoryAdapter) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*product.Product, error) {
	var resp ProductResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-product",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-product service call failed: %w", mapServiceError(err))
	}
	return resp.Product, nil
}

// DeleteProduct deletes a product.
func (a *inventoryAdapter) DeleteProduct(ctx context.Context, id string) error {
	req := DeleteProductRequest{ID: id}
	var resp DeleteProductResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-product",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-product service call failed: %w", mapServiceError(err))
	}
	return nil
}

// Stats returns catalog totals.
func (a *inventoryAdapter) Stats(ctx context.Context) (*product.Stats, error) {
	req := StatsRequest{}
	var resp product.Stats
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"product-stats",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("product-stats service call failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// mapServiceError maps remote error messages back to inventory errors.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, ErrProductReferenced.Error()):
		return ErrProductReferenced
	case strings.Contains(errMsg, ErrVersionConflict.Error()):
		return ErrVersionConflict
	case strings.Contains(errMsg, ErrProductNotFound.Error()):
		return ErrProductNotFound
	case strings.Contains(errMsg, ErrInvalidProduct.Error()):
		return fmt.Errorf("%w: %s", ErrInvalidProduct, remoteDetail(err.Error(), ErrInvalidProduct.Error()))
	}
	return err
}

// remoteDetail returns the text following marker, or the whole message.
func remoteDetail(msg, marker string) string {
	idx := strings.Index(strings.ToLower(msg), marker)
	if idx < 0 {
		return msg
	}
	return strings.TrimLeft(msg[idx+len(marker):], ": ")
}
