package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/example/pos-billing/domain/product"
	"github.com/example/pos-billing/events"
	"github.com/example/pos-billing/modules/cache"
	"github.com/example/pos-billing/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module provides catalog services as a mono module.
type Module struct {
	database    *database.PluginModule
	cachePlugin *cache.PluginModule
	service     *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new inventory module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "inventory"
}

// SetPlugin receives plugin instances from the mono framework.
// The cache plugin is optional; without it every read goes to the database.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	switch alias {
	case "database":
		if db, ok := plugin.(*database.PluginModule); ok {
			m.database = db
		}
	case "cache":
		if c, ok := plugin.(*cache.PluginModule); ok {
			m.cachePlugin = c
			log.Println("[inventory] Cache plugin injected")
		}
	}
}

// Start creates the service on the shared database.
func (m *Module) Start(_ context.Context) error {
	if m.database == nil || m.database.Port() == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}

	var c cache.CacheService
	if m.cachePlugin != nil {
		c = m.cachePlugin.Port()
	}
	if c == nil {
		log.Println("[inventory] No cache configured, reads go straight to the database")
	}

	repo := product.NewRepository(m.database.Port()).WithReferenceChecker(invoice.CountLinesByProduct)
	m.service = NewService(repo, c)

	log.Println("[inventory] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[inventory] Module stopped")
	return nil
}

// Service returns the inventory service.
func (m *Module) Service() *Service {
	return m.service
}

// Health returns the current health status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}

	stats, err := m.service.Stats(ctx)
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("stats query failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"products":    stats.Products,
			"total_stock": stats.TotalStock,
			"cache":       m.service.cache.Stats(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-products",
		json.Unmarshal,
		json.Marshal,
		m.handleListProducts,
	); err != nil {
		return fmt.Errorf("failed to register list-products service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-product",
		json.Unmarshal,
		json.Marshal,
		m.handleGetProduct,
	); err != nil {
		return fmt.Errorf("failed to register get-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"create-product",
		json.Unmarshal,
		json.Marshal,
		m.handleCreateProduct,
	); err != nil {
		return fmt.Errorf("failed to register create-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"update-product",
		json.Unmarshal,
		json.Marshal,
		m.handleUpdateProduct,
	); err != nil {
		return fmt.Errorf("failed to register update-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"delete-product",
		json.Unmarshal,
		json.Marshal,
		m.handleDeleteProduct,
	); err != nil {
		return fmt.Errorf("failed to register delete-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"product-stats",
		json.Unmarshal,
		json.Marshal,
		m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register product-stats service: %w", err)
	}

	log.Printf("[inventory] Registered services: list-products, get-product, create-product, update-product, delete-product, product-stats")
	return nil
}

// RegisterEventConsumers subscribes to billing events that change stock.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.InvoiceConfirmedV1, m.handleInvoiceConfirmed, m); err != nil {
		return fmt.Errorf("failed to register InvoiceConfirmed consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.StockDepletedV1, m.handleStockDepleted, m); err != nil {
		return fmt.Errorf("failed to register StockDepleted consumer: %w", err)
	}

	log.Printf("[inventory] Registered event consumers: InvoiceConfirmed, StockDepleted")
	return nil
}

func (m *Module) handleInvoiceConfirmed(ctx context.Context, event events.InvoiceConfirmedEvent, _ *mono.Msg) error {
	ids := make([]string, 0, len(event.Lines))
	for _, line := range event.Lines {
		ids = append(ids, line.ProductID)
	}
	m.service.Invalidate(ctx, ids...)
	log.Printf("[inventory] Stock changed by %s, invalidated %d products", event.InvoiceNumber, len(ids))
	return nil
}

func (m *Module) handleStockDepleted(_ context.Context, event events.StockDepletedEvent, _ *mono.Msg) error {
	log.Printf("[inventory] Product %s (%s) is out of stock after %s", event.Name, event.ProductID, event.InvoiceNumber)
	return nil
}

func (m *Module) handleListProducts(ctx context.Context, req ListProductsRequest, _ *mono.Msg) (ListProductsResponse, error) {
	products, cached, err := m.service.List(ctx, req.Query)
	if err != nil {
		return ListProductsResponse{}, err
	}
	return ListProductsResponse{
		Products: products,
		Total:    len(products),
		Cached:   cached,
	}, nil
}

func (m *Module) handleGetProduct(ctx context.Context, req GetProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, cached, err := m.service.GetByID(ctx, req.ID)
	if err != nil {
		return ProductResponse{}, err
	}
	return ProductResponse{Product: p, Cached: cached}, nil
}

func (m *Module) handleCreateProduct(ctx context.Context, req CreateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Create(ctx, &req)
	if err != nil {
		return ProductResponse{}, err
	}
	return ProductResponse{Product: p}, nil
}

func (m *Module) handleUpdateProduct(ctx context.Context, req UpdateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Update(ctx, &req)
	if err != nil {
		return ProductResponse{}, err
	}
	return ProductResponse{Product: p}, nil
}

func (m *Module) handleDeleteProduct(ctx context.Context, req DeleteProductRequest, _ *mono.Msg) (DeleteProductResponse, error) {
	if err := m.service.Delete(ctx, req.ID); err != nil {
		return DeleteProductResponse{}, err
	}
	return DeleteProductResponse{Deleted: true}, nil
}

func (m *Module) handleStats(ctx context.Context, _ StatsRequest, _ *mono.Msg) (product.Stats, error) {
	return m.service.Stats(ctx)
}
