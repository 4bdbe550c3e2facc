package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/example/pos-billing/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module serves read access to recorded sales.
type Module struct {
	database *database.PluginModule
	service  *Service
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new sales module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Name() string {
	return "sales"
}

func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "database" {
		return
	}
	db, ok := plugin.(*database.PluginModule)
	if !ok {
		log.Printf("[sales] Invalid plugin type for %s", alias)
		return
	}
	m.database = db
}

func (m *Module) Start(_ context.Context) error {
	if m.database == nil || m.database.Port() == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}
	m.service = NewService(invoice.NewRepository(m.database.Port()))
	log.Println("[sales] Module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	log.Println("[sales] Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{Healthy: false, Message: "service not initialized"}
	}
	page, err := m.service.List(ctx, ListSalesRequest{Status: statusAll, Limit: 1})
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("invoice store unavailable: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"invoices": page.Total},
	}
}

func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-sales",
		json.Unmarshal,
		json.Marshal,
		m.handleListSales,
	); err != nil {
		return fmt.Errorf("failed to register list-sales service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-invoice",
		json.Unmarshal,
		json.Marshal,
		m.handleGetInvoice,
	); err != nil {
		return fmt.Errorf("failed to register get-invoice service: %w", err)
	}

	log.Printf("[sales] Registered services: list-sales, get-invoice")
	return nil
}

func (m *Module) handleListSales(ctx context.Context, req ListSalesRequest, _ *mono.Msg) (ListSalesResponse, error) {
	resp, err := m.service.List(ctx, req)
	if err != nil {
		return ListSalesResponse{}, err
	}
	return *resp, nil
}

func (m *Module) handleGetInvoice(ctx context.Context, req GetInvoiceRequest, _ *mono.Msg) (GetInvoiceResponse, error) {
	inv, err := m.service.Get(ctx, req.ID)
	if errors.Is(err, ErrInvoiceNotFound) {
		return GetInvoiceResponse{Found: false}, nil
	}
	if err != nil {
		return GetInvoiceResponse{}, err
	}
	return GetInvoiceResponse{Invoice: inv, Found: true}, nil
}
