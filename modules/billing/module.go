package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/pos-billing/events"
	"github.com/example/pos-billing/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module exposes the billing lifecycle as request-reply services.
type Module struct {
	database *database.PluginModule
	service  *Service
	eventBus mono.EventBus
	config   Config
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a billing module with the given pricing configuration.
func NewModule(config Config) *Module {
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "billing"
}

// SetPlugin receives the database plugin from the framework.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "database" {
		return
	}
	db, ok := plugin.(*database.PluginModule)
	if !ok {
		log.Printf("[billing] Invalid plugin type for %s", alias)
		return
	}
	m.database = db
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	if m.service != nil {
		m.service.SetEventBus(bus)
	}
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.InvoicePreparedV1.ToBase(),
		events.InvoiceConfirmedV1.ToBase(),
		events.InvoiceCancelledV1.ToBase(),
		events.StockDepletedV1.ToBase(),
	}
}

// Start builds the billing service on the shared database.
func (m *Module) Start(_ context.Context) error {
	if m.database == nil || m.database.Port() == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}

	numberer, err := NewNumberer()
	if err != nil {
		return err
	}

	m.service = NewService(m.database.Port(), numberer, m.config)
	m.service.SetEventBus(m.eventBus)

	mode := "discount"
	if m.config.TaxRate > 0 {
		mode = fmt.Sprintf("tax %.2f%%", m.config.TaxRate)
	}
	log.Printf("[billing] Module started (pricing: %s, payment: %s)", mode, m.service.config.PaymentMethod)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[billing] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"tax_rate":       m.config.TaxRate,
			"payment_method": m.service.config.PaymentMethod,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"prepare",
		json.Unmarshal,
		json.Marshal,
		m.handlePrepare,
	); err != nil {
		return fmt.Errorf("failed to register prepare service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"confirm",
		json.Unmarshal,
		json.Marshal,
		m.handleConfirm,
	); err != nil {
		return fmt.Errorf("failed to register confirm service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"cancel",
		json.Unmarshal,
		json.Marshal,
		m.handleCancel,
	); err != nil {
		return fmt.Errorf("failed to register cancel service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"checkout",
		json.Unmarshal,
		json.Marshal,
		m.handleCheckout,
	); err != nil {
		return fmt.Errorf("failed to register checkout service: %w", err)
	}

	log.Printf("[billing] Registered services: prepare, confirm, cancel, checkout")
	return nil
}

// handlePrepare handles invoice preparation.
// Billing failures travel inside the reply so the adapter can restore them.
func (m *Module) handlePrepare(ctx context.Context, req PrepareRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Prepare(ctx, req.Cart, req.Cashier, req.BillDiscount)
	if err != nil {
		return InvoiceResponse{Error: toDetail(err)}, nil
	}
	return InvoiceResponse{Invoice: inv}, nil
}

func (m *Module) handleConfirm(ctx context.Context, req InvoiceRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Confirm(ctx, req.InvoiceID)
	if err != nil {
		return InvoiceResponse{Error: toDetail(err)}, nil
	}
	return InvoiceResponse{Invoice: inv}, nil
}

func (m *Module) handleCancel(ctx context.Context, req InvoiceRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Cancel(ctx, req.InvoiceID)
	if err != nil {
		return InvoiceResponse{Error: toDetail(err)}, nil
	}
	return InvoiceResponse{Invoice: inv}, nil
}

func (m *Module) handleCheckout(ctx context.Context, req PrepareRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Checkout(ctx, req.Cart, req.Cashier, req.BillDiscount)
	if err != nil {
		return InvoiceResponse{Error: toDetail(err)}, nil
	}
	return InvoiceResponse{Invoice: inv}, nil
}
