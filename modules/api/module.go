package api

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/pos-billing/domain/user"
	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
	"github.com/example/pos-billing/modules/inventory"
	"github.com/example/pos-billing/modules/notification"
	"github.com/example/pos-billing/modules/ratelimit"
	"github.com/example/pos-billing/modules/sales"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port       int
	LoginLimit ratelimit.Config
}

// APIModule is the HTTP API module.
type APIModule struct {
	app         *fiber.App
	config      Config
	rateLimiter *ratelimit.Module

	authAdapter         auth.AuthPort
	billingAdapter      billing.BillingPort
	inventoryAdapter    inventory.InventoryPort
	salesAdapter        sales.SalesPort
	notificationAdapter notification.NotificationPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. rateLimiter may be nil, which disables
// login rate limiting.
func NewModule(config Config, rateLimiter *ratelimit.Module) *APIModule {
	return &APIModule{
		config:      config,
		rateLimiter: rateLimiter,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "billing", "inventory", "sales", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "billing":
		m.billingAdapter = billing.NewBillingAdapter(container)
	case "inventory":
		m.inventoryAdapter = inventory.NewInventoryAdapter(container)
	case "sales":
		m.salesAdapter = sales.NewSalesAdapter(container)
	case "notification":
		m.notificationAdapter = notification.NewNotificationAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil || m.billingAdapter == nil || m.inventoryAdapter == nil ||
		m.salesAdapter == nil || m.notificationAdapter == nil {
		return fmt.Errorf("api dependencies not set")
	}

	handlers := NewHandlers(m.authAdapter, m.billingAdapter, m.inventoryAdapter, m.salesAdapter, m.notificationAdapter)

	var limiterSource func() ratelimit.Allower
	if m.rateLimiter != nil {
		limiterSource = m.rateLimiter.Limiter
	}
	loginLimit := ratelimit.NewMiddleware("login", m.config.LoginLimit, limiterSource, ratelimit.ByIP)

	m.app = newApp(handlers, m.authAdapter, loginLimit.Handler())

	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":          m.config.Port,
			"rate_limiting": m.rateLimiter != nil,
		},
	}
}

// newApp builds the Fiber app with every route.
func newApp(h *Handlers, authPort auth.AuthPort, loginLimit fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := app.Group("/api/v1")

	// Public routes are registered before the auth middleware.
	v1.Post("/auth/login", loginLimit, h.Login)
	v1.Post("/auth/refresh", h.Refresh)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(authPort))

	anyRole := RequireRole(domain.RoleAdmin, domain.RoleStaff)
	adminOnly := RequireRole(domain.RoleAdmin)

	protected.Get("/auth/me", anyRole, h.Me)

	protected.Post("/billing/prepare", anyRole, h.PrepareInvoice)
	protected.Post("/billing/confirm", anyRole, h.ConfirmInvoice)
	protected.Post("/billing/cancel", anyRole, h.CancelInvoice)
	protected.Post("/billing", anyRole, h.Checkout)

	protected.Get("/products", anyRole, h.ListProducts)
	protected.Get("/products/stats", adminOnly, h.ProductStats)
	protected.Get("/products/:id", anyRole, h.GetProduct)
	protected.Post("/products", adminOnly, h.CreateProduct)
	protected.Patch("/products/:id", adminOnly, h.UpdateProduct)
	protected.Delete("/products/:id", adminOnly, h.DeleteProduct)

	protected.Get("/sales", adminOnly, h.ListSales)
	protected.Get("/sales/:id", anyRole, h.GetSale)

	protected.Get("/users", adminOnly, h.ListStaff)
	protected.Post("/users", adminOnly, h.CreateStaff)

	protected.Get("/notifications", adminOnly, h.ListNotifications)

	return app
}
