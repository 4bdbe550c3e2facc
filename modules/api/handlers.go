package api

import (
	"log"
	"strings"

	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
	"github.com/example/pos-billing/modules/inventory"
	"github.com/example/pos-billing/modules/notification"
	"github.com/example/pos-billing/modules/sales"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth          auth.AuthPort
	billing       billing.BillingPort
	inventory     inventory.InventoryPort
	sales         sales.SalesPort
	notifications notification.NotificationPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	authPort auth.AuthPort,
	billingPort billing.BillingPort,
	inventoryPort inventory.InventoryPort,
	salesPort sales.SalesPort,
	notificationPort notification.NotificationPort,
) *Handlers {
	return &Handlers{
		auth:          authPort,
		billing:       billingPort,
		inventory:     inventoryPort,
		sales:         salesPort,
		notifications: notificationPort,
	}
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
		User:         resp.User,
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	resp, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Me returns the signed-in account.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

// PrepareInvoice prices the cart and stores a pending invoice for the caller.
func (h *Handlers) PrepareInvoice(c *fiber.Ctx) error {
	req, cashier, err := h.parseCart(c)
	if err != nil {
		return err
	}

	inv, err := h.billing.Prepare(c.UserContext(), req.Cart, cashier, req.BillDiscount)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// ConfirmInvoice completes a pending invoice and takes its stock.
func (h *Handlers) ConfirmInvoice(c *fiber.Ctx) error {
	invoiceID, err := parseInvoiceID(c)
	if err != nil {
		return err
	}

	inv, err := h.billing.Confirm(c.UserContext(), invoiceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inv)
}

// CancelInvoice abandons a pending invoice.
func (h *Handlers) CancelInvoice(c *fiber.Ctx) error {
	invoiceID, err := parseInvoiceID(c)
	if err != nil {
		return err
	}

	inv, err := h.billing.Cancel(c.UserContext(), invoiceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inv)
}

// Checkout prepares and confirms the cart in one request.
func (h *Handlers) Checkout(c *fiber.Ctx) error {
	req, cashier, err := h.parseCart(c)
	if err != nil {
		return err
	}

	inv, err := h.billing.Checkout(c.UserContext(), req.Cart, cashier, req.BillDiscount)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// parseCart reads the cart body and the cashier from the caller's claims.
func (h *Handlers) parseCart(c *fiber.Ctx) (*CartRequest, billing.Cashier, error) {
	claims, ok := claimsFrom(c)
	if !ok {
		return nil, billing.Cashier{}, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}

	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, billing.Cashier{}, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return &req, billing.Cashier{ID: claims.UserID, Name: claims.Name}, nil
}

func parseInvoiceID(c *fiber.Ctx) (string, error) {
	var req InvoiceActionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.InvoiceID) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invoice_id is required")
	}
	return req.InvoiceID, nil
}

// ListProducts lists products, optionally filtered by ?query=.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	query := c.Query("query", c.Query("q"))

	resp, err := h.inventory.ListProducts(c.UserContext(), query)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetProduct returns one product.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	resp, err := h.inventory.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// CreateProduct adds a product to the catalog.
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var req inventory.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	p, err := h.inventory.CreateProduct(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProduct applies a partial update.
func (h *Handlers) UpdateProduct(c *fiber.Ctx) error {
	var req inventory.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.ID = c.Params("id")

	p, err := h.inventory.UpdateProduct(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

// DeleteProduct removes a product that no invoice references.
func (h *Handlers) DeleteProduct(c *fiber.Ctx) error {
	if err := h.inventory.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ProductStats returns catalog totals.
func (h *Handlers) ProductStats(c *fiber.Ctx) error {
	stats, err := h.inventory.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// ListSales lists invoices; ?status=, ?limit= and ?offset= narrow the page.
func (h *Handlers) ListSales(c *fiber.Ctx) error {
	req := sales.ListSalesRequest{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}

	resp, err := h.sales.ListSales(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetSale returns one invoice with its lines.
func (h *Handlers) GetSale(c *fiber.Ctx) error {
	inv, err := h.sales.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inv)
}

// ListStaff lists cashier accounts.
func (h *Handlers) ListStaff(c *fiber.Ctx) error {
	users, err := h.auth.ListStaff(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if users == nil {
		users = []auth.UserResponse{}
	}
	return c.JSON(fiber.Map{"users": users})
}

// CreateStaff creates a cashier account.
func (h *Handlers) CreateStaff(c *fiber.Ctx) error {
	var req CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return badRequest(c, "Name, email and password are required")
	}

	user, err := h.auth.CreateStaff(c.UserContext(), &auth.CreateStaffRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}

	log.Printf("[api] Staff account created: %s", user.Email)
	return c.Status(fiber.StatusCreated).JSON(user)
}

// ListNotifications returns the admin feed; ?kind= and ?limit= narrow it.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	items, err := h.notifications.ListNotifications(
		c.UserContext(),
		notification.Kind(c.Query("kind")),
		c.QueryInt("limit", 50),
	)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return c.JSON(fiber.Map{"notifications": items})
}
