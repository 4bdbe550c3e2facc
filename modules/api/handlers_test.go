package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/example/pos-billing/domain/product"
	domain "github.com/example/pos-billing/domain/user"
	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
	"github.com/example/pos-billing/modules/inventory"
	"github.com/example/pos-billing/modules/notification"
	"github.com/example/pos-billing/modules/sales"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBillingPort struct {
	prepareFunc  func(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error)
	confirmFunc  func(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
	cancelFunc   func(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
	checkoutFunc func(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error)
}

func (m *mockBillingPort) Prepare(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error) {
	if m.prepareFunc != nil {
		return m.prepareFunc(ctx, cart, cashier, billDiscount)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBillingPort) Confirm(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, invoiceID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBillingPort) Cancel(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, invoiceID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBillingPort) Checkout(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error) {
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, cart, cashier, billDiscount)
	}
	return nil, errors.New("not implemented")
}

type mockInventoryPort struct {
	getProductFunc    func(ctx context.Context, id string) (*inventory.ProductResponse, error)
	createProductFunc func(ctx context.Context, req *inventory.CreateProductRequest) (*product.Product, error)
	deleteProductFunc func(ctx context.Context, id string) error
}

func (m *mockInventoryPort) ListProducts(ctx context.Context, query string) (*inventory.ListProductsResponse, error) {
	return &inventory.ListProductsResponse{}, nil
}

func (m *mockInventoryPort) GetProduct(ctx context.Context, id string) (*inventory.ProductResponse, error) {
	if m.getProductFunc != nil {
		return m.getProductFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockInventoryPort) CreateProduct(ctx context.Context, req *inventory.CreateProductRequest) (*product.Product, error) {
	if m.createProductFunc != nil {
		return m.createProductFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockInventoryPort) UpdateProduct(ctx context.Context, req *inventory.UpdateProductRequest) (*product.Product, error) {
	return nil, errors.New("not implemented")
}

func (m *mockInventoryPort) DeleteProduct(ctx context.Context, id string) error {
	if m.deleteProductFunc != nil {
		return m.deleteProductFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockInventoryPort) Stats(ctx context.Context) (*product.Stats, error) {
	return &product.Stats{}, nil
}

type mockSalesPort struct {
	listFunc func(ctx context.Context, req sales.ListSalesRequest) (*sales.ListSalesResponse, error)
}

func (m *mockSalesPort) ListSales(ctx context.Context, req sales.ListSalesRequest) (*sales.ListSalesResponse, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, req)
	}
	return &sales.ListSalesResponse{}, nil
}

func (m *mockSalesPort) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	return nil, sales.ErrInvoiceNotFound
}

type mockNotificationPort struct{}

func (m *mockNotificationPort) ListNotifications(ctx context.Context, kind notification.Kind, limit int) ([]notification.Notification, error) {
	return nil, nil
}

// testTokens maps bearer tokens to the claims the mock auth port returns.
var testTokens = map[string]*domain.Claims{
	"admin-token": {UserID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: domain.RoleAdmin},
	"staff-token": {UserID: "staff-1", Email: "staff@example.com", Name: "Cashier", Role: domain.RoleStaff},
}

type testPorts struct {
	auth      *mockAuthPort
	billing   *mockBillingPort
	inventory *mockInventoryPort
	sales     *mockSalesPort
}

func newTestApp(ports testPorts) *fiber.App {
	if ports.auth == nil {
		ports.auth = &mockAuthPort{}
	}
	if ports.auth.validateTokenFunc == nil {
		ports.auth.validateTokenFunc = func(ctx context.Context, token string) (*domain.Claims, error) {
			if claims, ok := testTokens[token]; ok {
				return claims, nil
			}
			return nil, auth.ErrInvalidToken
		}
	}
	if ports.billing == nil {
		ports.billing = &mockBillingPort{}
	}
	if ports.inventory == nil {
		ports.inventory = &mockInventoryPort{}
	}
	if ports.sales == nil {
		ports.sales = &mockSalesPort{}
	}

	h := NewHandlers(ports.auth, ports.billing, ports.inventory, ports.sales, &mockNotificationPort{})
	passThrough := func(c *fiber.Ctx) error { return c.Next() }
	return newApp(h, ports.auth, passThrough)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestPrepareInvoice_Created(t *testing.T) {
	var gotCashier billing.Cashier
	var gotCart []billing.CartLine
	ports := testPorts{billing: &mockBillingPort{
		prepareFunc: func(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error) {
			gotCashier = cashier
			gotCart = cart
			return &invoice.Invoice{ID: "inv-1", InvoiceNumber: "INV-2026-00001", Status: invoice.StatusPending}, nil
		},
	}}
	app := newTestApp(ports)

	resp, body := doJSON(t, app, "POST", "/api/v1/billing/prepare", "staff-token", CartRequest{
		Cart: []billing.CartLine{{ProductID: "p-1", Quantity: 2}},
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, billing.Cashier{ID: "staff-1", Name: "Cashier"}, gotCashier)
	assert.Equal(t, []billing.CartLine{{ProductID: "p-1", Quantity: 2}}, gotCart)

	var inv invoice.Invoice
	require.NoError(t, json.Unmarshal(body, &inv))
	assert.Equal(t, "INV-2026-00001", inv.InvoiceNumber)
	assert.Equal(t, invoice.StatusPending, inv.Status)
}

func TestBillingErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty cart", billing.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
		{"invalid line", fmt.Errorf("billing service call failed: %w", billing.ErrInvalidCart), http.StatusBadRequest, "invalid_cart"},
		{"missing product", billing.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
		{"store failure", billing.ErrStoreFailure, http.StatusInternalServerError, "store_failure"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(testPorts{billing: &mockBillingPort{
				checkoutFunc: func(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error) {
					return nil, tt.err
				},
			}})

			resp, body := doJSON(t, app, "POST", "/api/v1/billing", "staff-token", CartRequest{})

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.wantCode, errResp.Error)
		})
	}
}

func TestPrepareInvoice_InsufficientStock(t *testing.T) {
	app := newTestApp(testPorts{billing: &mockBillingPort{
		prepareFunc: func(ctx context.Context, cart []billing.CartLine, cashier billing.Cashier, billDiscount float64) (*invoice.Invoice, error) {
			return nil, &billing.InsufficientStockError{ProductID: "p-1", Product: "Soap", Requested: 5, Available: 2}
		},
	}})

	resp, body := doJSON(t, app, "POST", "/api/v1/billing/prepare", "staff-token", CartRequest{
		Cart: []billing.CartLine{{ProductID: "p-1", Quantity: 5}},
	})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp struct {
		Error   string        `json:"error"`
		Message string        `json:"message"`
		Details StockShortage `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "insufficient_stock", errResp.Error)
	assert.Equal(t, StockShortage{ProductID: "p-1", Product: "Soap", Requested: 5, Available: 2}, errResp.Details)
}

func TestPrepareInvoice_InvalidBody(t *testing.T) {
	app := newTestApp(testPorts{})

	resp, body := doJSON(t, app, "POST", "/api/v1/billing/prepare", "staff-token", "{not json")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "bad_request")
}

func TestConfirmInvoice(t *testing.T) {
	t.Run("requires invoice id", func(t *testing.T) {
		app := newTestApp(testPorts{})

		resp, body := doJSON(t, app, "POST", "/api/v1/billing/confirm", "staff-token", InvoiceActionRequest{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "invoice_id is required")
	})

	t.Run("already processed", func(t *testing.T) {
		app := newTestApp(testPorts{billing: &mockBillingPort{
			confirmFunc: func(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
				return nil, fmt.Errorf("billing service call failed: %w", billing.ErrAlreadyProcessed)
			},
		}})

		resp, body := doJSON(t, app, "POST", "/api/v1/billing/confirm", "staff-token", InvoiceActionRequest{InvoiceID: "inv-1"})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(body, &errResp))
		assert.Equal(t, "already_processed", errResp.Error)
		assert.Equal(t, "invoice already processed", errResp.Message)
	})

	t.Run("confirmed", func(t *testing.T) {
		app := newTestApp(testPorts{billing: &mockBillingPort{
			confirmFunc: func(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
				return &invoice.Invoice{ID: invoiceID, Status: invoice.StatusCompleted}, nil
			},
		}})

		resp, body := doJSON(t, app, "POST", "/api/v1/billing/confirm", "staff-token", InvoiceActionRequest{InvoiceID: "inv-1"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"status":"completed"`)
	})
}

func TestCancelInvoice_NotFound(t *testing.T) {
	app := newTestApp(testPorts{billing: &mockBillingPort{
		cancelFunc: func(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
			return nil, billing.ErrInvoiceNotFound
		},
	}})

	resp, _ := doJSON(t, app, "POST", "/api/v1/billing/cancel", "staff-token", InvoiceActionRequest{InvoiceID: "missing"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"staff cannot list sales", "GET", "/api/v1/sales", "staff-token", http.StatusForbidden},
		{"admin lists sales", "GET", "/api/v1/sales", "admin-token", http.StatusOK},
		{"staff cannot see stats", "GET", "/api/v1/products/stats", "staff-token", http.StatusForbidden},
		{"staff cannot delete products", "DELETE", "/api/v1/products/p-1", "staff-token", http.StatusForbidden},
		{"staff lists products", "GET", "/api/v1/products", "staff-token", http.StatusOK},
		{"staff cannot read notifications", "GET", "/api/v1/notifications", "staff-token", http.StatusForbidden},
		{"admin reads notifications", "GET", "/api/v1/notifications", "admin-token", http.StatusOK},
		{"missing token", "GET", "/api/v1/products", "", http.StatusUnauthorized},
		{"unknown token", "GET", "/api/v1/products", "bogus", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(testPorts{})

			resp, _ := doJSON(t, app, tt.method, tt.path, tt.token, nil)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestListSales_PassesQuery(t *testing.T) {
	var got sales.ListSalesRequest
	app := newTestApp(testPorts{sales: &mockSalesPort{
		listFunc: func(ctx context.Context, req sales.ListSalesRequest) (*sales.ListSalesResponse, error) {
			got = req
			return &sales.ListSalesResponse{Limit: req.Limit, Offset: req.Offset}, nil
		},
	}})

	resp, _ := doJSON(t, app, "GET", "/api/v1/sales?status=cancelled&limit=10&offset=20", "admin-token", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sales.ListSalesRequest{Status: "cancelled", Limit: 10, Offset: 20}, got)
}

func TestGetSale_NotFound(t *testing.T) {
	app := newTestApp(testPorts{})

	resp, body := doJSON(t, app, "GET", "/api/v1/sales/missing", "staff-token", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "invoice_not_found")
}

func TestProducts(t *testing.T) {
	t.Run("get missing product", func(t *testing.T) {
		app := newTestApp(testPorts{inventory: &mockInventoryPort{
			getProductFunc: func(ctx context.Context, id string) (*inventory.ProductResponse, error) {
				return nil, fmt.Errorf("inventory service call failed: %w", inventory.ErrProductNotFound)
			},
		}})

		resp, _ := doJSON(t, app, "GET", "/api/v1/products/nope", "staff-token", nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("create product", func(t *testing.T) {
		app := newTestApp(testPorts{inventory: &mockInventoryPort{
			createProductFunc: func(ctx context.Context, req *inventory.CreateProductRequest) (*product.Product, error) {
				return &product.Product{ID: "p-1", Name: req.Name, Price: req.Price}, nil
			},
		}})

		resp, body := doJSON(t, app, "POST", "/api/v1/products", "admin-token", map[string]any{
			"name":  "Soap",
			"price": 2.5,
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, string(body), `"name":"Soap"`)
	})

	t.Run("delete referenced product", func(t *testing.T) {
		app := newTestApp(testPorts{inventory: &mockInventoryPort{
			deleteProductFunc: func(ctx context.Context, id string) error {
				return inventory.ErrProductReferenced
			},
		}})

		resp, body := doJSON(t, app, "DELETE", "/api/v1/products/p-1", "admin-token", nil)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, string(body), "product_referenced")
	})

	t.Run("delete product", func(t *testing.T) {
		app := newTestApp(testPorts{inventory: &mockInventoryPort{
			deleteProductFunc: func(ctx context.Context, id string) error { return nil },
		}})

		resp, _ := doJSON(t, app, "DELETE", "/api/v1/products/p-1", "admin-token", nil)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	t.Run("invalid credentials", func(t *testing.T) {
		app := newTestApp(testPorts{auth: &mockAuthPort{
			loginFunc: func(ctx context.Context, email, password string) (*auth.LoginResponse, error) {
				return nil, auth.ErrInvalidCredentials
			},
		}})

		resp, body := doJSON(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{Email: "a@b.co", Password: "wrong"})

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(body), "unauthorized")
	})

	t.Run("missing fields", func(t *testing.T) {
		app := newTestApp(testPorts{})

		resp, _ := doJSON(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{Email: "a@b.co"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		app := newTestApp(testPorts{auth: &mockAuthPort{
			loginFunc: func(ctx context.Context, email, password string) (*auth.LoginResponse, error) {
				return &auth.LoginResponse{
					AccessToken:  "access",
					RefreshToken: "refresh",
					ExpiresIn:    3600,
					TokenType:    "Bearer",
					User:         &auth.UserResponse{ID: "u-1", Email: email, Role: domain.RoleStaff},
				}, nil
			},
		}})

		resp, body := doJSON(t, app, "POST", "/api/v1/auth/login", "", LoginRequest{Email: "a@b.co", Password: "secret"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var tok TokenResponse
		require.NoError(t, json.Unmarshal(body, &tok))
		assert.Equal(t, "access", tok.AccessToken)
		require.NotNil(t, tok.User)
		assert.Equal(t, "a@b.co", tok.User.Email)
	})
}

func TestCreateStaff_Conflict(t *testing.T) {
	app := newTestApp(testPorts{auth: &mockAuthPort{
		createStaffFunc: func(ctx context.Context, req *auth.CreateStaffRequest) (*auth.UserResponse, error) {
			return nil, auth.ErrUserExists
		},
	}})

	resp, _ := doJSON(t, app, "POST", "/api/v1/users", "admin-token", CreateStaffRequest{
		Name: "Cashier", Email: "c@example.com", Password: "longenough1",
	})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newTestApp(testPorts{})

	resp, body := doJSON(t, app, "GET", "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}
