package api

import (
	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
)

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresIn    int64              `json:"expires_in"`
	TokenType    string             `json:"token_type"`
	User         *auth.UserResponse `json:"user,omitempty"`
}

// CartRequest is the body of prepare and checkout.
type CartRequest struct {
	Cart         []billing.CartLine `json:"cart"`
	BillDiscount float64            `json:"bill_discount"`
}

// InvoiceActionRequest is the body of confirm and cancel.
type InvoiceActionRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// CreateStaffRequest is the body for creating a cashier account.
type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// StockShortage details an insufficient stock rejection.
type StockShortage struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
