package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/pos-billing/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserResponse, error)
	CreateStaff(ctx context.Context, req *CreateStaffRequest) (*UserResponse, error)
	ListStaff(ctx context.Context) ([]UserResponse, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp LoginResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("login request failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp RefreshResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("refresh-token request failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		if resp.Error == "token expired" {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Name:   resp.Name,
		Role:   resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// CreateStaff creates a cashier account.
func (a *AuthAdapter) CreateStaff(ctx context.Context, req *CreateStaffRequest) (*UserResponse, error) {
	var resp UserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-staff",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-staff request failed: %w", mapServiceError(err))
	}
	return &resp, nil
}

// ListStaff lists cashier accounts.
func (a *AuthAdapter) ListStaff(ctx context.Context) ([]UserResponse, error) {
	req := ListStaffRequest{}
	var resp ListStaffResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-staff",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-staff request failed: %w", mapServiceError(err))
	}
	return resp.Users, nil
}

// mapServiceError maps remote error messages back to auth errors.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := err.Error()
	for _, known := range []error{
		ErrInvalidCredentials,
		ErrUserExists,
		ErrUserNotFound,
		ErrInvalidEmail,
		ErrInvalidName,
		ErrWeakPassword,
		ErrPasswordTooLong,
		ErrExpiredToken,
		ErrInvalidToken,
	} {
		if strings.Contains(errMsg, known.Error()) {
			return known
		}
	}
	return err
}
