package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/pos-billing/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AdminSeed describes the administrator created on first start.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// Config holds the auth module configuration.
type Config struct {
	JWT        JWTConfig
	BcryptCost int
	Admin      AdminSeed
}

// AuthModule provides authentication services.
type AuthModule struct {
	database *database.PluginModule
	service  *AuthService
	config   Config
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*AuthModule)(nil)
	_ mono.UsePluginModule       = (*AuthModule)(nil)
	_ mono.ServiceProviderModule = (*AuthModule)(nil)
	_ mono.HealthCheckableModule = (*AuthModule)(nil)
)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	return &AuthModule{config: config}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetPlugin receives the database plugin from the framework.
func (m *AuthModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "database" {
		return
	}
	db, ok := plugin.(*database.PluginModule)
	if !ok {
		log.Printf("[auth] Invalid plugin type for %s", alias)
		return
	}
	m.database = db
}

// Start initializes the auth module and seeds the admin account.
func (m *AuthModule) Start(ctx context.Context) error {
	if m.database == nil || m.database.Port() == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}

	repo := NewUserRepository(m.database.Port())
	hasher := NewPasswordHasher(m.config.BcryptCost)
	jwtManager := NewJWTManager(m.config.JWT)

	m.service = NewAuthService(repo, hasher, jwtManager)

	if seed := m.config.Admin; seed.Email != "" {
		created, err := m.service.EnsureAdmin(ctx, seed.Name, seed.Email, seed.Password)
		if err != nil {
			return err
		}
		if created {
			log.Printf("[auth] Seeded admin account: %s", seed.Email)
		}
	}

	log.Printf("[auth] Module started (issuer: %s)", m.config.JWT.Issuer)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}

	staff, err := m.service.ListStaff(ctx)
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("user store unavailable: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"staff_accounts": len(staff),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	// Register login service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	// Register refresh-token service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"refresh-token",
		json.Unmarshal,
		json.Marshal,
		m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	// Register validate-token service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"validate-token",
		json.Unmarshal,
		json.Marshal,
		m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	// Register get-user service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	// Register create-staff service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"create-staff",
		json.Unmarshal,
		json.Marshal,
		m.handleCreateStaff,
	); err != nil {
		return fmt.Errorf("failed to register create-staff service: %w", err)
	}

	// Register list-staff service
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-staff",
		json.Unmarshal,
		json.Marshal,
		m.handleListStaff,
	); err != nil {
		return fmt.Errorf("failed to register list-staff service: %w", err)
	}

	log.Printf("[auth] Registered services: login, refresh-token, validate-token, get-user, create-staff, list-staff")
	return nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	tokens, user, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}

	view := NewUserResponse(user)
	return LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
		User:         &view,
	}, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{}, err
	}

	return RefreshResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil // Return response, not error, for validation failures
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return NewUserResponse(user), nil
}

func (m *AuthModule) handleCreateStaff(ctx context.Context, req CreateStaffRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.CreateStaff(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return UserResponse{}, err
	}
	log.Printf("[auth] Staff account created: %s", user.Email)
	return NewUserResponse(user), nil
}

func (m *AuthModule) handleListStaff(ctx context.Context, _ ListStaffRequest, _ *mono.Msg) (ListStaffResponse, error) {
	users, err := m.service.ListStaff(ctx)
	if err != nil {
		return ListStaffResponse{}, err
	}

	resp := ListStaffResponse{Users: make([]UserResponse, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, NewUserResponse(&users[i]))
	}
	return resp, nil
}
