package auth

import (
	"errors"
	"testing"
	"time"

	domain "github.com/example/pos-billing/domain/user"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-issuer",
	}
}

func testUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:    "user-123",
		Name:  "Asha",
		Email: "asha@example.com",
		Role:  role,
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	config := testJWTConfig()
	manager := NewJWTManager(config)
	user := testUser(domain.RoleStaff)

	token, err := manager.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAccessToken() returned empty token")
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("claims.Email = %v, want %v", claims.Email, user.Email)
	}
	if claims.Name != user.Name {
		t.Errorf("claims.Name = %v, want %v", claims.Name, user.Name)
	}
	if claims.Role != domain.RoleStaff {
		t.Errorf("claims.Role = %v, want %v", claims.Role, domain.RoleStaff)
	}
	if claims.TokenType != "access" {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, "access")
	}
	if claims.Issuer != config.Issuer {
		t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, config.Issuer)
	}
}

func TestJWTManager_GenerateAndValidateRefreshToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateRefreshToken(testUser(domain.RoleAdmin))
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	claims, err := manager.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, "refresh")
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("claims.Role = %v, want %v", claims.Role, domain.RoleAdmin)
	}
}

func TestJWTManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())
	user := testUser(domain.RoleStaff)

	accessToken, err := manager.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refreshToken, err := manager.GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(accessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrInvalidToken", err)
	}
	if _, err := manager.ValidateAccessToken(refreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_RejectsUnknownRole(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateAccessToken(testUser(domain.Role("manager")))
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := manager.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "random string",
			token: "not.a.valid.token",
		},
		{
			name:  "malformed jwt",
			token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() should return error for invalid token")
			}
		})
	}
}

func TestJWTManager_WrongSecretKeyOrIssuer(t *testing.T) {
	signer := NewJWTManager(testJWTConfig())

	otherSecret := testJWTConfig()
	otherSecret.SecretKey = "secret-key-2"
	otherIssuer := testJWTConfig()
	otherIssuer.Issuer = "someone-else"

	token, err := signer.GenerateAccessToken(testUser(domain.RoleStaff))
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := NewJWTManager(otherSecret).ValidateToken(token); err == nil {
		t.Error("ValidateToken() should fail with different secret key")
	}
	if _, err := NewJWTManager(otherIssuer).ValidateToken(token); err == nil {
		t.Error("ValidateToken() should fail with different issuer")
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := manager.GenerateAccessToken(testUser(domain.RoleStaff))
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	manager.now = time.Now
	_, err = manager.ValidateToken(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTManager_AccessTokenDuration(t *testing.T) {
	config := testJWTConfig()
	config.AccessTokenDuration = 30 * time.Minute
	manager := NewJWTManager(config)

	expected := int64(30 * 60)
	if got := manager.AccessTokenDuration(); got != expected {
		t.Errorf("AccessTokenDuration() = %v, want %v", got, expected)
	}
}
