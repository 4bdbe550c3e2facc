package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/example/pos-billing/domain/user"
	"github.com/example/pos-billing/modules/database"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return NewAuthService(NewUserRepository(db), NewPasswordHasher(bcrypt.MinCost), NewJWTManager(testJWTConfig()))
}

func TestCreateStaffValidation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"missing name", "  ", "a@example.com", "password123", ErrInvalidName},
		{"missing @", "Ravi", "ravi.example.com", "password123", ErrInvalidEmail},
		{"empty email", "Ravi", "", "password123", ErrInvalidEmail},
		{"short password", "Ravi", "ravi@example.com", "1234567", ErrWeakPassword},
		{"long password", "Ravi", "ravi@example.com", strings.Repeat("p", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStaff(ctx, tt.userName, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateStaff() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateStaffAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.CreateStaff(ctx, " Ravi ", "Ravi@Example.com", "password123")
	if err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	if user.Role != domain.RoleStaff {
		t.Errorf("Role = %v, want %v", user.Role, domain.RoleStaff)
	}
	if user.Email != "ravi@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plain text")
	}

	if _, err := svc.CreateStaff(ctx, "Other", "ravi@example.com", "password456"); !errors.Is(err, ErrUserExists) {
		t.Errorf("CreateStaff() duplicate error = %v, want ErrUserExists", err)
	}

	tokens, loggedIn, err := svc.Login(ctx, "RAVI@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Login() user = %v, want %v", loggedIn.ID, user.ID)
	}
	if tokens.TokenType != "Bearer" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Errorf("Login() tokens = %+v", tokens)
	}

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Role != domain.RoleStaff || claims.Name != "Ravi" {
		t.Errorf("ValidateToken() claims = %+v", claims)
	}
	if claims.IsAdmin() {
		t.Error("staff claims reported as admin")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.CreateStaff(ctx, "Mina", "mina@example.com", "password123"); err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "mina@example.com", "password999"},
		{"unknown email", "nobody@example.com", "password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRefreshTokens(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.CreateStaff(ctx, "Mina", "mina@example.com", "password123"); err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	tokens, _, err := svc.Login(ctx, "mina@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	refreshed, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if _, err := svc.ValidateToken(ctx, refreshed.AccessToken); err != nil {
		t.Errorf("ValidateToken(refreshed) error = %v", err)
	}

	if _, err := svc.RefreshTokens(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("RefreshTokens(access) error = %v, want ErrInvalidToken", err)
	}
}

func TestEnsureAdminSeedsOnce(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "Owner", "admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if !created {
		t.Error("EnsureAdmin() created = false on empty store")
	}

	created, err = svc.EnsureAdmin(ctx, "Owner 2", "owner2@example.com", "admin-password")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if created {
		t.Error("EnsureAdmin() created a second admin")
	}

	_, user, err := svc.Login(ctx, "admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("Role = %v, want %v", user.Role, domain.RoleAdmin)
	}

	staff, err := svc.ListStaff(ctx)
	if err != nil {
		t.Fatalf("ListStaff() error = %v", err)
	}
	if len(staff) != 0 {
		t.Errorf("ListStaff() = %d users, want admin excluded", len(staff))
	}
}

func TestListStaffAndGetUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	for _, name := range []string{"Ana", "Ben"} {
		if _, err := svc.CreateStaff(ctx, name, strings.ToLower(name)+"@example.com", "password123"); err != nil {
			t.Fatalf("CreateStaff(%s) error = %v", name, err)
		}
	}

	staff, err := svc.ListStaff(ctx)
	if err != nil {
		t.Fatalf("ListStaff() error = %v", err)
	}
	if len(staff) != 2 {
		t.Fatalf("ListStaff() = %d users, want 2", len(staff))
	}

	got, err := svc.GetUser(ctx, staff[0].ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Email != staff[0].Email {
		t.Errorf("GetUser() email = %v, want %v", got.Email, staff[0].Email)
	}

	if _, err := svc.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"nats: invalid email or password", ErrInvalidCredentials},
		{"user with this email already exists", ErrUserExists},
		{"invalid refresh token: token has expired", ErrExpiredToken},
		{"password must be at least 8 characters", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := mapServiceError(errors.New(tt.msg)); !errors.Is(got, tt.want) {
				t.Errorf("mapServiceError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
