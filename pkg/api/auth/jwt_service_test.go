package auth

import (
	"testing"
	"time"

	"github.com/marmos91/smbsec/pkg/identity"
)

func testServiceConfig() JWTConfig {
	return JWTConfig{
		Secret:               "test-secret-key-must-be-32-chars!",
		Issuer:               "test-issuer",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	}
}

func TestNewJWTService_ValidConfig(t *testing.T) {
	service, err := NewJWTService(testServiceConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if service == nil {
		t.Fatal("Expected service to be non-nil")
	}
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	config := JWTConfig{
		Secret: "",
		Issuer: "test-issuer",
	}

	_, err := NewJWTService(config)
	if err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	config := JWTConfig{
		Secret: "short",
		Issuer: "test-issuer",
	}

	_, err := NewJWTService(config)
	if err == nil {
		t.Fatal("Expected error for short secret")
	}
}

func TestGenerateTokenPair(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	user := &identity.User{
		ID:                 "test-uuid",
		Username:           "testuser",
		Role:               identity.RoleUser,
		MustChangePassword: false,
	}

	tokenPair, err := service.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if tokenPair.AccessToken == "" {
		t.Error("Expected non-empty access token")
	}
	if tokenPair.RefreshToken == "" {
		t.Error("Expected non-empty refresh token")
	}
	if tokenPair.TokenType != "Bearer" {
		t.Errorf("Expected TokenType 'Bearer', got '%s'", tokenPair.TokenType)
	}
	if tokenPair.ExpiresIn != int64(15*time.Minute/time.Second) {
		t.Errorf("Expected ExpiresIn %d, got %d", int64(15*time.Minute/time.Second), tokenPair.ExpiresIn)
	}
}

func TestValidateAccessToken(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	user := &identity.User{
		ID:                 "test-uuid",
		Username:           "testuser",
		Role:               identity.RoleAdmin,
		MustChangePassword: true,
	}

	tokenPair, _ := service.GenerateTokenPair(user)

	// Validate the access token
	claims, err := service.ValidateAccessToken(tokenPair.AccessToken)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if claims.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got '%s'", claims.Username)
	}
	if claims.UserID != "test-uuid" {
		t.Errorf("Expected UserID 'test-uuid', got '%s'", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected role 'admin', got '%s'", claims.Role)
	}
	if !claims.IsAdmin() {
		t.Error("Expected IsAdmin() to return true")
	}
	if !claims.MustChangePassword {
		t.Error("Expected MustChangePassword to be true")
	}
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	_, err := service.ValidateAccessToken("invalid-token")
	if err == nil {
		t.Fatal("Expected error for invalid token")
	}
}

func TestValidateAccessToken_WrongTokenType(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	user := &identity.User{
		ID:       "test-uuid",
		Username: "testuser",
		Role:     identity.RoleUser,
	}

	tokenPair, _ := service.GenerateTokenPair(user)

	// Try to validate refresh token as access token
	_, err := service.ValidateAccessToken(tokenPair.RefreshToken)
	if err != ErrInvalidTokenType {
		t.Errorf("Expected ErrInvalidTokenType, got: %v", err)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	user := &identity.User{
		ID:       "test-uuid",
		Username: "testuser",
		Role:     identity.RoleUser,
	}

	tokenPair, _ := service.GenerateTokenPair(user)

	// Validate the refresh token
	claims, err := service.ValidateRefreshToken(tokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if claims.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got '%s'", claims.Username)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("Expected token type 'refresh', got '%s'", claims.TokenType)
	}
}

func TestValidateRefreshToken_WrongTokenType(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	user := &identity.User{
		ID:       "test-uuid",
		Username: "testuser",
		Role:     identity.RoleUser,
	}

	tokenPair, _ := service.GenerateTokenPair(user)

	// Try to validate access token as refresh token
	_, err := service.ValidateRefreshToken(tokenPair.AccessToken)
	if err != ErrInvalidTokenType {
		t.Errorf("Expected ErrInvalidTokenType, got: %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service, _ := NewJWTService(testServiceConfig())

	other, _ := NewJWTService(JWTConfig{
		Secret: "another-secret-key-that-is-32char",
	})

	tokenPair, _ := service.GenerateTokenPair(&identity.User{
		ID:       "test-uuid",
		Username: "testuser",
		Role:     identity.RoleUser,
	})

	if _, err := other.ValidateToken(tokenPair.AccessToken); err == nil {
		t.Fatal("Expected error when validating with a different secret")
	}
}

func TestClaims_IsAdmin(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{"admin", true},
		{"user", false},
		{"", false},
		{"Admin", false}, // Case-sensitive
	}

	for _, tc := range tests {
		claims := &Claims{Role: tc.role}
		if claims.IsAdmin() != tc.expected {
			t.Errorf("IsAdmin() for role '%s': expected %v, got %v", tc.role, tc.expected, claims.IsAdmin())
		}
	}
}
