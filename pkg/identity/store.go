package identity

import (
	"context"
	"errors"
	"time"
)

// Common errors for UserStore operations.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserDisabled     = errors.New("user account is disabled")
	ErrGuestDisabled    = errors.New("guest access is disabled")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrInvalidOperation = errors.New("invalid operation")
)

// UserStore provides user management and credential lookup.
//
// Implementations must be thread-safe: the NTLM authenticator calls GetUser
// from concurrent connection handlers while the API mutates accounts.
type UserStore interface {
	// GetUser returns a user by username.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, username string) (*User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*User, error)

	// CreateUser adds a new user.
	// Returns ErrDuplicateUser if the username is taken.
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser updates a user's account fields. Password hashes are
	// updated through UpdatePassword only.
	UpdateUser(ctx context.Context, user *User) error

	// DeleteUser removes a user by username.
	DeleteUser(ctx context.Context, username string) error

	// UpdatePassword replaces both password digests for a user.
	UpdatePassword(ctx context.Context, username, passwordHash, ntHash string) error

	// UpdateLastLogin records a successful authentication time.
	UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error

	// ValidateCredentials verifies username/password credentials.
	// Returns ErrInvalidCredentials if the credentials are invalid.
	// Returns ErrUserDisabled if the user account is disabled.
	ValidateCredentials(ctx context.Context, username, password string) (*User, error)

	// GetGuestUser returns the guest user if guest access is enabled.
	// Returns ErrGuestDisabled if guest access is not configured.
	GetGuestUser(ctx context.Context) (*User, error)

	// Close releases backend resources.
	Close() error
}

// GuestConfig holds configuration for guest/anonymous access.
type GuestConfig struct {
	// Enabled indicates whether guest access is allowed.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Username is the account name reported for guest sessions.
	// Defaults to "guest".
	Username string `yaml:"username" mapstructure:"username"`
}

// GuestUser builds the synthetic guest account for this configuration.
// Returns ErrGuestDisabled when guest access is off.
func (g *GuestConfig) GuestUser() (*User, error) {
	if g == nil || !g.Enabled {
		return nil, ErrGuestDisabled
	}
	name := g.Username
	if name == "" {
		name = "guest"
	}
	return &User{
		Username:    name,
		Enabled:     true,
		Role:        RoleUser,
		DisplayName: "Guest",
	}, nil
}
