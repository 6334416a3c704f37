package identity

import (
	"context"
	"sync"
	"time"
)

// ConfigUserStore implements UserStore using in-memory data loaded from
// configuration. Data is loaded at startup and is read-only: mutating
// operations return ErrInvalidOperation. Deployments that need user
// management use one of the persistent stores instead.
type ConfigUserStore struct {
	mu sync.RWMutex

	// Users indexed by username
	users map[string]*User

	// Guest configuration
	guest *GuestConfig
}

// NewConfigUserStore creates a new ConfigUserStore with the given users and
// guest config.
func NewConfigUserStore(users []*User, guest *GuestConfig) (*ConfigUserStore, error) {
	store := &ConfigUserStore{
		users: make(map[string]*User),
		guest: guest,
	}

	for _, u := range users {
		if err := u.Validate(); err != nil {
			return nil, err
		}
		if _, exists := store.users[u.Username]; exists {
			return nil, ErrDuplicateUser
		}
		store.users[u.Username] = u
	}

	return store, nil
}

// GetUser returns a user by username.
func (s *ConfigUserStore) GetUser(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

// ListUsers returns all users.
func (s *ConfigUserStore) ListUsers(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	return users, nil
}

// CreateUser is not supported on the config store.
func (s *ConfigUserStore) CreateUser(_ context.Context, _ *User) error {
	return ErrInvalidOperation
}

// UpdateUser is not supported on the config store.
func (s *ConfigUserStore) UpdateUser(_ context.Context, _ *User) error {
	return ErrInvalidOperation
}

// DeleteUser is not supported on the config store.
func (s *ConfigUserStore) DeleteUser(_ context.Context, _ string) error {
	return ErrInvalidOperation
}

// UpdatePassword is not supported on the config store.
func (s *ConfigUserStore) UpdatePassword(_ context.Context, _, _, _ string) error {
	return ErrInvalidOperation
}

// UpdateLastLogin is a no-op: config-defined users have no persistent
// login state.
func (s *ConfigUserStore) UpdateLastLogin(_ context.Context, username string, _ time.Time) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[username]; !ok {
		return ErrUserNotFound
	}
	return nil
}

// ValidateCredentials verifies username/password credentials.
func (s *ConfigUserStore) ValidateCredentials(_ context.Context, username, password string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user.Clone(), nil
}

// GetGuestUser returns the guest user if guest access is enabled.
func (s *ConfigUserStore) GetGuestUser(_ context.Context) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guest.GuestUser()
}

// IsGuestEnabled returns whether guest access is enabled.
func (s *ConfigUserStore) IsGuestEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guest != nil && s.guest.Enabled
}

// Close is a no-op for the in-memory store.
func (s *ConfigUserStore) Close() error {
	return nil
}
