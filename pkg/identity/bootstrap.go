package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// EnsureAdminUser creates the admin account in the store if it does not
// exist yet. The initial password comes from EnvAdminInitialPassword when
// set, otherwise a random one is generated and returned so it can be shown
// once at startup. Returns an empty password when the admin already exists.
func EnsureAdminUser(ctx context.Context, store UserStore) (string, error) {
	_, err := store.GetUser(ctx, AdminUsername)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return "", err
	}

	passwordFromEnv := os.Getenv(EnvAdminInitialPassword) != ""

	password, err := GetOrGenerateAdminPassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	passwordHash, ntHash, err := HashPasswordWithNT(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	admin := DefaultAdminUser(passwordHash, ntHash)

	// An explicitly chosen password does not need a forced change.
	if passwordFromEnv {
		admin.MustChangePassword = false
	}

	if err := store.CreateUser(ctx, admin); err != nil {
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	return password, nil
}

// IsAdminInitialized reports whether the admin account exists.
func IsAdminInitialized(ctx context.Context, store UserStore) (bool, error) {
	_, err := store.GetUser(ctx, AdminUsername)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return false, err
}
