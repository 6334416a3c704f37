package identity

import (
	"context"
	"errors"
	"testing"
)

func newTestConfigStore(t *testing.T) *ConfigUserStore {
	t.Helper()

	hash, err := HashPassword("SecurePass123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	users := []*User{
		{Username: "alice", PasswordHash: hash, Enabled: true, Role: RoleUser},
		{Username: "bob", PasswordHash: hash, Enabled: false, Role: RoleUser},
	}
	store, err := NewConfigUserStore(users, &GuestConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewConfigUserStore() error = %v", err)
	}
	return store
}

func TestConfigUserStore_GetUser(t *testing.T) {
	store := newTestConfigStore(t)
	ctx := context.Background()

	user, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}

	if _, err := store.GetUser(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(nobody) error = %v, want ErrUserNotFound", err)
	}
}

func TestConfigUserStore_RejectsDuplicates(t *testing.T) {
	users := []*User{
		{Username: "alice", Enabled: true},
		{Username: "alice", Enabled: true},
	}
	if _, err := NewConfigUserStore(users, nil); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("NewConfigUserStore() error = %v, want ErrDuplicateUser", err)
	}
}

func TestConfigUserStore_ValidateCredentials(t *testing.T) {
	store := newTestConfigStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", "SecurePass123", nil},
		{"wrong password", "alice", "WrongPass456", ErrInvalidCredentials},
		{"unknown user", "nobody", "SecurePass123", ErrInvalidCredentials},
		{"disabled user", "bob", "SecurePass123", ErrUserDisabled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.ValidateCredentials(ctx, tc.username, tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateCredentials() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfigUserStore_IsReadOnly(t *testing.T) {
	store := newTestConfigStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, &User{Username: "carol"}); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("CreateUser() error = %v, want ErrInvalidOperation", err)
	}
	if err := store.DeleteUser(ctx, "alice"); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("DeleteUser() error = %v, want ErrInvalidOperation", err)
	}
	if err := store.UpdatePassword(ctx, "alice", "x", "y"); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("UpdatePassword() error = %v, want ErrInvalidOperation", err)
	}
}

func TestConfigUserStore_GuestUser(t *testing.T) {
	store := newTestConfigStore(t)
	ctx := context.Background()

	guest, err := store.GetGuestUser(ctx)
	if err != nil {
		t.Fatalf("GetGuestUser() error = %v", err)
	}
	if guest.Username != "guest" {
		t.Errorf("guest Username = %q, want guest", guest.Username)
	}
	if !guest.Enabled {
		t.Error("guest user should be enabled")
	}

	disabled, err := NewConfigUserStore(nil, &GuestConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewConfigUserStore() error = %v", err)
	}
	if _, err := disabled.GetGuestUser(ctx); !errors.Is(err, ErrGuestDisabled) {
		t.Errorf("GetGuestUser() error = %v, want ErrGuestDisabled", err)
	}
}

func TestConfigUserStore_ReturnsCopies(t *testing.T) {
	store := newTestConfigStore(t)
	ctx := context.Background()

	first, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	first.Enabled = false

	second, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if !second.Enabled {
		t.Error("mutating a returned user changed store state")
	}
}
