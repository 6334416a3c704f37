package identity

import (
	"context"
	"sync"
	"testing"
	"time"
)

// memoryStore is a minimal mutable UserStore for bootstrap tests.
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]*User)}
}

func (m *memoryStore) GetUser(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

func (m *memoryStore) ListUsers(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (m *memoryStore) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return ErrDuplicateUser
	}
	m.users[user.Username] = user.Clone()
	return nil
}

func (m *memoryStore) UpdateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; !ok {
		return ErrUserNotFound
	}
	m.users[user.Username] = user.Clone()
	return nil
}

func (m *memoryStore) DeleteUser(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, username)
	return nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, username, passwordHash, ntHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.NTHash = ntHash
	return nil
}

func (m *memoryStore) UpdateLastLogin(_ context.Context, username string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLogin = ts
	return nil
}

func (m *memoryStore) ValidateCredentials(_ context.Context, username, password string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !u.Enabled {
		return nil, ErrUserDisabled
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u.Clone(), nil
}

func (m *memoryStore) GetGuestUser(_ context.Context) (*User, error) {
	return nil, ErrGuestDisabled
}

func (m *memoryStore) Close() error { return nil }

func TestEnsureAdminUser_CreatesAdmin(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	password, err := EnsureAdminUser(ctx, store)
	if err != nil {
		t.Fatalf("EnsureAdminUser() error = %v", err)
	}
	if password == "" {
		t.Fatal("expected a generated password on first call")
	}

	admin, err := store.GetUser(ctx, AdminUsername)
	if err != nil {
		t.Fatalf("GetUser(admin) error = %v", err)
	}
	if !admin.IsAdmin() {
		t.Error("admin user should have the admin role")
	}
	if !admin.MustChangePassword {
		t.Error("generated-password admin should require a password change")
	}
	if admin.NTHash == "" {
		t.Error("admin user should carry an NT hash for NTLM login")
	}

	// The credentials returned to the operator must actually work.
	if _, err := store.ValidateCredentials(ctx, AdminUsername, password); err != nil {
		t.Errorf("ValidateCredentials() with generated password: %v", err)
	}
}

func TestEnsureAdminUser_Idempotent(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	if _, err := EnsureAdminUser(ctx, store); err != nil {
		t.Fatalf("first EnsureAdminUser() error = %v", err)
	}

	password, err := EnsureAdminUser(ctx, store)
	if err != nil {
		t.Fatalf("second EnsureAdminUser() error = %v", err)
	}
	if password != "" {
		t.Error("second call should not regenerate the password")
	}
}

func TestEnsureAdminUser_PasswordFromEnv(t *testing.T) {
	t.Setenv(EnvAdminInitialPassword, "EnvPassword123")

	store := newMemoryStore()
	ctx := context.Background()

	password, err := EnsureAdminUser(ctx, store)
	if err != nil {
		t.Fatalf("EnsureAdminUser() error = %v", err)
	}
	if password != "EnvPassword123" {
		t.Errorf("password = %q, want the env value", password)
	}

	admin, err := store.GetUser(ctx, AdminUsername)
	if err != nil {
		t.Fatalf("GetUser(admin) error = %v", err)
	}
	if admin.MustChangePassword {
		t.Error("explicitly chosen password should not force a change")
	}
}

func TestIsAdminInitialized(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	ok, err := IsAdminInitialized(ctx, store)
	if err != nil {
		t.Fatalf("IsAdminInitialized() error = %v", err)
	}
	if ok {
		t.Error("fresh store should not report an initialized admin")
	}

	if _, err := EnsureAdminUser(ctx, store); err != nil {
		t.Fatalf("EnsureAdminUser() error = %v", err)
	}

	ok, err = IsAdminInitialized(ctx, store)
	if err != nil {
		t.Fatalf("IsAdminInitialized() error = %v", err)
	}
	if !ok {
		t.Error("admin should be reported as initialized")
	}
}
