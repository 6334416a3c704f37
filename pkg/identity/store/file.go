package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/smbsec/internal/logger"
	"github.com/marmos91/smbsec/pkg/identity"
)

// fileDocument is the on-disk YAML layout of a FileStore.
type fileDocument struct {
	Users []*identity.User     `yaml:"users"`
	Guest identity.GuestConfig `yaml:"guest"`
}

// FileStore implements identity.UserStore on a YAML file.
//
// The file is read at startup and watched with fsnotify: external edits
// (for example a configuration management tool rewriting the file) are
// picked up without a restart. Mutations through the store rewrite the
// file atomically via a temp file and rename.
//
// The user file contains NT hashes and must be readable only by the
// service account.
type FileStore struct {
	path  string
	guest identity.GuestConfig

	mu    sync.RWMutex
	users map[string]*identity.User

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileStore loads the user file at path and starts watching it for
// changes. A missing file is treated as an empty user list.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		users: make(map[string]*identity.User),
		done:  make(chan struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory, not the file: atomic rewrites replace the
	// inode and a watch on the old file would go stale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch user file directory: %w", err)
	}
	s.watcher = watcher
	go s.watchLoop()

	return s, nil
}

// load reads the user file into memory.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse user file: %w", err)
	}

	users := make(map[string]*identity.User, len(doc.Users))
	for _, u := range doc.Users {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("invalid user %q: %w", u.Username, err)
		}
		if _, exists := users[u.Username]; exists {
			return fmt.Errorf("%w: %s", identity.ErrDuplicateUser, u.Username)
		}
		users[u.Username] = u
	}

	s.mu.Lock()
	s.users = users
	s.guest = doc.Guest
	s.mu.Unlock()
	return nil
}

// save writes the in-memory state back to disk atomically.
// Callers hold the write lock.
func (s *FileStore) save() error {
	doc := fileDocument{
		Users: make([]*identity.User, 0, len(s.users)),
		Guest: s.guest,
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, u)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode user file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write user file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace user file: %w", err)
	}
	return nil
}

// watchLoop reloads the user file when it changes on disk. A reload after
// the store's own save is harmless: it reads back what was just written.
func (s *FileStore) watchLoop() {
	base := filepath.Base(s.path)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.load(); err != nil {
				logger.Error("User file reload failed",
					"path", s.path,
					"error", err,
				)
				continue
			}
			logger.Debug("User file reloaded", "path", s.path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("User file watcher error", "path", s.path, "error", err)
		case <-s.done:
			return
		}
	}
}

// GetUser returns a user by username.
func (s *FileStore) GetUser(_ context.Context, username string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return user.Clone(), nil
}

// ListUsers returns all users.
func (s *FileStore) ListUsers(_ context.Context) ([]*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*identity.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	return users, nil
}

// CreateUser adds a new user and persists the file.
func (s *FileStore) CreateUser(_ context.Context, user *identity.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return identity.ErrDuplicateUser
	}
	if user.ID == "" {
		user.ID = newUserID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.Username] = user.Clone()
	return s.save()
}

// UpdateUser updates a user's account fields and persists the file.
func (s *FileStore) UpdateUser(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.Username]
	if !ok {
		return identity.ErrUserNotFound
	}

	existing.Enabled = user.Enabled
	existing.MustChangePassword = user.MustChangePassword
	existing.Role = user.Role
	existing.DisplayName = user.DisplayName
	existing.Email = user.Email
	return s.save()
}

// DeleteUser removes a user and persists the file.
func (s *FileStore) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return identity.ErrUserNotFound
	}
	delete(s.users, username)
	return s.save()
}

// UpdatePassword replaces both password digests and persists the file.
func (s *FileStore) UpdatePassword(_ context.Context, username, passwordHash, ntHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return identity.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.NTHash = ntHash
	return s.save()
}

// UpdateLastLogin records a successful authentication time.
func (s *FileStore) UpdateLastLogin(_ context.Context, username string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return identity.ErrUserNotFound
	}
	user.LastLogin = timestamp
	return s.save()
}

// ValidateCredentials verifies username/password credentials.
func (s *FileStore) ValidateCredentials(_ context.Context, username, password string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, identity.ErrUserDisabled
	}
	if !identity.VerifyPassword(password, user.PasswordHash) {
		return nil, identity.ErrInvalidCredentials
	}
	return user.Clone(), nil
}

// GetGuestUser returns the guest user if guest access is enabled.
func (s *FileStore) GetGuestUser(_ context.Context) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guest.GuestUser()
}

// Close stops the file watcher.
func (s *FileStore) Close() error {
	close(s.done)
	return s.watcher.Close()
}
