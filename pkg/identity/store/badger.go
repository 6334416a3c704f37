package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/smbsec/pkg/identity"
)

// Key namespace prefixes. Users are stored twice: the account record under
// its username and an ID index pointing back at the username, so lookups by
// either key stay single reads.
//
// Data Type     Prefix   Key Format      Value Type
// ====================================================
// User Data     "u:"     u:<username>    User (JSON)
// ID Index      "i:"     i:<id>          username (bytes)
const (
	prefixUser   = "u:"
	prefixUserID = "i:"
)

func keyUser(username string) []byte {
	return []byte(prefixUser + username)
}

func keyUserID(id string) []byte {
	return []byte(prefixUserID + id)
}

// BadgerStore implements identity.UserStore on an embedded BadgerDB.
// It suits single-node deployments that need persistent user management
// without an external database.
type BadgerStore struct {
	db    *badgerdb.DB
	guest identity.GuestConfig
}

// NewBadgerStore opens (or creates) a BadgerDB user store at path.
func NewBadgerStore(path string, guest identity.GuestConfig) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}

	return &BadgerStore{db: db, guest: guest}, nil
}

func encodeUser(user *identity.User) ([]byte, error) {
	return json.Marshal(user)
}

func decodeUser(data []byte) (*identity.User, error) {
	var user identity.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return &user, nil
}

// getUser reads one user inside a transaction.
func getUser(txn *badgerdb.Txn, username string) (*identity.User, error) {
	item, err := txn.Get(keyUser(username))
	if err == badgerdb.ErrKeyNotFound {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var user *identity.User
	err = item.Value(func(val []byte) error {
		var decErr error
		user, decErr = decodeUser(val)
		return decErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// putUser writes the user record and its ID index inside a transaction.
func putUser(txn *badgerdb.Txn, user *identity.User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	if err := txn.Set(keyUser(user.Username), data); err != nil {
		return err
	}
	return txn.Set(keyUserID(user.ID), []byte(user.Username))
}

// GetUser returns a user by username.
func (s *BadgerStore) GetUser(ctx context.Context, username string) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *identity.User
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		user, err = getUser(txn, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := make([]*identity.User, 0)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUser)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := decodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser adds a new user, generating an ID when none is set.
func (s *BadgerStore) CreateUser(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = newUserID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyUser(user.Username)); err == nil {
			return identity.ErrDuplicateUser
		} else if err != badgerdb.ErrKeyNotFound {
			return err
		}
		return putUser(txn, user)
	})
}

// UpdateUser updates a user's account fields. Password hashes are updated
// through UpdatePassword only.
func (s *BadgerStore) UpdateUser(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		existing, err := getUser(txn, user.Username)
		if err != nil {
			return err
		}

		existing.Enabled = user.Enabled
		existing.MustChangePassword = user.MustChangePassword
		existing.Role = user.Role
		existing.DisplayName = user.DisplayName
		existing.Email = user.Email

		return putUser(txn, existing)
	})
}

// DeleteUser removes a user by username.
func (s *BadgerStore) DeleteUser(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		user, err := getUser(txn, username)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyUser(username)); err != nil {
			return err
		}
		return txn.Delete(keyUserID(user.ID))
	})
}

// UpdatePassword replaces both password digests for a user.
func (s *BadgerStore) UpdatePassword(ctx context.Context, username, passwordHash, ntHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		user, err := getUser(txn, username)
		if err != nil {
			return err
		}
		user.PasswordHash = passwordHash
		user.NTHash = ntHash
		return putUser(txn, user)
	})
}

// UpdateLastLogin records a successful authentication time.
func (s *BadgerStore) UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		user, err := getUser(txn, username)
		if err != nil {
			return err
		}
		user.LastLogin = timestamp
		return putUser(txn, user)
	})
}

// ValidateCredentials verifies username/password credentials.
func (s *BadgerStore) ValidateCredentials(ctx context.Context, username, password string) (*identity.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		if err == identity.ErrUserNotFound {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Enabled {
		return nil, identity.ErrUserDisabled
	}

	if !identity.VerifyPassword(password, user.PasswordHash) {
		return nil, identity.ErrInvalidCredentials
	}

	return user, nil
}

// GetGuestUser returns the guest user if guest access is enabled.
func (s *BadgerStore) GetGuestUser(_ context.Context) (*identity.User, error) {
	return s.guest.GuestUser()
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
