package identity

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/marmos91/smbsec/pkg/smb/ntlm"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a regular user with limited permissions.
	RoleUser UserRole = "user"
	// RoleAdmin is an administrator with full permissions.
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account that can authenticate against the server.
//
// Accounts carry two password digests: a bcrypt hash for API login and an
// NT hash for NTLM challenge-response. Both are computed together when the
// password is set so that the same credential works on either surface.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `json:"id" yaml:"id" mapstructure:"id" gorm:"primaryKey"`

	// Username is the unique human-readable identifier for the user.
	// Used for NTLM authentication and display purposes.
	Username string `json:"username" yaml:"username" mapstructure:"username" gorm:"uniqueIndex;not null"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Used for API login and password verification.
	PasswordHash string `json:"-" yaml:"password_hash" mapstructure:"password_hash"`

	// NTHash is the hex-encoded NT hash of the user's password, which is
	// MD4(UTF16LE(password)). NTLM verification needs the raw hash, so it
	// is stored alongside the bcrypt hash. An empty value means the
	// account cannot complete NTLM authentication.
	//
	// SECURITY WARNING:
	//   - This value can be used for pass-the-hash attacks without knowing
	//     the original password.
	//   - Any configuration file or storage that contains NTHash MUST be
	//     treated as secret material and restricted to root/administrator
	//     access only (for example, chmod 600 on Unix-like systems).
	NTHash string `json:"-" yaml:"nt_hash,omitempty" mapstructure:"nt_hash"`

	// Enabled indicates whether the user account is active.
	// Disabled users cannot authenticate.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MustChangePassword indicates whether the user must change their
	// password before performing other operations. Set to true for newly
	// created users or after admin password reset.
	MustChangePassword bool `json:"must_change_password" yaml:"must_change_password" mapstructure:"must_change_password"`

	// Role is the user's role in the system (admin or user).
	Role UserRole `json:"role" yaml:"role" mapstructure:"role"`

	// DisplayName is the human-readable name for the user.
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty" mapstructure:"display_name"`

	// Email is the user's email address.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// CreatedAt is when the user was created.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty" mapstructure:"created_at"`

	// LastLogin is when the user last authenticated.
	LastLogin time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty" mapstructure:"last_login"`
}

// GetDisplayName returns the display name, or username if display name is not set.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// GetNTHash returns the NT hash as a 16-byte array.
// Returns false if the NTHash field is empty or invalid.
func (u *User) GetNTHash() ([ntlm.NTHashSize]byte, bool) {
	var ntHash [ntlm.NTHashSize]byte
	if u.NTHash == "" {
		return ntHash, false
	}

	decoded, err := hex.DecodeString(u.NTHash)
	if err != nil || len(decoded) != ntlm.NTHashSize {
		return ntHash, false
	}

	copy(ntHash[:], decoded)
	return ntHash, true
}

// SetNTHashFromPassword computes and sets the NT hash from a plaintext
// password. The password is not stored, only the hash is kept.
func (u *User) SetNTHashFromPassword(password string) {
	ntHash := ntlm.ComputeNTHash(password)
	u.NTHash = hex.EncodeToString(ntHash[:])
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	return &c
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.Role != "" && !u.Role.IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.NTHash != "" {
		if decoded, err := hex.DecodeString(u.NTHash); err != nil || len(decoded) != ntlm.NTHashSize {
			return fmt.Errorf("nt_hash must be %d hex-encoded bytes", ntlm.NTHashSize)
		}
	}
	return nil
}

// IsAdmin checks if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
