package identity

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/marmos91/smbsec/pkg/smb/ntlm"
)

// DefaultBcryptCost is the default cost parameter for bcrypt hashing.
// Cost 10 provides a good balance between security and performance.
const DefaultBcryptCost = 10

// ErrInvalidCredentials is returned when credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrPasswordTooShort is returned when a password is too short.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// ErrPasswordTooLong is returned when a password is too long.
// bcrypt has a maximum input length of 72 bytes.
var ErrPasswordTooLong = errors.New("password must be at most 72 characters")

// MinPasswordLength is the minimum required password length.
const MinPasswordLength = 8

// MaxPasswordLength is the maximum allowed password length.
// bcrypt silently truncates at 72 bytes, so we enforce this limit.
const MaxPasswordLength = 72

// HashPassword creates a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// HashPasswordWithNT creates both a bcrypt hash and NT hash for a password.
// User creation and password update flows need both digests computed
// together so that API login and NTLM stay in sync.
//
// Returns the bcrypt hash and the hex-encoded NT hash.
func HashPasswordWithNT(password string) (passwordHash, ntHashHex string, err error) {
	passwordHash, err = HashPassword(password)
	if err != nil {
		return "", "", err
	}

	ntHash := ntlm.ComputeNTHash(password)
	ntHashHex = hex.EncodeToString(ntHash[:])

	return passwordHash, ntHashHex, nil
}

// VerifyPassword checks if a password matches a bcrypt hash.
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword checks if a password meets the length requirements:
// at least 8 characters and at most 72 (the bcrypt input limit).
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// NeedsRehash checks if a hash needs to be regenerated, e.g. after the
// cost parameter has been increased.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < DefaultBcryptCost
}
