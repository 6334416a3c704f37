package signing

import (
	"crypto/hmac"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/crypto/cmac"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

// CMACSigner signs SMB 3.x PDUs with AES-128-CMAC keyed by the per-channel
// signing key.
//
// The CMAC engine carries running state, so each pass builds a fresh one
// over the immutable key; concurrent Sign calls from pipelined requests
// never share state.
type CMACSigner struct {
	key [KeySize]byte
}

// NewCMACSigner creates a CMACSigner from a 16-byte KDF-derived signing
// key. Key validity is checked up front so a bad key surfaces at channel
// bind, not on the first signed message.
func NewCMACSigner(key []byte) (*CMACSigner, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: cmac key must be %d bytes, got %d", ErrSigningUnavailable, KeySize, len(key))
	}
	s := &CMACSigner{}
	copy(s.key[:], key)
	if _, err := cmac.New(s.key[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	return s, nil
}

// Sign computes AES-CMAC over the PDU with its signature field zeroed.
func (s *CMACSigner) Sign(message []byte) ([]byte, error) {
	mac, err := cmac.New(s.key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	mac.Write(zeroSignatureCopy(message))
	return mac.Sum(nil)[:types.SignatureSize], nil
}

// Verify recomputes the signature and compares in constant time.
func (s *CMACSigner) Verify(message, sig []byte) (bool, error) {
	expected, err := s.Sign(message)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, sig), nil
}
