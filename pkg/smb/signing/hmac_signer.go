package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/types"
)

// HMACSigner signs SMB 2.x PDUs with HMAC-SHA256 keyed by the first 16
// bytes of the session key, truncating the MAC to 16 bytes.
type HMACSigner struct {
	key [KeySize]byte
}

// NewHMACSigner creates an HMACSigner from session key material. Keys
// longer than 16 bytes are truncated, shorter ones zero-padded, matching
// how the session key buffer feeds SMB2 signing.
func NewHMACSigner(sessionKey []byte) (*HMACSigner, error) {
	if len(sessionKey) == 0 {
		return nil, fmt.Errorf("%w: empty session key", ErrSigningUnavailable)
	}
	s := &HMACSigner{}
	copy(s.key[:], sessionKey)
	return s, nil
}

// Sign computes the truncated HMAC-SHA256 signature over the PDU with its
// signature field zeroed.
func (s *HMACSigner) Sign(message []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, s.key[:])
	mac.Write(zeroSignatureCopy(message))
	sum := mac.Sum(nil)
	return sum[:types.SignatureSize], nil
}

// Verify recomputes the signature and compares in constant time.
func (s *HMACSigner) Verify(message, sig []byte) (bool, error) {
	expected, err := s.Sign(message)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, sig), nil
}
