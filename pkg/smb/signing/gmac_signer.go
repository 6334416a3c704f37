package signing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/types"
)

// GMACSigner signs SMB 3.1.1 PDUs with AES-128-GMAC when the connection
// negotiated the GMAC signing algorithm.
//
// GMAC is AES-GCM with an empty plaintext and the whole PDU as additional
// authenticated data. The 12-byte nonce is the header MessageId (8 bytes at
// offset 28) zero-extended; MessageId uniqueness per session makes the
// nonce unique per signed message.
type GMACSigner struct {
	aead cipher.AEAD
}

// NewGMACSigner creates a GMACSigner from a 16-byte KDF-derived signing
// key.
func NewGMACSigner(key []byte) (*GMACSigner, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: gmac key must be %d bytes, got %d", ErrSigningUnavailable, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	return &GMACSigner{aead: aead}, nil
}

// Sign computes the GMAC tag over the PDU with its signature field zeroed.
func (s *GMACSigner) Sign(message []byte) ([]byte, error) {
	if len(message) < types.SMB2HeaderSize {
		return nil, fmt.Errorf("%w: message of %d bytes is shorter than the SMB2 header", ErrSigningUnavailable, len(message))
	}

	var nonce [12]byte
	copy(nonce[:8], message[types.MessageIDOffset:types.MessageIDOffset+8])

	tag := s.aead.Seal(nil, nonce[:], nil, zeroSignatureCopy(message))
	return tag[:types.SignatureSize], nil
}

// Verify recomputes the tag and compares in constant time.
func (s *GMACSigner) Verify(message, sig []byte) (bool, error) {
	expected, err := s.Sign(message)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, sig), nil
}
