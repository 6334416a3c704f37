package signing

import (
	"crypto/hmac"
	"fmt"
	"sync"

	"github.com/marmos91/smbsec/pkg/smb/crypto"
	"github.com/marmos91/smbsec/pkg/smb/ntlm"
)

// LegacySigner signs SMB1 PDUs: the signature is the first 8 bytes of
// MD5(40-byte session key || message). The transport writes the truncated
// digest into the SMB1 SecuritySignature field; sequence numbering inside
// the message is likewise the transport's concern, this signer hashes the
// bytes it is given.
//
// The MD5 engine comes from the connection's primitive provider, so a
// connection that never negotiates SMB1 never allocates it.
type LegacySigner struct {
	mu       sync.Mutex
	provider *crypto.Provider
	key      ntlm.SessionKey
}

// NewLegacySigner creates a LegacySigner over the connection's provider
// and the 40-byte legacy session key.
func NewLegacySigner(provider *crypto.Provider, key ntlm.SessionKey) (*LegacySigner, error) {
	if _, err := provider.GetOrCreate(crypto.AlgMD5); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	return &LegacySigner{provider: provider, key: key}, nil
}

// Sign computes the truncated MD5 signature over the session key and the
// message bytes.
func (s *LegacySigner) Sign(message []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.provider.GetOrCreate(crypto.AlgMD5)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	if err := h.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	if err := h.Update(s.key[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	if err := h.Update(message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	sum, err := h.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}
	return sum[:LegacySignatureSize], nil
}

// Verify recomputes the signature and compares in constant time.
func (s *LegacySigner) Verify(message, sig []byte) (bool, error) {
	expected, err := s.Sign(message)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, sig), nil
}
