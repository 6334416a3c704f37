// Package preauth holds per-connection negotiated security state and the
// SMB 3.1.1 preauthentication integrity hash chain.
//
// The chain is defined in [MS-SMB2] Section 3.2.5.2:
//
//	H(i) = SHA-512(H(i-1) || Message(i))
//
// where H(0) is 64 bytes of zeros and each Message(i) is a complete SMB2
// NEGOTIATE or SESSION_SETUP request/response, header through end, in
// arrival order. The final value at session-setup time becomes the KDF
// context for every 3.1.1 key, binding the keys to the exact negotiation
// transcript.
package preauth

import (
	"sync"

	"github.com/marmos91/smbsec/pkg/smb/crypto"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

// HashSize is the size of the SHA-512 preauth integrity hash.
const HashSize = 64

// ConnectionState is the negotiated security state of one connection:
// dialect, cipher, signing algorithm, and the running preauth hash.
//
// Negotiated fields are set once during NEGOTIATE processing and read-only
// after. The hash chain is mutex-guarded because negotiation-phase requests
// and responses may be hashed from different paths.
type ConnectionState struct {
	mu sync.RWMutex

	dialect    types.Dialect
	cipher     types.Cipher
	signingAlg types.SigningAlgorithm
	hashAlg    types.HashAlgorithm

	provider *crypto.Provider

	// hash is the current H(i). H(0) is the zero value.
	hash [HashSize]byte
}

// NewConnectionState creates the state for a fresh connection. The provider
// supplies the SHA-512 engine for the hash chain and is owned by the
// connection, not by this state.
func NewConnectionState(provider *crypto.Provider) *ConnectionState {
	return &ConnectionState{provider: provider}
}

// UpdateHash advances the chain: H(i) = SHA-512(H(i-1) || message).
//
// Must be called once per negotiation-phase message with the complete wire
// bytes. Ordering is the caller's responsibility; the lock only guarantees
// each update is atomic.
func (cs *ConnectionState) UpdateHash(message []byte) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	h, err := cs.provider.GetOrCreate(crypto.AlgSHA512)
	if err != nil {
		return err
	}
	if err := h.Init(); err != nil {
		return err
	}
	if err := h.Update(cs.hash[:]); err != nil {
		return err
	}
	if err := h.Update(message); err != nil {
		return err
	}
	sum, err := h.Finalize()
	if err != nil {
		return err
	}
	copy(cs.hash[:], sum)
	return nil
}

// Hash returns a copy of the current chain value.
func (cs *ConnectionState) Hash() [HashSize]byte {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.hash
}

// SetNegotiated records the outcome of dialect negotiation. Called once,
// before any session setup on the connection.
func (cs *ConnectionState) SetNegotiated(d types.Dialect, c types.Cipher, s types.SigningAlgorithm, h types.HashAlgorithm) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.dialect = d
	cs.cipher = c
	cs.signingAlg = s
	cs.hashAlg = h
}

// Dialect returns the negotiated dialect.
func (cs *ConnectionState) Dialect() types.Dialect {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.dialect
}

// Cipher returns the negotiated encryption cipher.
func (cs *ConnectionState) Cipher() types.Cipher {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cipher
}

// SigningAlgorithm returns the negotiated signing algorithm.
func (cs *ConnectionState) SigningAlgorithm() types.SigningAlgorithm {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.signingAlg
}

// HashAlgorithm returns the negotiated preauth hash algorithm.
func (cs *ConnectionState) HashAlgorithm() types.HashAlgorithm {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.hashAlg
}
