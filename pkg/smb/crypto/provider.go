// Package crypto provides the per-connection cryptographic primitive
// provider used by NTLM verification, preauth integrity hashing, and legacy
// message signing.
//
// Primitives are allocated lazily on first use and cached for the lifetime
// of the connection, so a connection that never authenticates never pays for
// HMAC construction, and one that authenticates repeatedly reuses the same
// engine. Keyed primitives (HMAC-MD5, HMAC-SHA256, AES-CMAC) require SetKey
// before their first use; SetKey may be called again to re-key the engine.
package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sync"

	"github.com/marmos91/smbsec/pkg/smb/crypto/cmac"
)

// Algorithm identifies a primitive the provider can allocate.
type Algorithm uint8

const (
	// AlgMD5 is the unkeyed MD5 digest used by legacy SMB1 signing.
	AlgMD5 Algorithm = iota
	// AlgHMACMD5 drives the NTLMv2 hash and session key chains.
	AlgHMACMD5
	// AlgHMACSHA256 drives the SP800-108 KDF and SMB2 signing.
	AlgHMACSHA256
	// AlgCMACAES drives SMB3 signing.
	AlgCMACAES
	// AlgSHA512 drives the preauth integrity hash chain.
	AlgSHA512
)

// String returns the primitive name used in error messages and logs.
func (a Algorithm) String() string {
	switch a {
	case AlgMD5:
		return "md5"
	case AlgHMACMD5:
		return "hmac-md5"
	case AlgHMACSHA256:
		return "hmac-sha256"
	case AlgCMACAES:
		return "cmac-aes"
	case AlgSHA512:
		return "sha512"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// keyed reports whether the algorithm requires SetKey before use.
func (a Algorithm) keyed() bool {
	switch a {
	case AlgHMACMD5, AlgHMACSHA256, AlgCMACAES:
		return true
	default:
		return false
	}
}

var (
	// ErrAllocation is returned when a primitive engine cannot be
	// constructed. It is fatal to the operation that needed the primitive,
	// not to the connection.
	ErrAllocation = errors.New("crypto: primitive allocation failed")

	// ErrKeyRequired is returned when a keyed primitive is used before
	// SetKey.
	ErrKeyRequired = errors.New("crypto: keyed primitive used before SetKey")

	// ErrNotKeyed is returned when SetKey is called on an unkeyed digest.
	ErrNotKeyed = errors.New("crypto: SetKey on unkeyed digest")
)

// Handle wraps one allocated primitive engine. A handle is owned by a single
// connection's handshake path and is not safe for concurrent use; the
// Provider synchronizes allocation only.
type Handle struct {
	alg    Algorithm
	engine hash.Hash
}

// Algorithm returns the algorithm this handle was allocated for.
func (h *Handle) Algorithm() Algorithm {
	return h.alg
}

// SetKey keys the engine, constructing it on first use. Re-keying replaces
// the engine and discards any absorbed data.
func (h *Handle) SetKey(key []byte) error {
	switch h.alg {
	case AlgHMACMD5:
		h.engine = hmac.New(md5.New, key)
	case AlgHMACSHA256:
		h.engine = hmac.New(sha256.New, key)
	case AlgCMACAES:
		engine, err := cmac.New(key)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAllocation, h.alg, err)
		}
		h.engine = engine
	default:
		return fmt.Errorf("%w: %s", ErrNotKeyed, h.alg)
	}
	return nil
}

// Init resets the engine so a new message can be absorbed. For keyed
// primitives the key set by SetKey is retained.
func (h *Handle) Init() error {
	if h.engine == nil {
		return fmt.Errorf("%w: %s", ErrKeyRequired, h.alg)
	}
	h.engine.Reset()
	return nil
}

// Update absorbs data. Multiple calls append; order is significant.
func (h *Handle) Update(data []byte) error {
	if h.engine == nil {
		return fmt.Errorf("%w: %s", ErrKeyRequired, h.alg)
	}
	h.engine.Write(data)
	return nil
}

// Finalize returns the digest of all absorbed data and resets the engine
// for the next message.
func (h *Handle) Finalize() ([]byte, error) {
	if h.engine == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyRequired, h.alg)
	}
	sum := h.engine.Sum(nil)
	h.engine.Reset()
	return sum, nil
}

// Provider lazily allocates and caches primitive handles for one connection.
// GetOrCreate is idempotent: the first call per algorithm allocates, every
// later call returns the cached handle.
type Provider struct {
	mu      sync.Mutex
	handles map[Algorithm]*Handle
}

// NewProvider returns an empty Provider. Handles are allocated on demand.
func NewProvider() *Provider {
	return &Provider{handles: make(map[Algorithm]*Handle)}
}

// GetOrCreate returns the connection's handle for alg, allocating it on
// first use. Unkeyed digests are ready immediately; keyed primitives are
// constructed by their first SetKey.
func (p *Provider) GetOrCreate(alg Algorithm) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.handles[alg]; ok {
		return h, nil
	}

	h := &Handle{alg: alg}
	switch alg {
	case AlgMD5:
		h.engine = md5.New()
	case AlgSHA512:
		h.engine = sha512.New()
	case AlgHMACMD5, AlgHMACSHA256, AlgCMACAES:
		// Engine construction needs the key; deferred to SetKey.
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %s", ErrAllocation, alg)
	}

	p.handles[alg] = h
	return h, nil
}

// Destroy drops all cached handles. The provider must not be used after.
func (p *Provider) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for alg, h := range p.handles {
		h.engine = nil
		delete(p.handles, alg)
	}
}
