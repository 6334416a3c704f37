package ntlm

import (
	"crypto/hmac"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/crypto"
)

// Verifier checks challenge responses against stored NT hashes. All
// HMAC-MD5 passes run on a handle cached in the supplied crypto provider,
// so repeated attempts on one handshake reuse a single engine.
//
// A Verifier is not safe for concurrent use; callers serialize per
// handshake, which the one-message-at-a-time session setup already does.
type Verifier struct {
	provider *crypto.Provider
}

// NewVerifier creates a Verifier on top of the given provider.
func NewVerifier(p *crypto.Provider) *Verifier {
	return &Verifier{provider: p}
}

// hmacMD5 runs one keyed pass over the given chunks on the cached handle.
func (v *Verifier) hmacMD5(key []byte, chunks ...[]byte) ([]byte, error) {
	h, err := v.provider.GetOrCreate(crypto.AlgHMACMD5)
	if err != nil {
		return nil, err
	}
	if err := h.SetKey(key); err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if err := h.Update(c); err != nil {
			return nil, err
		}
	}
	return h.Finalize()
}

// ValidateNTLMv2Response verifies an NTLMv2 NtChallengeResponse, the
// 16-byte NTProofStr followed by the variable-length client blob, and on
// success returns the session key with HMAC-MD5(v2hash, expected) in its
// first 16 bytes.
//
// The expected proof is HMAC-MD5 over the server challenge and the client
// blob, keyed with the NTLMv2 hash of (ntHash, user, domain). The session
// key derives from the server-computed proof, never from client bytes, and
// is produced before the comparison so the code path length does not depend
// on the outcome. The proof comparison itself is constant time.
func (v *Verifier) ValidateNTLMv2Response(ntHash [NTHashSize]byte, user, domain string, serverChallenge [ChallengeSize]byte, ntResponse []byte) (SessionKey, error) {
	var key SessionKey
	if len(ntResponse) < NTLMv1ResponseSize {
		return key, ErrResponseTooShort
	}

	v2Hash, err := v.hmacMD5(ntHash[:], EncodeUTF16LEUpper(user), EncodeUTF16LE(domain))
	if err != nil {
		return key, fmt.Errorf("ntlm: compute v2 hash: %w", err)
	}

	clientBlob := ntResponse[ProofSize:]
	expected, err := v.hmacMD5(v2Hash, serverChallenge[:], clientBlob)
	if err != nil {
		return key, fmt.Errorf("ntlm: compute expected proof: %w", err)
	}

	core, err := v.hmacMD5(v2Hash, expected)
	if err != nil {
		return key, fmt.Errorf("ntlm: derive session key: %w", err)
	}

	if !hmac.Equal(ntResponse[:ProofSize], expected) {
		return key, ErrAuthenticationFailed
	}

	copy(key[:SMB1SessionKeySize], core)
	return key, nil
}
