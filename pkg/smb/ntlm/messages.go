// Package ntlm implements server-side NTLM and NTLMv2 authentication:
// wire-format codecs for the NEGOTIATE, CHALLENGE, and AUTHENTICATE
// messages, credential verification against stored NT hashes, and session
// key derivation.
//
// # Message layout
//
// Every NTLMSSP message starts with the 8-byte signature "NTLMSSP\x00" and
// a 4-byte type discriminant. Variable-length fields are described by
// security buffers: a (length, max-length, offset) triple pointing into the
// same blob. Offsets and lengths arrive from the network and are validated
// against the blob size before any field is materialized; a violation is
// ErrMalformedBlob, never an out-of-range read.
//
// # Verification chains
//
// NTLMv2 (the normal path):
//
//	v2hash   = HMAC-MD5(NT-hash, UTF16LE(upper(user)) || UTF16LE(domain))
//	expected = HMAC-MD5(v2hash, serverChallenge || clientBlob)
//	accept   = constant-time-equal(expected, clientProof)
//	sessKey  = HMAC-MD5(v2hash, expected)
//
// NTLMv1 (legacy, weaker; kept for old clients and gated by configuration):
//
//	response = DES3x(NT-hash padded to 21 bytes, serverChallenge)
//	sessKey  = MD4(NT-hash) || response
//
// [MS-NLMP] Sections 2.2, 3.3
package ntlm

import "errors"

// Fixed sizes from the wire protocol. These are load-bearing constants:
// changing any of them breaks interoperability.
const (
	// NTHashSize is the size of the MD4 password hash.
	NTHashSize = 16

	// NTLMv2HashSize is the size of the HMAC-MD5 keyed user hash.
	NTLMv2HashSize = 16

	// ProofSize is the size of the client's NTLMv2 proof, the HMAC-MD5
	// output prepended to the variable-length client blob.
	ProofSize = 16

	// ChallengeSize is the size of the server challenge nonce.
	ChallengeSize = 8

	// NTLMv1ResponseSize is the fixed size of a legacy NTLMv1 response.
	// An AUTHENTICATE message whose NT response has exactly this length
	// routes to NTLMv1 verification.
	NTLMv1ResponseSize = 24

	// SMB1SessionKeySize is the MD4 portion of the legacy session key.
	SMB1SessionKeySize = 16

	// SessionKeySize is the full legacy session-key buffer: the 16-byte
	// core key followed by response bytes, zero-padded. SMB1 signing
	// consumes all 40 bytes; SMB2+ uses the first 16.
	SessionKeySize = 40
)

// Fixed message sizes (signature through the last fixed field). Buffers
// shorter than these cannot contain the message they claim to be.
const (
	negotiateSize    = 32
	challengeSize    = 48
	authenticateSize = 64
)

var (
	// ErrTooShort means the blob is smaller than the fixed header of its
	// message type.
	ErrTooShort = errors.New("ntlm: message too short")

	// ErrBadSignature means the 8-byte NTLMSSP signature did not match.
	ErrBadSignature = errors.New("ntlm: bad message signature")

	// ErrMalformedBlob means a security buffer or list structure points
	// outside the received blob.
	ErrMalformedBlob = errors.New("ntlm: malformed message")

	// ErrResponseTooShort means the NT challenge response cannot contain a
	// proof and client blob.
	ErrResponseTooShort = errors.New("ntlm: challenge response too short")

	// ErrAuthenticationFailed means the credentials did not verify.
	ErrAuthenticationFailed = errors.New("ntlm: authentication failed")
)

// SessionKey is the 40-byte legacy session-key buffer established exactly
// once per successful authentication.
type SessionKey [SessionKeySize]byte

// SigningKey returns the 16-byte core key consumed by SMB2 signing and the
// SP800-108 KDF.
func (k *SessionKey) SigningKey() []byte {
	return k[:SMB1SessionKeySize]
}

// Zero erases the key material.
func (k *SessionKey) Zero() {
	clear(k[:])
}

// Negotiate is a decoded NEGOTIATE (type 1) message.
type Negotiate struct {
	// Flags are the client's requested capabilities, recorded on the
	// handshake state and consulted when building the challenge.
	Flags Flags

	// Domain and Workstation are optional OEM-encoded hints. They are
	// informational; empty when the client did not supply them.
	Domain      string
	Workstation string
}

// Challenge is a decoded CHALLENGE (type 2) message. The server encodes
// challenges directly to bytes; this struct exists for client-side use and
// round-trip tests.
type Challenge struct {
	Flags           Flags
	TargetName      string
	ServerChallenge [ChallengeSize]byte
	TargetInfo      []AvPair
}

// Authenticate is a decoded AUTHENTICATE (type 3) message.
type Authenticate struct {
	Flags Flags

	// User is the account name, UTF-16 decoded.
	User string

	// Domain is the client-supplied domain. DomainPresent distinguishes
	// an explicitly empty domain from an absent field; when absent the
	// verifier falls back to the server's own name.
	Domain        string
	DomainPresent bool

	Workstation string

	// LMResponse is the LM challenge response (unused by verification,
	// retained for diagnostics).
	LMResponse []byte

	// NTResponse is the NT challenge response: a 24-byte NTLMv1 block or
	// an NTLMv2 proof followed by the client blob.
	NTResponse []byte

	// EncryptedSessionKey is the KEY_EXCH session key field if supplied.
	EncryptedSessionKey []byte
}

// IsAnonymous reports whether the client requested an anonymous session.
func (a *Authenticate) IsAnonymous() bool {
	return a.Flags.Has(FlagAnonymous) || (a.User == "" && len(a.NTResponse) == 0)
}

// IsNTLMv1 reports whether the NT response routes to legacy NTLMv1
// verification. The length check is the protocol's own discriminator.
func (a *Authenticate) IsNTLMv1() bool {
	return len(a.NTResponse) == NTLMv1ResponseSize
}
