// Package signing computes and verifies per-message signatures across the
// three SMB signing generations.
//
// # Signing generations
//
// The generation is fixed per session once the dialect is negotiated:
//   - Legacy (SMB1): first 8 bytes of MD5(40-byte session key || message).
//   - HMAC (SMB 2.0.2/2.1): first 16 bytes of HMAC-SHA256(session key, message).
//   - AES (SMB 3.x): AES-128-CMAC(channel signing key, message), or
//     AES-128-GMAC when SMB 3.1.1 negotiated it.
//
// SMB2-generation signers operate on whole PDUs: the 16-byte signature
// field at offset 48 of the 64-byte header is zeroed before the MAC runs,
// and SignMessage/VerifyMessage additionally manage the SMB2_FLAGS_SIGNED
// bit. The legacy signer hashes raw bytes; SMB1 header placement belongs to
// the transport.
//
// Reference: [MS-SMB2] Section 3.1.4.1, [MS-CIFS] Section 3.1.4.1
package signing

import (
	"errors"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/types"
)

// KeySize is the signing key size for the HMAC and AES generations.
const KeySize = 16

// LegacySignatureSize is the truncated MD5 signature length of the legacy
// generation.
const LegacySignatureSize = 8

// ErrSigningUnavailable means a signing primitive could not be constructed.
// The connection is unusable for signed traffic; callers must not retry.
var ErrSigningUnavailable = errors.New("signing: primitive unavailable")

// Generation selects the signature computation for a session. It is chosen
// once at negotiation time, never per message.
type Generation uint8

const (
	// GenerationLegacy is SMB1 MD5 signing.
	GenerationLegacy Generation = iota
	// GenerationHMAC is SMB 2.x HMAC-SHA256 signing.
	GenerationHMAC
	// GenerationAES is SMB 3.x CMAC/GMAC signing.
	GenerationAES
)

// String returns the generation name used in logs.
func (g Generation) String() string {
	switch g {
	case GenerationLegacy:
		return "legacy"
	case GenerationHMAC:
		return "hmac-sha256"
	case GenerationAES:
		return "aes"
	default:
		return fmt.Sprintf("generation(%d)", uint8(g))
	}
}

// GenerationForDialect maps a negotiated dialect to its signing generation.
func GenerationForDialect(d types.Dialect) Generation {
	if d.IsSMB3() {
		return GenerationAES
	}
	return GenerationHMAC
}

// Signer computes and verifies message signatures. Sign and Verify share
// the same computation; Verify recomputes and compares in constant time.
//
// Implementations are safe for concurrent use: signing a pipelined batch of
// requests for one session may run from several goroutines at once.
type Signer interface {
	// Sign computes the signature over the message bytes. For SMB2
	// generations the signature field inside the header is treated as
	// zero regardless of its current content.
	Sign(message []byte) ([]byte, error)

	// Verify recomputes the signature and compares it against sig.
	Verify(message, sig []byte) (bool, error)
}

// NewSigner builds the signer for the negotiated dialect and signing
// algorithm. The key is the session signing key for 2.x or the KDF-derived
// channel signing key for 3.x, always 16 bytes.
//
// Dispatch:
//   - dialect < 3.0: HMAC-SHA256
//   - negotiated AES-GMAC on 3.1.1: GMAC
//   - any other 3.x: CMAC
func NewSigner(dialect types.Dialect, alg types.SigningAlgorithm, key []byte) (Signer, error) {
	if !dialect.IsSMB3() {
		return NewHMACSigner(key)
	}
	if dialect == types.Dialect0311 && alg == types.SigningAESGMAC {
		return NewGMACSigner(key)
	}
	if alg != types.SigningAESCMAC && alg != types.SigningHMACSHA256 {
		return nil, fmt.Errorf("%w: unknown signing algorithm %s", ErrSigningUnavailable, alg)
	}
	return NewCMACSigner(key)
}

// SignMessage signs an SMB2 PDU in place: sets the SMB2_FLAGS_SIGNED bit,
// zeroes the signature field, and writes the computed signature.
func SignMessage(s Signer, message []byte) error {
	if len(message) < types.SMB2HeaderSize {
		return fmt.Errorf("%w: message of %d bytes is shorter than the SMB2 header", ErrSigningUnavailable, len(message))
	}

	flags := getHeaderFlags(message)
	setHeaderFlags(message, flags|types.FlagSigned)
	clear(message[types.SignatureOffset : types.SignatureOffset+types.SignatureSize])

	sig, err := s.Sign(message)
	if err != nil {
		return err
	}
	copy(message[types.SignatureOffset:], sig)
	return nil
}

// VerifyMessage checks the signature embedded in an SMB2 PDU.
func VerifyMessage(s Signer, message []byte) (bool, error) {
	if len(message) < types.SMB2HeaderSize {
		return false, nil
	}
	sig := message[types.SignatureOffset : types.SignatureOffset+types.SignatureSize]
	return s.Verify(message, sig)
}

func getHeaderFlags(message []byte) uint32 {
	return uint32(message[types.FlagsOffset]) |
		uint32(message[types.FlagsOffset+1])<<8 |
		uint32(message[types.FlagsOffset+2])<<16 |
		uint32(message[types.FlagsOffset+3])<<24
}

func setHeaderFlags(message []byte, flags uint32) {
	message[types.FlagsOffset] = byte(flags)
	message[types.FlagsOffset+1] = byte(flags >> 8)
	message[types.FlagsOffset+2] = byte(flags >> 16)
	message[types.FlagsOffset+3] = byte(flags >> 24)
}

// zeroSignatureCopy returns a copy of the message with the SMB2 signature
// field zeroed, the form every SMB2-generation MAC runs over.
func zeroSignatureCopy(message []byte) []byte {
	msg := make([]byte, len(message))
	copy(msg, message)
	if len(msg) >= types.SMB2HeaderSize {
		clear(msg[types.SignatureOffset : types.SignatureOffset+types.SignatureSize])
	}
	return msg
}
