// Package kdf implements the SP800-108 Counter Mode KDF with HMAC-SHA256
// used to derive SMB 3.x signing, encryption, decryption, and application
// keys from the authenticated session key.
//
// For SMB 3.0/3.0.2 the label and context are fixed strings. For SMB 3.1.1
// the context is the connection's preauth integrity hash, which binds every
// derived key to the exact negotiation transcript: a tampered negotiation
// yields different keys on each side and signature verification fails on
// the first signed message.
//
// Reference: [SP800-108] Section 5.1, [MS-SMB2] Section 3.1.4.2
package kdf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"github.com/marmos91/smbsec/pkg/smb/types"
)

// KeyPurpose identifies which of the per-session keys is being derived.
type KeyPurpose uint8

const (
	// SigningKeyPurpose derives the message signing key.
	SigningKeyPurpose KeyPurpose = iota
	// EncryptionKeyPurpose derives the client-to-server cipher key.
	EncryptionKeyPurpose
	// DecryptionKeyPurpose derives the server-to-client cipher key.
	DecryptionKeyPurpose
	// ApplicationKeyPurpose derives the key handed to higher-layer
	// protocols.
	ApplicationKeyPurpose
)

// String returns a human-readable name for the key purpose.
func (p KeyPurpose) String() string {
	switch p {
	case SigningKeyPurpose:
		return "Signing"
	case EncryptionKeyPurpose:
		return "Encryption"
	case DecryptionKeyPurpose:
		return "Decryption"
	case ApplicationKeyPurpose:
		return "Application"
	default:
		return "Unknown"
	}
}

// DeriveKey implements SP800-108 Counter Mode KDF with an HMAC-SHA256 PRF.
//
// Wire format of the PRF input:
//
//	counter(4 bytes BE) || label || 0x00 || context || L(4 bytes BE)
//
// The label already carries its C-string null terminator; the 0x00 after it
// is the SP800-108 separator, a distinct byte. L is the requested key
// length in bits. A single iteration (counter=1) of HMAC-SHA256 yields 256
// bits, enough for every key SMB3 derives, so no outer loop exists.
//
// Every byte of this layout is normative: a deviation produces a key that
// silently fails interoperability, surfacing only as signature or
// decryption failures on later traffic.
func DeriveKey(ki, label, context []byte, keyLenBits uint32) []byte {
	h := hmac.New(sha256.New, ki)

	var counter [4]byte
	binary.BigEndian.PutUint32(counter[:], 1)
	h.Write(counter[:])

	h.Write(label)
	h.Write([]byte{0x00})
	h.Write(context)

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], keyLenBits)
	h.Write(length[:])

	result := h.Sum(nil)
	return result[:keyLenBits/8]
}

// Label/context constants per [MS-SMB2] Section 3.1.4.2. Each label and
// fixed context includes its null terminator as part of the byte literal.
var (
	// SMB 3.0/3.0.2 labels and contexts
	label30Signing    = []byte("SMB2AESCMAC\x00")
	label30Encryption = []byte("SMB2AESCCM\x00")
	label30Decryption = []byte("SMB2AESCCM\x00")
	label30App        = []byte("SMB2APP\x00")

	ctx30Signing    = []byte("SmbSign\x00")
	ctx30Encryption = []byte("ServerIn \x00") // note trailing space before null
	ctx30Decryption = []byte("ServerOut\x00")
	ctx30App        = []byte("SmbRpc\x00")

	// SMB 3.1.1 labels (context is always the preauth integrity hash)
	label311Signing    = []byte("SMBSigningKey\x00")
	label311Encryption = []byte("SMBC2SCipherKey\x00")
	label311Decryption = []byte("SMBS2CCipherKey\x00")
	label311App        = []byte("SMBAppKey\x00")
)

// LabelAndContext returns the label and context bytes for the given key
// purpose and dialect.
//
// For SMB 3.0/3.0.2 both are fixed strings; preauthHash is ignored. For
// SMB 3.1.1 the context is a copy of the preauth integrity hash, so the
// caller's array cannot alias the returned slice.
func LabelAndContext(purpose KeyPurpose, dialect types.Dialect, preauthHash [64]byte) (label, context []byte) {
	if dialect == types.Dialect0311 {
		ctx := make([]byte, 64)
		copy(ctx, preauthHash[:])

		switch purpose {
		case SigningKeyPurpose:
			return label311Signing, ctx
		case EncryptionKeyPurpose:
			return label311Encryption, ctx
		case DecryptionKeyPurpose:
			return label311Decryption, ctx
		case ApplicationKeyPurpose:
			return label311App, ctx
		}
	}

	switch purpose {
	case SigningKeyPurpose:
		return label30Signing, ctx30Signing
	case EncryptionKeyPurpose:
		return label30Encryption, ctx30Encryption
	case DecryptionKeyPurpose:
		return label30Decryption, ctx30Decryption
	case ApplicationKeyPurpose:
		return label30App, ctx30App
	}

	return nil, nil
}
