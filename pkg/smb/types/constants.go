package types

import "fmt"

// SMB2 header geometry. Signing operates on the raw wire bytes of a PDU,
// so the signature field position and the signed-flag bit are load-bearing
// constants, not tunables.
//
// [MS-SMB2] Section 2.2.1
const (
	// SMB2HeaderSize is the fixed size of the SMB2 packet header.
	SMB2HeaderSize = 64

	// SignatureOffset is the byte offset of the 16-byte signature field
	// within the SMB2 header.
	SignatureOffset = 48

	// SignatureSize is the size of the SMB2 signature field.
	SignatureSize = 16

	// FlagsOffset is the byte offset of the 4-byte Flags field.
	FlagsOffset = 16

	// MessageIDOffset is the byte offset of the 8-byte MessageId field,
	// used as the GMAC nonce source.
	MessageIDOffset = 28

	// FlagSigned is the SMB2_FLAGS_SIGNED bit in the header Flags field.
	FlagSigned uint32 = 0x00000008
)

// SigningAlgorithm identifies a negotiated signing algorithm.
//
// SMB 3.1.1 negotiates the algorithm through the
// SMB2_SIGNING_CAPABILITIES context; earlier dialects imply it from the
// revision (HMAC-SHA256 for 2.x, AES-CMAC for 3.0/3.0.2).
//
// [MS-SMB2] Section 2.2.3.1.7
type SigningAlgorithm uint16

const (
	// SigningHMACSHA256 is the SMB 2.x signing algorithm.
	SigningHMACSHA256 SigningAlgorithm = 0x0000
	// SigningAESCMAC is the SMB 3.x default signing algorithm.
	SigningAESCMAC SigningAlgorithm = 0x0001
	// SigningAESGMAC is the SMB 3.1.1 optional signing algorithm.
	SigningAESGMAC SigningAlgorithm = 0x0002
)

// String returns the algorithm name used in negotiate logging.
func (a SigningAlgorithm) String() string {
	switch a {
	case SigningHMACSHA256:
		return "HMAC-SHA256"
	case SigningAESCMAC:
		return "AES-CMAC"
	case SigningAESGMAC:
		return "AES-GMAC"
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(a))
	}
}

// Cipher identifies a negotiated encryption cipher.
//
// [MS-SMB2] Section 2.2.3.1.2
type Cipher uint16

const (
	CipherAES128CCM Cipher = 0x0001
	CipherAES128GCM Cipher = 0x0002
	CipherAES256CCM Cipher = 0x0003
	CipherAES256GCM Cipher = 0x0004
)

// KeyBits returns the cipher key length in bits, consumed by the KDF.
func (c Cipher) KeyBits() uint32 {
	switch c {
	case CipherAES256CCM, CipherAES256GCM:
		return 256
	default:
		return 128
	}
}

// HashAlgorithm identifies a preauth integrity hash algorithm.
//
// [MS-SMB2] Section 2.2.3.1.1
type HashAlgorithm uint16

// HashSHA512 is the only preauth integrity algorithm defined by the protocol.
const HashSHA512 HashAlgorithm = 0x0001

// Status is the NT_STATUS subset the authentication subsystem produces.
//
// [MS-ERREF] Section 2.3
type Status uint32

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0x00000000

	// StatusMoreProcessingRequired tells the client to continue the
	// multi-leg session setup exchange (challenge leg).
	StatusMoreProcessingRequired Status = 0xC0000016

	// StatusLogonFailure indicates credentials did not verify.
	StatusLogonFailure Status = 0xC000006D

	// StatusAccessDenied indicates the authenticated principal is not
	// permitted the requested operation.
	StatusAccessDenied Status = 0xC0000022

	// StatusInvalidParameter indicates a structurally invalid request.
	StatusInvalidParameter Status = 0xC000000D
)

// String returns the symbolic NT_STATUS name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "STATUS_SUCCESS"
	case StatusMoreProcessingRequired:
		return "STATUS_MORE_PROCESSING_REQUIRED"
	case StatusLogonFailure:
		return "STATUS_LOGON_FAILURE"
	case StatusAccessDenied:
		return "STATUS_ACCESS_DENIED"
	case StatusInvalidParameter:
		return "STATUS_INVALID_PARAMETER"
	default:
		return fmt.Sprintf("STATUS_0x%08X", uint32(s))
	}
}
