package types

import "fmt"

// Dialect identifies a negotiated SMB2/3 protocol revision.
//
// [MS-SMB2] Section 2.2.3
type Dialect uint16

const (
	// Dialect0202 is SMB 2.0.2, the first SMB2 revision.
	Dialect0202 Dialect = 0x0202
	// Dialect0210 is SMB 2.1.
	Dialect0210 Dialect = 0x0210
	// Dialect0300 is SMB 3.0, the first revision with KDF-derived keys.
	Dialect0300 Dialect = 0x0300
	// Dialect0302 is SMB 3.0.2.
	Dialect0302 Dialect = 0x0302
	// Dialect0311 is SMB 3.1.1, which adds preauth integrity and
	// negotiable signing algorithms.
	Dialect0311 Dialect = 0x0311
	// DialectWildcard (0x02FF) is sent by multi-protocol negotiate requests
	// and is never a final negotiated revision.
	DialectWildcard Dialect = 0x02FF
)

// String returns the dotted revision name, e.g. "3.1.1".
func (d Dialect) String() string {
	switch d {
	case Dialect0202:
		return "2.0.2"
	case Dialect0210:
		return "2.1"
	case Dialect0300:
		return "3.0"
	case Dialect0302:
		return "3.0.2"
	case Dialect0311:
		return "3.1.1"
	case DialectWildcard:
		return "2.??"
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(d))
	}
}

// IsSMB3 reports whether the dialect belongs to the 3.x family, which
// derives signing and encryption keys via the SP800-108 KDF instead of
// using the session key directly.
func (d Dialect) IsSMB3() bool {
	return d >= Dialect0300 && d != DialectWildcard
}

// HasPreauthIntegrity reports whether the dialect maintains the SHA-512
// preauth integrity hash chain over negotiation-phase messages.
func (d Dialect) HasPreauthIntegrity() bool {
	return d == Dialect0311
}

// SupportsEncryption reports whether per-channel encryption keys are
// derived at session/channel establishment.
func (d Dialect) SupportsEncryption() bool {
	return d.IsSMB3()
}

// Valid reports whether d is a revision this server can negotiate.
func (d Dialect) Valid() bool {
	switch d {
	case Dialect0202, Dialect0210, Dialect0300, Dialect0302, Dialect0311:
		return true
	default:
		return false
	}
}
