// Package types contains SMB2/3 protocol constants shared by the
// authentication and signing packages.
//
// # Overview
//
// This package provides type-safe definitions for the protocol elements the
// security subsystem consumes:
//
//   - Dialects (SMB 2.0.2, 2.1, 3.0, 3.0.2, 3.1.1) and the wildcard revision
//   - Signing algorithm IDs (HMAC-SHA256, AES-CMAC, AES-GMAC)
//   - Encryption cipher IDs (AES-128/256 CCM and GCM)
//   - Preauth integrity hash algorithm IDs (SHA-512)
//   - SMB2 header geometry used by message signing (signature offset, signed
//     flag, message ID offset)
//   - The NT_STATUS subset surfaced by session setup
//
// # Type Safety
//
// All identifiers use explicit Go types (Dialect, SigningAlgorithm, Cipher,
// Status) so incompatible values cannot be mixed and values print with
// human-readable names.
//
// # References
//
//   - [MS-SMB2] Server Message Block Protocol Versions 2 and 3
//   - [MS-ERREF] Windows Error Codes
package types
