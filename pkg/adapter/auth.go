// Package adapter defines the contracts between the protocol-facing server
// loops and the security subsystem: authentication, session establishment,
// and the errors that drive multi-round handshakes.
package adapter

import (
	"context"
	"errors"

	"github.com/marmos91/smbsec/pkg/identity"
)

// AuthResult contains the outcome of a successful authentication.
type AuthResult struct {
	// User is the authenticated account. May be nil for guest/anonymous
	// authentication.
	User *identity.User

	// Domain is the domain the credentials were verified against.
	Domain string

	// SessionKey is the key material derived during authentication. For
	// NTLM this is the 40-byte legacy session-key buffer: SMB1 signing
	// consumes all of it, SMB2+ the first 16 bytes.
	SessionKey []byte

	// IsGuest indicates a guest/anonymous authentication. When true,
	// User may be nil or a synthetic guest account.
	IsGuest bool

	// NTLMv1 marks a legacy NTLMv1 authentication. Sessions established
	// from such a result start their signing sequence at 1.
	NTLMv1 bool
}

// Authenticator is implemented by protocol-specific authentication engines.
//
// Authentication may complete in a single round-trip or require multiple
// exchanges (NTLM challenge-response). The three return patterns are:
//
//  1. Success: (result, nil, nil). AuthResult carries the authenticated
//     identity and any derived session key.
//
//  2. More processing required: (nil, challengeToken, ErrMoreProcessingRequired).
//     The challenge token must be sent back to the client and the next
//     client response passed to Authenticate again.
//
//  3. Failure: (nil, nil, error).
//
// Implementations must be safe for concurrent use across sessions; state
// between rounds is managed internally.
type Authenticator interface {
	Authenticate(ctx context.Context, token []byte) (result *AuthResult, challenge []byte, err error)
}

// ErrMoreProcessingRequired is returned by Authenticator.Authenticate when
// the handshake needs additional round-trips. This is the expected flow for
// NTLM: the NEGOTIATE leg yields a CHALLENGE token with this error, and the
// following AUTHENTICATE leg completes or fails the exchange.
var ErrMoreProcessingRequired = errors.New("auth: more processing required")

// ErrAuthenticationFailed is the generic credential rejection surfaced to
// protocol handlers. Handlers map it to their wire status without leaking
// which stage of verification failed.
var ErrAuthenticationFailed = errors.New("auth: authentication failed")
