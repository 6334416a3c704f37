// Package spnego wraps and unwraps the SPNEGO (RFC 4178) tokens that carry
// NTLM messages through SMB SESSION_SETUP exchanges.
//
// Two surfaces coexist. Parse and the Build* functions handle real ASN.1
// DER via github.com/jcmturner/gokrb5/v8/spnego, accepting whatever framing
// a client sends. The gss.go constants are the fixed byte-exact GSS headers
// the original server emits on its own responses; peers compare those
// prefixes literally, so they are reproduced as static data rather than
// re-encoded.
package spnego

import (
	"errors"
	"fmt"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// Well-known mechanism OIDs seen in SPNEGO negotiation.
var (
	// OIDNTLMSSP is the NTLM Security Support Provider OID
	// (1.3.6.1.4.1.311.2.2.10), the only mechanism this subsystem
	// authenticates.
	OIDNTLMSSP = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 2, 2, 10}

	// OIDKerberosV5 (1.2.840.113554.1.2.2) and OIDMSKerberosV5
	// (1.2.840.48018.1.2.2) identify Kerberos offers, which are detected
	// so they can be rejected explicitly instead of misparsed as NTLM.
	OIDKerberosV5   = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}
	OIDMSKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 48018, 1, 2, 2}

	// OIDSPNEGO (1.3.6.1.5.5.2) identifies the outer GSS wrapper.
	OIDSPNEGO = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 2}
)

// NegState is the SPNEGO negotiation state field.
// [RFC 4178] Section 4.2.2
type NegState int

const (
	// NegStateAcceptCompleted indicates successful authentication.
	NegStateAcceptCompleted NegState = 0
	// NegStateAcceptIncomplete indicates more tokens are needed.
	NegStateAcceptIncomplete NegState = 1
	// NegStateReject indicates authentication was rejected.
	NegStateReject NegState = 2
)

var (
	// ErrInvalidToken means the bytes do not decode as a SPNEGO token.
	ErrInvalidToken = errors.New("spnego: invalid token format")
	// ErrUnsupportedMech means the client offered no mechanism this
	// subsystem implements.
	ErrUnsupportedMech = errors.New("spnego: unsupported mechanism")
)

// TokenType distinguishes the two SPNEGO token shapes.
type TokenType int

const (
	// TokenTypeInit is a NegTokenInit, the client's first message.
	TokenTypeInit TokenType = iota
	// TokenTypeResp is a NegTokenResp, any later message in the exchange.
	TokenTypeResp
)

// Token is a decoded SPNEGO token.
type Token struct {
	// Type indicates which SPNEGO shape was decoded.
	Type TokenType

	// MechTypes lists the mechanisms offered (init tokens only).
	MechTypes []asn1.ObjectIdentifier

	// MechToken is the inner mechanism token, e.g. an NTLM message.
	MechToken []byte

	// NegState is the negotiation state (resp tokens only).
	NegState NegState
}

// IsToken reports whether data plausibly starts a SPNEGO token: a GSS
// application wrapper (0x60) or a bare NegTokenInit/NegTokenResp context
// tag.
func IsToken(data []byte) bool {
	return len(data) >= 2 && (data[0] == 0x60 || data[0] == 0xa0 || data[0] == 0xa1)
}

// Parse decodes a SPNEGO token, GSS-wrapped or bare.
func Parse(data []byte) (*Token, error) {
	if len(data) < 2 {
		return nil, ErrInvalidToken
	}

	isInit, token, err := spnego.UnmarshalNegToken(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if isInit {
		initToken, ok := token.(spnego.NegTokenInit)
		if !ok {
			return nil, ErrInvalidToken
		}
		return &Token{
			Type:      TokenTypeInit,
			MechTypes: initToken.MechTypes,
			MechToken: initToken.MechTokenBytes,
		}, nil
	}

	respToken, ok := token.(spnego.NegTokenResp)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &Token{
		Type:      TokenTypeResp,
		MechToken: respToken.ResponseToken,
		NegState:  NegState(respToken.NegState),
	}, nil
}

// HasMechanism reports whether an init token offers the given mechanism.
func (t *Token) HasMechanism(oid asn1.ObjectIdentifier) bool {
	for _, mech := range t.MechTypes {
		if mech.Equal(oid) {
			return true
		}
	}
	return false
}

// HasNTLM reports whether the token offers NTLM.
func (t *Token) HasNTLM() bool {
	return t.HasMechanism(OIDNTLMSSP)
}

// HasKerberos reports whether the token offers Kerberos.
func (t *Token) HasKerberos() bool {
	return t.HasMechanism(OIDKerberosV5) || t.HasMechanism(OIDMSKerberosV5)
}

// buildResponse DER-encodes a NegTokenResp.
func buildResponse(state NegState, mech asn1.ObjectIdentifier, responseToken []byte) ([]byte, error) {
	resp := spnego.NegTokenResp{
		NegState:      asn1.Enumerated(state),
		SupportedMech: mech,
		ResponseToken: responseToken,
	}
	return resp.Marshal()
}

// BuildChallengeResponse wraps an NTLM CHALLENGE in an accept-incomplete
// NegTokenResp selecting the NTLMSSP mechanism.
func BuildChallengeResponse(challenge []byte) ([]byte, error) {
	return buildResponse(NegStateAcceptIncomplete, OIDNTLMSSP, challenge)
}

// BuildAcceptCompleted builds the final accept-completed NegTokenResp.
func BuildAcceptCompleted() ([]byte, error) {
	return buildResponse(NegStateAcceptCompleted, nil, nil)
}

// BuildReject builds a rejection NegTokenResp.
func BuildReject() ([]byte, error) {
	return buildResponse(NegStateReject, nil, nil)
}
