// Package auth is the server-side NTLM authentication engine.
//
// It implements adapter.Authenticator over SPNEGO-wrapped or raw NTLMSSP
// tokens: the NEGOTIATE leg yields a CHALLENGE token carrying a fresh
// server challenge, the AUTHENTICATE leg verifies the client's response
// against the NT hash stored for the account and produces the legacy
// session-key buffer consumed by signing and key derivation.
//
// In-flight handshakes are tracked in a concurrent map keyed by an opaque
// handshake ID; the AUTHENTICATE leg correlates by trying each outstanding
// challenge, since NTLM itself carries no correlation field. Stale entries
// are evicted on the next challenge leg.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/smbsec/internal/logger"
	"github.com/marmos91/smbsec/pkg/adapter"
	"github.com/marmos91/smbsec/pkg/identity"
	"github.com/marmos91/smbsec/pkg/smb/crypto"
	"github.com/marmos91/smbsec/pkg/smb/ntlm"
	"github.com/marmos91/smbsec/pkg/smb/spnego"
)

// pendingTTL bounds how long an unanswered challenge stays verifiable.
const pendingTTL = 2 * time.Minute

// Config controls authentication policy.
type Config struct {
	// NetBIOSName is the server name embedded in challenge target-info
	// and used as the fallback domain when the client omits one.
	NetBIOSName string

	// AllowGuest admits unknown users and anonymous requests as guest
	// sessions instead of rejecting them.
	AllowGuest bool

	// AllowNTLMv1 accepts legacy 24-byte NTLMv1 responses. Off by
	// default: v1 responses carry no server binding and are crackable
	// offline.
	AllowNTLMv1 bool
}

// Authenticator implements adapter.Authenticator for NTLM over SPNEGO.
// Safe for concurrent use; each handshake's state lives in the pending map
// and verification runs on per-call crypto providers.
type Authenticator struct {
	cfg     Config
	users   identity.UserStore
	metrics Metrics

	pending         sync.Map // handshake ID -> *pendingAuth
	nextHandshakeID atomic.Uint64
}

// pendingAuth is the state between the challenge and authenticate legs.
type pendingAuth struct {
	challenge   [ntlm.ChallengeSize]byte
	clientFlags ntlm.Flags
	created     time.Time
}

var _ adapter.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates an authenticator backed by the given user
// store. metrics may be nil.
func NewAuthenticator(cfg Config, users identity.UserStore, metrics Metrics) *Authenticator {
	return &Authenticator{
		cfg:     cfg,
		users:   users,
		metrics: metrics,
	}
}

// Authenticate processes one security token from a SESSION_SETUP exchange.
//
// SPNEGO tokens are unwrapped first; Kerberos offers are rejected
// explicitly since NTLM is the only mechanism served. Raw NTLMSSP blobs
// are accepted for clients that skip SPNEGO. An empty token is an
// anonymous request and resolves through the guest policy.
func (a *Authenticator) Authenticate(ctx context.Context, token []byte) (*adapter.AuthResult, []byte, error) {
	if len(token) == 0 {
		return a.guestResult(ctx)
	}

	if spnego.IsToken(token) {
		parsed, err := spnego.Parse(token)
		if err != nil {
			a.recordFailure(FailureInvalidToken)
			return nil, nil, fmt.Errorf("%w: %v", adapter.ErrAuthenticationFailed, err)
		}

		switch parsed.Type {
		case spnego.TokenTypeInit:
			if parsed.HasNTLM() && len(parsed.MechToken) > 0 {
				return a.handleNTLM(ctx, parsed.MechToken, true)
			}
			if parsed.HasKerberos() {
				a.recordFailure(FailureUnsupported)
				return nil, nil, fmt.Errorf("%w: kerberos offered but not served", spnego.ErrUnsupportedMech)
			}
			a.recordFailure(FailureUnsupported)
			return nil, nil, spnego.ErrUnsupportedMech

		case spnego.TokenTypeResp:
			if len(parsed.MechToken) > 0 {
				return a.handleNTLM(ctx, parsed.MechToken, true)
			}
			a.recordFailure(FailureInvalidToken)
			return nil, nil, fmt.Errorf("%w: empty response token", adapter.ErrAuthenticationFailed)
		}
	}

	if ntlm.IsMessage(token) {
		return a.handleNTLM(ctx, token, false)
	}

	a.recordFailure(FailureInvalidToken)
	return nil, nil, fmt.Errorf("%w: unrecognized security token", adapter.ErrAuthenticationFailed)
}

// handleNTLM routes a raw NTLMSSP blob by its type discriminant.
// wrapped controls whether responses go back inside SPNEGO framing.
func (a *Authenticator) handleNTLM(ctx context.Context, blob []byte, wrapped bool) (*adapter.AuthResult, []byte, error) {
	switch ntlm.MessageType(blob) {
	case ntlm.MessageTypeNegotiate:
		return a.handleNegotiate(blob, wrapped)

	case ntlm.MessageTypeAuthenticate:
		return a.handleAuthenticate(ctx, blob)

	default:
		a.recordFailure(FailureInvalidToken)
		return nil, nil, fmt.Errorf("%w: unexpected NTLM message type %d", adapter.ErrAuthenticationFailed, ntlm.MessageType(blob))
	}
}

// handleNegotiate answers the NEGOTIATE leg with a CHALLENGE and parks the
// server challenge for the authenticate leg.
func (a *Authenticator) handleNegotiate(blob []byte, wrapped bool) (*adapter.AuthResult, []byte, error) {
	mechanism := "ntlm"
	if wrapped {
		mechanism = "spnego"
	}
	a.recordHandshake(mechanism)

	neg, err := ntlm.DecodeNegotiate(blob)
	if err != nil {
		a.recordFailure(FailureInvalidToken)
		return nil, nil, fmt.Errorf("%w: %v", adapter.ErrAuthenticationFailed, err)
	}

	challengeBlob, challenge, err := ntlm.EncodeChallenge(a.cfg.NetBIOSName, neg.Flags)
	if err != nil {
		return nil, nil, err
	}

	a.evictStalePending()
	id := a.nextHandshakeID.Add(1)
	a.pending.Store(id, &pendingAuth{
		challenge:   challenge,
		clientFlags: neg.Flags,
		created:     time.Now(),
	})

	out := challengeBlob
	if wrapped {
		if out, err = spnego.BuildChallengeResponse(challengeBlob); err != nil {
			a.pending.Delete(id)
			return nil, nil, fmt.Errorf("wrap challenge: %w", err)
		}
	}

	logger.Debug("NTLM challenge issued",
		"handshake_id", id,
		"client_flags", uint32(neg.Flags),
		"workstation", neg.Workstation,
	)
	return nil, out, adapter.ErrMoreProcessingRequired
}

// handleAuthenticate verifies the AUTHENTICATE leg.
func (a *Authenticator) handleAuthenticate(ctx context.Context, blob []byte) (*adapter.AuthResult, []byte, error) {
	start := time.Now()
	defer a.observeVerify(start)

	msg, err := ntlm.DecodeAuthenticate(blob)
	if err != nil {
		a.recordFailure(FailureInvalidToken)
		return nil, nil, fmt.Errorf("%w: %v", adapter.ErrAuthenticationFailed, err)
	}

	if msg.IsAnonymous() {
		return a.guestResult(ctx)
	}

	user, err := a.users.GetUser(ctx, msg.User)
	if errors.Is(err, identity.ErrUserNotFound) {
		if a.cfg.AllowGuest {
			logger.Info("Unknown user admitted as guest", "user", msg.User)
			return a.guestResult(ctx)
		}
		a.recordFailure(FailureUnknownUser)
		return nil, nil, adapter.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}

	if !user.Enabled {
		a.recordFailure(FailureDisabled)
		return nil, nil, fmt.Errorf("%w: account disabled", adapter.ErrAuthenticationFailed)
	}

	ntHash, ok := user.GetNTHash()
	if !ok {
		a.recordFailure(FailureNoNTHash)
		return nil, nil, fmt.Errorf("%w: account has no NT hash", adapter.ErrAuthenticationFailed)
	}

	// The client echoes its domain only when it authenticated against
	// one; otherwise the server's own name is the implicit domain.
	domain := a.cfg.NetBIOSName
	if msg.DomainPresent {
		domain = msg.Domain
	}

	if msg.IsNTLMv1() && !a.cfg.AllowNTLMv1 {
		a.recordFailure(FailureNTLMv1Refused)
		return nil, nil, fmt.Errorf("%w: ntlmv1 disabled", adapter.ErrAuthenticationFailed)
	}

	key, matched := a.verifyAgainstPending(ntHash, domain, msg)
	if !matched {
		a.recordFailure(FailureBadCredentials)
		logger.Warn("NTLM authentication failed",
			"user", msg.User,
			"domain", domain,
			"workstation", msg.Workstation,
		)
		return nil, nil, adapter.ErrAuthenticationFailed
	}

	if err := a.users.UpdateLastLogin(ctx, user.Username, time.Now()); err != nil {
		logger.Debug("last-login update skipped", "user", user.Username, "error", err)
	}

	version := "ntlmv2"
	if msg.IsNTLMv1() {
		version = "ntlmv1"
	}
	a.recordSuccess(version)
	logger.Info("NTLM authentication succeeded",
		"user", user.Username,
		"domain", domain,
		"version", version,
	)

	sessionKey := make([]byte, len(key))
	copy(sessionKey, key[:])
	key.Zero()

	return &adapter.AuthResult{
		User:       user,
		Domain:     domain,
		SessionKey: sessionKey,
		NTLMv1:     msg.IsNTLMv1(),
	}, nil, nil
}

// verifyAgainstPending tries the response against every outstanding
// challenge. NTLM has no correlation field, so the matching challenge is
// found by verification itself; the matched entry is consumed, other
// handshakes stay pending.
func (a *Authenticator) verifyAgainstPending(ntHash [ntlm.NTHashSize]byte, domain string, msg *ntlm.Authenticate) (ntlm.SessionKey, bool) {
	verifier := ntlm.NewVerifier(crypto.NewProvider())

	var key ntlm.SessionKey
	matched := false

	a.pending.Range(func(id, value any) bool {
		pending := value.(*pendingAuth)

		var err error
		if msg.IsNTLMv1() {
			key, err = verifier.ValidateNTLMv1Response(ntHash, pending.challenge, msg.NTResponse)
		} else {
			key, err = verifier.ValidateNTLMv2Response(ntHash, msg.User, domain, pending.challenge, msg.NTResponse)
		}
		if err == nil {
			matched = true
			a.pending.Delete(id)
			return false
		}
		return true
	})

	return key, matched
}

// evictStalePending drops challenges older than pendingTTL.
func (a *Authenticator) evictStalePending() {
	cutoff := time.Now().Add(-pendingTTL)
	a.pending.Range(func(id, value any) bool {
		if value.(*pendingAuth).created.Before(cutoff) {
			a.pending.Delete(id)
		}
		return true
	})
}

// guestResult resolves the guest policy for anonymous or unknown clients.
func (a *Authenticator) guestResult(ctx context.Context) (*adapter.AuthResult, []byte, error) {
	if !a.cfg.AllowGuest {
		a.recordFailure(FailureGuestRefused)
		return nil, nil, fmt.Errorf("%w: guest access disabled", adapter.ErrAuthenticationFailed)
	}

	guest, err := a.users.GetGuestUser(ctx)
	if errors.Is(err, identity.ErrGuestDisabled) {
		a.recordFailure(FailureGuestRefused)
		return nil, nil, fmt.Errorf("%w: guest access disabled", adapter.ErrAuthenticationFailed)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("guest lookup: %w", err)
	}

	a.recordGuest()
	return &adapter.AuthResult{
		User:    guest,
		Domain:  a.cfg.NetBIOSName,
		IsGuest: true,
	}, nil, nil
}

// PendingCount returns the number of outstanding challenges.
func (a *Authenticator) PendingCount() int {
	n := 0
	a.pending.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
