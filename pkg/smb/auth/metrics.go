package auth

import "time"

// Metrics receives authentication outcome observations. Implementations
// live outside this package (pkg/metrics wires a Prometheus one); a nil
// Metrics disables collection with zero overhead.
type Metrics interface {
	// RecordHandshakeStarted counts a challenge leg by mechanism
	// ("ntlm" for raw tokens, "spnego" for wrapped ones).
	RecordHandshakeStarted(mechanism string)

	// RecordSuccess counts a completed authentication by protocol
	// version ("ntlmv1" or "ntlmv2").
	RecordSuccess(version string)

	// RecordFailure counts a rejected authentication by reason.
	RecordFailure(reason string)

	// RecordGuest counts a guest admission.
	RecordGuest()

	// ObserveVerifyDuration records the time spent verifying one
	// AUTHENTICATE message.
	ObserveVerifyDuration(d time.Duration)
}

// Failure reason labels.
const (
	FailureInvalidToken   = "invalid_token"
	FailureUnknownUser    = "unknown_user"
	FailureDisabled       = "account_disabled"
	FailureNoNTHash       = "no_nt_hash"
	FailureBadCredentials = "bad_credentials"
	FailureNTLMv1Refused  = "ntlmv1_refused"
	FailureGuestRefused   = "guest_refused"
	FailureUnsupported    = "unsupported_mechanism"
)

func (a *Authenticator) recordHandshake(mechanism string) {
	if a.metrics != nil {
		a.metrics.RecordHandshakeStarted(mechanism)
	}
}

func (a *Authenticator) recordSuccess(version string) {
	if a.metrics != nil {
		a.metrics.RecordSuccess(version)
	}
}

func (a *Authenticator) recordFailure(reason string) {
	if a.metrics != nil {
		a.metrics.RecordFailure(reason)
	}
}

func (a *Authenticator) recordGuest() {
	if a.metrics != nil {
		a.metrics.RecordGuest()
	}
}

func (a *Authenticator) observeVerify(start time.Time) {
	if a.metrics != nil {
		a.metrics.ObserveVerifyDuration(time.Since(start))
	}
}
