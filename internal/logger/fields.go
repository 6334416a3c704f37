package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs can be
// aggregated and queried by field.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Protocol & Operation
	// ========================================================================
	KeyProtocol  = "protocol"   // Protocol surface: smb, http
	KeyCommand   = "command"    // SMB2 command name: NEGOTIATE, SESSION_SETUP, etc.
	KeyDialect   = "dialect"    // Negotiated SMB dialect: 2.0.2, 3.1.1, etc.
	KeyStatus    = "status"     // Operation status code (protocol-specific)
	KeyStatusMsg = "status_msg" // Human-readable status message

	// ========================================================================
	// Authentication
	// ========================================================================
	KeyUsername    = "username"     // Account name from the authenticate message
	KeyDomain      = "domain"       // Domain name from the authenticate message
	KeyWorkstation = "workstation"  // Client workstation name
	KeyAuth        = "auth"         // Authentication mechanism: ntlmv2, ntlmv1, guest
	KeyGuest       = "guest"        // Guest session indicator
	KeySessionID   = "session_id"   // SMB session identifier
	KeyHandshakeID = "handshake_id" // In-flight NTLM exchange identifier

	// ========================================================================
	// Signing & Crypto
	// ========================================================================
	KeySigned    = "signed"    // Message signing indicator
	KeyAlgorithm = "algorithm" // Signing or cipher algorithm: hmac-sha256, aes-cmac, aes-128-gcm
	KeySignature = "signature" // Message signature (hex)

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // Client IP address
	KeyClientPort = "client_port" // Client source port
	KeyClientHost = "client_host" // Client hostname (if resolved)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyOperation  = "operation"   // Sub-operation type for complex operations
	KeyRequestID  = "request_id"  // HTTP request ID or SMB MessageId

	// ========================================================================
	// User Store
	// ========================================================================
	KeyStoreType  = "store_type"  // User store backend: config, file, badger, database
	KeyUsers      = "users"       // User count
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Protocol & Operation
// ----------------------------------------------------------------------------

// Protocol returns a slog.Attr for the protocol surface (smb, http)
func Protocol(proto string) slog.Attr {
	return slog.String(KeyProtocol, proto)
}

// Command returns a slog.Attr for the SMB2 command name
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Dialect returns a slog.Attr for the negotiated SMB dialect
func Dialect(d string) slog.Attr {
	return slog.String(KeyDialect, d)
}

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// ----------------------------------------------------------------------------
// Authentication
// ----------------------------------------------------------------------------

// Username returns a slog.Attr for the account name
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Domain returns a slog.Attr for the domain name
func Domain(name string) slog.Attr {
	return slog.String(KeyDomain, name)
}

// Workstation returns a slog.Attr for the client workstation name
func Workstation(name string) slog.Attr {
	return slog.String(KeyWorkstation, name)
}

// AuthStr returns a slog.Attr for the authentication mechanism
func AuthStr(method string) slog.Attr {
	return slog.String(KeyAuth, method)
}

// Guest returns a slog.Attr for the guest session indicator
func Guest(guest bool) slog.Attr {
	return slog.Bool(KeyGuest, guest)
}

// SessionID returns a slog.Attr for the SMB session identifier
func SessionID(id uint64) slog.Attr {
	return slog.Uint64(KeySessionID, id)
}

// HandshakeID returns a slog.Attr for the in-flight NTLM exchange identifier
func HandshakeID(id uint64) slog.Attr {
	return slog.Uint64(KeyHandshakeID, id)
}

// ----------------------------------------------------------------------------
// Signing & Crypto
// ----------------------------------------------------------------------------

// Signed returns a slog.Attr for the message signing indicator
func Signed(signed bool) slog.Attr {
	return slog.Bool(KeySigned, signed)
}

// Algorithm returns a slog.Attr for a signing or cipher algorithm
func Algorithm(alg string) slog.Attr {
	return slog.String(KeyAlgorithm, alg)
}

// Signature returns a slog.Attr for a message signature (formatted as hex)
func Signature(sig []byte) slog.Attr {
	return slog.String(KeySignature, fmt.Sprintf("%x", sig))
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// ClientHost returns a slog.Attr for client hostname
func ClientHost(host string) slog.Attr {
	return slog.String(KeyClientHost, host)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// RequestID returns a slog.Attr for protocol-specific request ID
func RequestID(id uint64) slog.Attr {
	return slog.Uint64(KeyRequestID, id)
}

// RequestIDStr returns a slog.Attr for request ID as string
func RequestIDStr(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ----------------------------------------------------------------------------
// User Store
// ----------------------------------------------------------------------------

// StoreType returns a slog.Attr for the user store backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Users returns a slog.Attr for a user count
func Users(n int) slog.Attr {
	return slog.Int(KeyUsers, n)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
