package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for authentication and signing operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrClientPort = "client.port"
	AttrClientHost = "client.host"

	// ========================================================================
	// Protocol attributes
	// ========================================================================
	AttrProtocol     = "protocol.name" // smb, http
	AttrSMBCommand   = "smb.command"
	AttrSMBMessageID = "smb.message_id"
	AttrSMBSessionID = "smb.session_id"
	AttrSMBDialect   = "smb.dialect"
	AttrSMBStatus    = "smb.status"

	// ========================================================================
	// Authentication attributes
	// ========================================================================
	AttrAuthMechanism   = "auth.mechanism" // ntlmv2, ntlmv1, guest
	AttrAuthGuest       = "auth.guest"
	AttrAuthHandshakeID = "auth.handshake_id"
	AttrUsername        = "user.name"
	AttrDomain          = "user.domain"
	AttrWorkstation     = "user.workstation"

	// ========================================================================
	// Signing attributes
	// ========================================================================
	AttrSignAlgorithm = "sign.algorithm" // hmac-sha256, aes-cmac, aes-gmac, legacy
	AttrSignValid     = "sign.valid"

	// ========================================================================
	// User store attributes
	// ========================================================================
	AttrStoreType = "store.type" // config, file, badger, database
	AttrStoreOp   = "store.operation"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// ========================================================================
	// Authentication spans
	// ========================================================================

	// Root span for a full NTLM exchange
	SpanAuthExchange = "auth.exchange"

	SpanAuthNegotiate    = "auth.NEGOTIATE"
	SpanAuthChallenge    = "auth.CHALLENGE"
	SpanAuthAuthenticate = "auth.AUTHENTICATE"

	// ========================================================================
	// Signing spans
	// ========================================================================
	SpanSignCompute = "sign.compute"
	SpanSignVerify  = "sign.verify"

	// ========================================================================
	// Key derivation spans
	// ========================================================================
	SpanKDFDerive      = "kdf.derive"
	SpanChannelBind    = "session.channel_bind"
	SpanSessionCreate  = "session.create"
	SpanSessionDestroy = "session.destroy"

	// ========================================================================
	// User store spans
	// ========================================================================
	SpanStoreLookup   = "store.lookup"
	SpanStoreList     = "store.list"
	SpanStoreCreate   = "store.create"
	SpanStoreUpdate   = "store.update"
	SpanStoreDelete   = "store.delete"
	SpanStoreValidate = "store.validate"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Protocol returns an attribute for protocol name
func Protocol(name string) attribute.KeyValue {
	return attribute.String(AttrProtocol, name)
}

// SMBCommand returns an attribute for the SMB2 command name
func SMBCommand(name string) attribute.KeyValue {
	return attribute.String(AttrSMBCommand, name)
}

// SMBMessageID returns an attribute for the SMB2 MessageId
func SMBMessageID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSMBMessageID, int64(id))
}

// SMBSessionID returns an attribute for the SMB session identifier
func SMBSessionID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSMBSessionID, int64(id))
}

// SMBDialect returns an attribute for the negotiated dialect
func SMBDialect(d string) attribute.KeyValue {
	return attribute.String(AttrSMBDialect, d)
}

// SMBStatus returns an attribute for an SMB status code (formatted as hex)
func SMBStatus(status uint32) attribute.KeyValue {
	return attribute.String(AttrSMBStatus, fmt.Sprintf("0x%08x", status))
}

// AuthMechanism returns an attribute for the authentication mechanism
func AuthMechanism(mech string) attribute.KeyValue {
	return attribute.String(AttrAuthMechanism, mech)
}

// AuthGuest returns an attribute for the guest session indicator
func AuthGuest(guest bool) attribute.KeyValue {
	return attribute.Bool(AttrAuthGuest, guest)
}

// AuthHandshakeID returns an attribute for the in-flight exchange identifier
func AuthHandshakeID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrAuthHandshakeID, int64(id))
}

// Username returns an attribute for the account name
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Domain returns an attribute for the domain name
func Domain(name string) attribute.KeyValue {
	return attribute.String(AttrDomain, name)
}

// Workstation returns an attribute for the client workstation name
func Workstation(name string) attribute.KeyValue {
	return attribute.String(AttrWorkstation, name)
}

// SignAlgorithm returns an attribute for the signing algorithm
func SignAlgorithm(alg string) attribute.KeyValue {
	return attribute.String(AttrSignAlgorithm, alg)
}

// SignValid returns an attribute for the signature verification outcome
func SignValid(valid bool) attribute.KeyValue {
	return attribute.Bool(AttrSignValid, valid)
}

// StoreType returns an attribute for the user store backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StoreOp returns an attribute for the user store operation
func StoreOp(op string) attribute.KeyValue {
	return attribute.String(AttrStoreOp, op)
}

// StartAuthSpan starts a span for an authentication leg.
// This is a convenience function that sets common attributes.
func StartAuthSpan(ctx context.Context, leg string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "auth."+leg, trace.WithAttributes(attrs...))
}

// StartStoreSpan starts a span for a user store operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreOp(operation),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "store."+operation, trace.WithAttributes(allAttrs...))
}

// StartSignSpan starts a span for a signing operation.
func StartSignSpan(ctx context.Context, operation, algorithm string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SignAlgorithm(algorithm),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "sign."+operation, trace.WithAttributes(allAttrs...))
}
