package ntlm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/marmos91/smbsec/pkg/smb/smbenc"
)

// buildTestMessage creates a minimal NTLM message of the given type.
func buildTestMessage(msgType uint32) []byte {
	msg := make([]byte, 64)
	copy(msg[0:8], signature[:])
	binary.LittleEndian.PutUint32(msg[8:12], msgType)
	return msg
}

// buildAuthenticateBlob assembles an AUTHENTICATE message the way a client
// would: fixed header, then domain, user, workstation, LM, NT and session
// key payloads. A nil domain leaves the domain security buffer empty.
func buildAuthenticateBlob(flags Flags, user string, domain *string, workstation string, lm, nt, sessionKey []byte) []byte {
	encode := func(s string) []byte {
		if flags.Has(FlagNegotiateUnicode) {
			return EncodeUTF16LE(s)
		}
		return []byte(s)
	}

	userBytes := encode(user)
	var domainBytes []byte
	if domain != nil {
		domainBytes = encode(*domain)
	}
	wsBytes := encode(workstation)

	w := smbenc.NewWriter(authenticateSize)
	w.WriteBytes(signature[:])
	w.WriteUint32(MessageTypeAuthenticate)

	off := authenticateSize
	writeSecurityBuffer(w, len(lm), off)
	off += len(lm)
	writeSecurityBuffer(w, len(nt), off)
	off += len(nt)
	writeSecurityBuffer(w, len(domainBytes), off)
	off += len(domainBytes)
	writeSecurityBuffer(w, len(userBytes), off)
	off += len(userBytes)
	writeSecurityBuffer(w, len(wsBytes), off)
	off += len(wsBytes)
	writeSecurityBuffer(w, len(sessionKey), off)
	w.WriteUint32(uint32(flags))

	w.WriteBytes(lm)
	w.WriteBytes(nt)
	w.WriteBytes(domainBytes)
	w.WriteBytes(userBytes)
	w.WriteBytes(wsBytes)
	w.WriteBytes(sessionKey)
	return w.Bytes()
}

func TestIsMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{"NegotiateMessage", buildTestMessage(MessageTypeNegotiate), true},
		{"ChallengeMessage", buildTestMessage(MessageTypeChallenge), true},
		{"AuthenticateMessage", buildTestMessage(MessageTypeAuthenticate), true},
		{"TooShort", []byte{'N', 'T', 'L', 'M'}, false},
		{"SignatureOnly", signature[:], false},
		{"WrongSignature", []byte{'X', 'X', 'X', 'X', 'X', 'X', 'X', 0, 1, 0, 0, 0}, false},
		{"Empty", []byte{}, false},
		{"Nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMessage(tt.input); got != tt.expected {
				t.Errorf("IsMessage() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMessageTypeFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected uint32
	}{
		{"Negotiate", buildTestMessage(MessageTypeNegotiate), 1},
		{"Challenge", buildTestMessage(MessageTypeChallenge), 2},
		{"Authenticate", buildTestMessage(MessageTypeAuthenticate), 3},
		{"TooShort", signature[:], 0},
		{"Empty", []byte{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageType(tt.input); got != tt.expected {
				t.Errorf("MessageType() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestDecodeNegotiate(t *testing.T) {
	t.Run("MinimalMessage", func(t *testing.T) {
		blob := make([]byte, negotiateSize)
		copy(blob[0:8], signature[:])
		binary.LittleEndian.PutUint32(blob[8:12], MessageTypeNegotiate)
		binary.LittleEndian.PutUint32(blob[12:16], uint32(FlagNegotiateUnicode|FlagRequestTarget))

		msg, err := DecodeNegotiate(blob)
		if err != nil {
			t.Fatalf("DecodeNegotiate failed: %v", err)
		}
		if !msg.Flags.Has(FlagNegotiateUnicode | FlagRequestTarget) {
			t.Errorf("Flags = 0x%08x, expected Unicode and RequestTarget set", uint32(msg.Flags))
		}
		if msg.Domain != "" || msg.Workstation != "" {
			t.Errorf("expected empty hints, got domain %q workstation %q", msg.Domain, msg.Workstation)
		}
	})

	t.Run("WithHints", func(t *testing.T) {
		// Negotiate hints are OEM encoded.
		domain := "CORP"
		workstation := "DESK01"
		blob := make([]byte, negotiateSize+len(domain)+len(workstation))
		copy(blob[0:8], signature[:])
		binary.LittleEndian.PutUint32(blob[8:12], MessageTypeNegotiate)
		binary.LittleEndian.PutUint32(blob[12:16], uint32(FlagNegotiateOEMDomainSupplied|FlagNegotiateOEMWorkstationSupplied))
		binary.LittleEndian.PutUint16(blob[16:18], uint16(len(domain)))
		binary.LittleEndian.PutUint16(blob[18:20], uint16(len(domain)))
		binary.LittleEndian.PutUint32(blob[20:24], negotiateSize)
		binary.LittleEndian.PutUint16(blob[24:26], uint16(len(workstation)))
		binary.LittleEndian.PutUint16(blob[26:28], uint16(len(workstation)))
		binary.LittleEndian.PutUint32(blob[28:32], uint32(negotiateSize+len(domain)))
		copy(blob[negotiateSize:], domain)
		copy(blob[negotiateSize+len(domain):], workstation)

		msg, err := DecodeNegotiate(blob)
		if err != nil {
			t.Fatalf("DecodeNegotiate failed: %v", err)
		}
		if msg.Domain != domain {
			t.Errorf("Domain = %q, expected %q", msg.Domain, domain)
		}
		if msg.Workstation != workstation {
			t.Errorf("Workstation = %q, expected %q", msg.Workstation, workstation)
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		blob := buildTestMessage(MessageTypeNegotiate)[:10]
		if _, err := DecodeNegotiate(blob); !errors.Is(err, ErrTooShort) {
			t.Errorf("expected ErrTooShort, got %v", err)
		}
	})

	t.Run("BadSignature", func(t *testing.T) {
		blob := buildTestMessage(MessageTypeNegotiate)
		blob[0] = 'X'
		if _, err := DecodeNegotiate(blob); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		blob := buildTestMessage(MessageTypeChallenge)
		if _, err := DecodeNegotiate(blob); !errors.Is(err, ErrMalformedBlob) {
			t.Errorf("expected ErrMalformedBlob, got %v", err)
		}
	})

	t.Run("HintOutOfRange", func(t *testing.T) {
		blob := buildTestMessage(MessageTypeNegotiate)[:negotiateSize]
		binary.LittleEndian.PutUint16(blob[16:18], 16)
		binary.LittleEndian.PutUint32(blob[20:24], uint32(len(blob))) // points past the end
		if _, err := DecodeNegotiate(blob); !errors.Is(err, ErrMalformedBlob) {
			t.Errorf("expected ErrMalformedBlob, got %v", err)
		}
	})
}

func TestEncodeChallenge(t *testing.T) {
	const serverName = "FILESERVER"
	blob, challenge, err := EncodeChallenge(serverName, FlagRequestTarget)
	if err != nil {
		t.Fatalf("EncodeChallenge failed: %v", err)
	}

	t.Run("HeaderFields", func(t *testing.T) {
		if !IsMessage(blob) {
			t.Fatal("challenge blob should carry the NTLMSSP signature")
		}
		if MessageType(blob) != MessageTypeChallenge {
			t.Errorf("message type = %d, expected %d", MessageType(blob), MessageTypeChallenge)
		}
		nameOff := binary.LittleEndian.Uint32(blob[16:20])
		if nameOff != challengeSize {
			t.Errorf("target name offset = %d, expected %d", nameOff, challengeSize)
		}
	})

	t.Run("ChallengeMatchesReturn", func(t *testing.T) {
		if !bytes.Equal(blob[24:32], challenge[:]) {
			t.Error("returned challenge should match the message bytes")
		}
		if challenge == ([ChallengeSize]byte{}) {
			t.Error("challenge should be random, not all zeros")
		}
	})

	t.Run("UniquePerCall", func(t *testing.T) {
		_, challenge2, err := EncodeChallenge(serverName, 0)
		if err != nil {
			t.Fatalf("EncodeChallenge failed: %v", err)
		}
		if challenge == challenge2 {
			t.Error("two challenges should differ")
		}
	})

	t.Run("Flags", func(t *testing.T) {
		msg, err := DecodeChallenge(blob)
		if err != nil {
			t.Fatalf("DecodeChallenge failed: %v", err)
		}
		want := FlagNegotiateUnicode | FlagNegotiateNTLM | FlagTargetTypeServer |
			FlagNegotiateTargetInfo | FlagNegotiate128 | FlagNegotiate56 |
			FlagNegotiateVersion | FlagRequestTarget
		if msg.Flags != want {
			t.Errorf("flags = 0x%08x, expected 0x%08x", uint32(msg.Flags), uint32(want))
		}
	})

	t.Run("RequestTargetOnlyWhenAsked", func(t *testing.T) {
		blob2, _, err := EncodeChallenge(serverName, 0)
		if err != nil {
			t.Fatalf("EncodeChallenge failed: %v", err)
		}
		msg, err := DecodeChallenge(blob2)
		if err != nil {
			t.Fatalf("DecodeChallenge failed: %v", err)
		}
		if msg.Flags.Has(FlagRequestTarget) {
			t.Error("RequestTarget should only be echoed when the client set it")
		}
	})

	t.Run("TargetName", func(t *testing.T) {
		msg, err := DecodeChallenge(blob)
		if err != nil {
			t.Fatalf("DecodeChallenge failed: %v", err)
		}
		if msg.TargetName != serverName {
			t.Errorf("target name = %q, expected %q", msg.TargetName, serverName)
		}
	})

	t.Run("TargetInfoPairs", func(t *testing.T) {
		msg, err := DecodeChallenge(blob)
		if err != nil {
			t.Fatalf("DecodeChallenge failed: %v", err)
		}
		wantIDs := []AvID{AvIDNbComputerName, AvIDNbDomainName, AvIDDnsComputerName, AvIDDnsDomainName}
		if len(msg.TargetInfo) != len(wantIDs) {
			t.Fatalf("target info has %d pairs, expected %d", len(msg.TargetInfo), len(wantIDs))
		}
		name := EncodeUTF16LE(serverName)
		for i, pair := range msg.TargetInfo {
			if pair.ID != wantIDs[i] {
				t.Errorf("pair %d: ID = %d, expected %d", i, pair.ID, wantIDs[i])
			}
			if !bytes.Equal(pair.Value, name) {
				t.Errorf("pair %d: value should be the UTF-16 server name", i)
			}
		}
	})

	t.Run("TargetInfoMaxLengthEqualsLength", func(t *testing.T) {
		length := binary.LittleEndian.Uint16(blob[40:42])
		maxLength := binary.LittleEndian.Uint16(blob[42:44])
		if length != maxLength {
			t.Errorf("TargetInfo MaximumLength = %d, expected Length %d", maxLength, length)
		}
	})

	t.Run("NoVersionBytes", func(t *testing.T) {
		// The Version flag is advertised but no version structure is
		// written; the payload begins right at the fixed header's end.
		name := EncodeUTF16LE(serverName)
		wantLen := challengeSize + len(name) + 4*(4+len(name)) + 4
		if len(blob) != wantLen {
			t.Errorf("blob length = %d, expected %d", len(blob), wantLen)
		}
	})
}

func TestDecodeAuthenticate(t *testing.T) {
	const (
		user        = "alice"
		workstation = "DESK01"
	)
	domain := "CORP"
	nt := make([]byte, 64)
	for i := range nt {
		nt[i] = byte(i)
	}
	lm := make([]byte, 24)

	t.Run("RoundTrip", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, &domain, workstation, lm, nt, nil)
		msg, err := DecodeAuthenticate(blob)
		if err != nil {
			t.Fatalf("DecodeAuthenticate failed: %v", err)
		}
		if msg.User != user {
			t.Errorf("User = %q, expected %q", msg.User, user)
		}
		if msg.Domain != domain {
			t.Errorf("Domain = %q, expected %q", msg.Domain, domain)
		}
		if !msg.DomainPresent {
			t.Error("DomainPresent should be true when the domain buffer is non-empty")
		}
		if msg.Workstation != workstation {
			t.Errorf("Workstation = %q, expected %q", msg.Workstation, workstation)
		}
		if !bytes.Equal(msg.NTResponse, nt) {
			t.Error("NTResponse mismatch")
		}
		if !bytes.Equal(msg.LMResponse, lm) {
			t.Error("LMResponse mismatch")
		}
		if msg.IsNTLMv1() {
			t.Error("64-byte NT response should not route to NTLMv1")
		}
	})

	t.Run("OEMStrings", func(t *testing.T) {
		blob := buildAuthenticateBlob(0, user, &domain, workstation, lm, nt, nil)
		msg, err := DecodeAuthenticate(blob)
		if err != nil {
			t.Fatalf("DecodeAuthenticate failed: %v", err)
		}
		if msg.User != user || msg.Domain != domain {
			t.Errorf("OEM decode got user %q domain %q", msg.User, msg.Domain)
		}
	})

	t.Run("AbsentDomain", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, nil, workstation, lm, nt, nil)
		msg, err := DecodeAuthenticate(blob)
		if err != nil {
			t.Fatalf("DecodeAuthenticate failed: %v", err)
		}
		if msg.DomainPresent {
			t.Error("DomainPresent should be false for an empty domain buffer")
		}
		if msg.Domain != "" {
			t.Errorf("Domain = %q, expected empty", msg.Domain)
		}
	})

	t.Run("NTLMv1Routing", func(t *testing.T) {
		v1Response := make([]byte, NTLMv1ResponseSize)
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, &domain, workstation, lm, v1Response, nil)
		msg, err := DecodeAuthenticate(blob)
		if err != nil {
			t.Fatalf("DecodeAuthenticate failed: %v", err)
		}
		if !msg.IsNTLMv1() {
			t.Error("24-byte NT response should route to NTLMv1")
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode|FlagAnonymous, "", nil, "", nil, nil, nil)
		msg, err := DecodeAuthenticate(blob)
		if err != nil {
			t.Fatalf("DecodeAuthenticate failed: %v", err)
		}
		if !msg.IsAnonymous() {
			t.Error("anonymous flag should be reported")
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		blob := buildTestMessage(MessageTypeAuthenticate)[:authenticateSize-1]
		if _, err := DecodeAuthenticate(blob); !errors.Is(err, ErrTooShort) {
			t.Errorf("expected ErrTooShort, got %v", err)
		}
	})

	t.Run("BadSignature", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, &domain, workstation, lm, nt, nil)
		blob[7] = 'Z'
		if _, err := DecodeAuthenticate(blob); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("NTResponseOutOfRange", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, &domain, workstation, lm, nt, nil)
		// Push the NT response offset past the end of the blob.
		binary.LittleEndian.PutUint32(blob[24:28], uint32(len(blob)))
		if _, err := DecodeAuthenticate(blob); !errors.Is(err, ErrMalformedBlob) {
			t.Errorf("expected ErrMalformedBlob, got %v", err)
		}
	})

	t.Run("UserLengthOverflowsBlob", func(t *testing.T) {
		blob := buildAuthenticateBlob(FlagNegotiateUnicode, user, &domain, workstation, lm, nt, nil)
		binary.LittleEndian.PutUint16(blob[36:38], 0xFFFF)
		if _, err := DecodeAuthenticate(blob); !errors.Is(err, ErrMalformedBlob) {
			t.Errorf("expected ErrMalformedBlob, got %v", err)
		}
	})
}
