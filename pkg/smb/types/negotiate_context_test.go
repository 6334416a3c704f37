package types

import (
	"bytes"
	"testing"
)

func TestPreauthIntegrityCapsRoundTrip(t *testing.T) {
	caps := PreauthIntegrityCaps{
		HashAlgorithms: []HashAlgorithm{HashSHA512},
		Salt:           []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02},
	}

	decoded, err := DecodePreauthIntegrityCaps(caps.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.HashAlgorithms) != 1 || decoded.HashAlgorithms[0] != HashSHA512 {
		t.Errorf("hash algorithms = %v, want [SHA-512]", decoded.HashAlgorithms)
	}
	if !bytes.Equal(decoded.Salt, caps.Salt) {
		t.Errorf("salt = % X, want % X", decoded.Salt, caps.Salt)
	}
}

func TestDecodePreauthIntegrityCapsTruncated(t *testing.T) {
	caps := PreauthIntegrityCaps{
		HashAlgorithms: []HashAlgorithm{HashSHA512},
		Salt:           bytes.Repeat([]byte{0x55}, 32),
	}
	full := caps.Encode()

	// Declared salt length exceeds the available bytes.
	if _, err := DecodePreauthIntegrityCaps(full[:len(full)-4]); err == nil {
		t.Error("truncated salt should fail to decode")
	}
	if _, err := DecodePreauthIntegrityCaps([]byte{0x01}); err == nil {
		t.Error("truncated header should fail to decode")
	}
}

func TestEncryptionCapsRoundTrip(t *testing.T) {
	caps := EncryptionCaps{Ciphers: []Cipher{CipherAES128GCM, CipherAES128CCM}}
	decoded, err := DecodeEncryptionCaps(caps.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Ciphers) != 2 || decoded.Ciphers[0] != CipherAES128GCM {
		t.Errorf("ciphers = %v, want [GCM CCM]", decoded.Ciphers)
	}
}

func TestSigningCapsRoundTrip(t *testing.T) {
	caps := SigningCaps{Algorithms: []SigningAlgorithm{SigningAESGMAC, SigningAESCMAC}}
	decoded, err := DecodeSigningCaps(caps.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Algorithms) != 2 || decoded.Algorithms[0] != SigningAESGMAC {
		t.Errorf("algorithms = %v, want [AES-GMAC AES-CMAC]", decoded.Algorithms)
	}
}

func TestNegotiateContextListRoundTrip(t *testing.T) {
	contexts := []NegotiateContext{
		{ContextType: NegCtxPreauthIntegrity, Data: PreauthIntegrityCaps{
			HashAlgorithms: []HashAlgorithm{HashSHA512},
			Salt:           bytes.Repeat([]byte{0xab}, 32),
		}.Encode()},
		{ContextType: NegCtxEncryption, Data: EncryptionCaps{
			Ciphers: []Cipher{CipherAES128GCM},
		}.Encode()},
		{ContextType: NegCtxSigning, Data: SigningCaps{
			Algorithms: []SigningAlgorithm{SigningAESCMAC},
		}.Encode()},
	}

	wire := EncodeNegotiateContextList(contexts)
	parsed, err := ParseNegotiateContextList(wire, len(contexts))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("parsed %d contexts, want 3", len(parsed))
	}
	for i := range contexts {
		if parsed[i].ContextType != contexts[i].ContextType {
			t.Errorf("context %d type = 0x%04X, want 0x%04X",
				i, parsed[i].ContextType, contexts[i].ContextType)
		}
		if !bytes.Equal(parsed[i].Data, contexts[i].Data) {
			t.Errorf("context %d payload mismatch", i)
		}
	}
}

func TestParseNegotiateContextListBounds(t *testing.T) {
	// Header claims 100 bytes of payload but only 4 follow.
	wire := EncodeNegotiateContextList([]NegotiateContext{
		{ContextType: NegCtxEncryption, Data: make([]byte, 4)},
	})
	wire[2] = 100 // DataLength low byte

	if _, err := ParseNegotiateContextList(wire, 1); err == nil {
		t.Error("payload length past end of buffer should fail")
	}
	if _, err := ParseNegotiateContextList([]byte{0x01, 0x00}, 1); err == nil {
		t.Error("truncated context header should fail")
	}
	if got, err := ParseNegotiateContextList(nil, 0); err != nil || got != nil {
		t.Error("zero contexts should parse to nil without error")
	}
}
