package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"testing"

	"github.com/marmos91/smbsec/pkg/smb/crypto"
	"github.com/marmos91/smbsec/pkg/smb/ntlm"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

// testPDU builds a syntactically plausible SMB2 PDU: 64-byte header with a
// message ID, followed by a body.
func testPDU(messageID uint64, body []byte) []byte {
	msg := make([]byte, types.SMB2HeaderSize+len(body))
	copy(msg, []byte{0xFE, 'S', 'M', 'B'})
	for i := 0; i < 8; i++ {
		msg[types.MessageIDOffset+i] = byte(messageID >> (8 * i))
	}
	copy(msg[types.SMB2HeaderSize:], body)
	return msg
}

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

// signers returns one signer of each SMB2 generation for table tests.
func signers(t *testing.T) map[string]Signer {
	t.Helper()

	hmacSigner, err := NewHMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}
	cmacSigner, err := NewCMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewCMACSigner: %v", err)
	}
	gmacSigner, err := NewGMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewGMACSigner: %v", err)
	}
	return map[string]Signer{
		"hmac": hmacSigner,
		"cmac": cmacSigner,
		"gmac": gmacSigner,
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	msg := testPDU(7, []byte("round trip payload"))

	for name, s := range signers(t) {
		t.Run(name, func(t *testing.T) {
			sig, err := s.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if len(sig) != types.SignatureSize {
				t.Fatalf("signature size %d, want %d", len(sig), types.SignatureSize)
			}

			ok, err := s.Verify(msg, sig)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if !ok {
				t.Error("signature should verify against the message it was computed over")
			}
		})
	}
}

func TestVerifySensitivity(t *testing.T) {
	msg := testPDU(9, []byte("sensitivity payload"))

	for name, s := range signers(t) {
		t.Run(name, func(t *testing.T) {
			sig, err := s.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			// Flip one bit in the body.
			tampered := make([]byte, len(msg))
			copy(tampered, msg)
			tampered[len(tampered)-1] ^= 0x01
			if ok, _ := s.Verify(tampered, sig); ok {
				t.Error("flipped message bit should fail verification")
			}

			// Flip one bit in the claimed signature.
			badSig := make([]byte, len(sig))
			copy(badSig, sig)
			badSig[0] ^= 0x01
			if ok, _ := s.Verify(msg, badSig); ok {
				t.Error("flipped signature bit should fail verification")
			}
		})
	}
}

func TestHMACSignerMatchesDirectComputation(t *testing.T) {
	key := testKey()
	s, err := NewHMACSigner(key)
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	msg := testPDU(1, []byte("direct computation check"))
	sig, err := s.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(msg) // signature field is already zero in testPDU
	want := mac.Sum(nil)[:types.SignatureSize]

	if !bytes.Equal(sig, want) {
		t.Errorf("signature mismatch:\n  got:  %x\n  want: %x", sig, want)
	}
}

func TestHMACSignerIgnoresEmbeddedSignature(t *testing.T) {
	s, err := NewHMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	msg := testPDU(1, []byte("payload"))
	sigClean, _ := s.Sign(msg)

	// Garbage in the signature field must not change the computation.
	dirty := make([]byte, len(msg))
	copy(dirty, msg)
	for i := types.SignatureOffset; i < types.SignatureOffset+types.SignatureSize; i++ {
		dirty[i] = 0xAA
	}
	sigDirty, _ := s.Sign(dirty)

	if !bytes.Equal(sigClean, sigDirty) {
		t.Error("signature field content leaked into the MAC input")
	}
}

func TestGMACNonceFollowsMessageID(t *testing.T) {
	s, err := NewGMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewGMACSigner: %v", err)
	}

	body := []byte("same payload")
	sig1, _ := s.Sign(testPDU(1, body))
	sig2, _ := s.Sign(testPDU(2, body))

	// Different message IDs mean different nonces even though the rest of
	// the payload differs only in the ID bytes themselves; the tags must
	// not collide.
	if bytes.Equal(sig1, sig2) {
		t.Error("distinct message IDs produced identical GMAC tags")
	}
}

func TestLegacySignerMatchesDirectComputation(t *testing.T) {
	var key ntlm.SessionKey
	for i := range key {
		key[i] = byte(i)
	}

	s, err := NewLegacySigner(crypto.NewProvider(), key)
	if err != nil {
		t.Fatalf("NewLegacySigner: %v", err)
	}

	msg := []byte("legacy smb1 message bytes")
	sig, err := s.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != LegacySignatureSize {
		t.Fatalf("signature size %d, want %d", len(sig), LegacySignatureSize)
	}

	h := md5.New()
	h.Write(key[:])
	h.Write(msg)
	want := h.Sum(nil)[:LegacySignatureSize]
	if !bytes.Equal(sig, want) {
		t.Errorf("signature mismatch:\n  got:  %x\n  want: %x", sig, want)
	}

	ok, err := s.Verify(msg, sig)
	if err != nil || !ok {
		t.Errorf("Verify: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Verify(append([]byte{0x00}, msg...), sig); ok {
		t.Error("modified message should fail legacy verification")
	}
}

func TestNewSignerDispatch(t *testing.T) {
	tests := []struct {
		name    string
		dialect types.Dialect
		alg     types.SigningAlgorithm
		want    any
		wantErr bool
	}{
		{"smb202", types.Dialect0202, types.SigningHMACSHA256, &HMACSigner{}, false},
		{"smb21", types.Dialect0210, types.SigningHMACSHA256, &HMACSigner{}, false},
		{"smb30", types.Dialect0300, types.SigningAESCMAC, &CMACSigner{}, false},
		{"smb302", types.Dialect0302, types.SigningAESCMAC, &CMACSigner{}, false},
		{"smb311-cmac", types.Dialect0311, types.SigningAESCMAC, &CMACSigner{}, false},
		{"smb311-gmac", types.Dialect0311, types.SigningAESGMAC, &GMACSigner{}, false},
		{"smb311-unknown", types.Dialect0311, types.SigningAlgorithm(0xFFFF), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSigner(tt.dialect, tt.alg, testKey())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSigner: %v", err)
			}
			switch tt.want.(type) {
			case *HMACSigner:
				if _, ok := s.(*HMACSigner); !ok {
					t.Errorf("got %T, want *HMACSigner", s)
				}
			case *CMACSigner:
				if _, ok := s.(*CMACSigner); !ok {
					t.Errorf("got %T, want *CMACSigner", s)
				}
			case *GMACSigner:
				if _, ok := s.(*GMACSigner); !ok {
					t.Errorf("got %T, want *GMACSigner", s)
				}
			}
		})
	}
}

func TestSignMessageInPlace(t *testing.T) {
	s, err := NewCMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewCMACSigner: %v", err)
	}

	msg := testPDU(42, []byte("in place signing"))
	if err := SignMessage(s, msg); err != nil {
		t.Fatalf("SignMessage: %v", err)
	}

	// Signed flag must be set.
	if msg[types.FlagsOffset]&byte(types.FlagSigned) == 0 {
		t.Error("SMB2_FLAGS_SIGNED not set")
	}

	// Embedded signature must verify.
	ok, err := VerifyMessage(s, msg)
	if err != nil {
		t.Fatalf("VerifyMessage: %v", err)
	}
	if !ok {
		t.Error("in-place signed message should verify")
	}

	// Tampering after signing must be detected.
	msg[len(msg)-1] ^= 0x80
	if ok, _ := VerifyMessage(s, msg); ok {
		t.Error("tampered message should fail verification")
	}
}

func TestSignMessageTooShort(t *testing.T) {
	s, err := NewHMACSigner(testKey())
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}
	if err := SignMessage(s, make([]byte, 10)); err == nil {
		t.Error("signing a sub-header message should fail")
	}
}

func TestGenerationForDialect(t *testing.T) {
	tests := []struct {
		dialect types.Dialect
		want    Generation
	}{
		{types.Dialect0202, GenerationHMAC},
		{types.Dialect0210, GenerationHMAC},
		{types.Dialect0300, GenerationAES},
		{types.Dialect0302, GenerationAES},
		{types.Dialect0311, GenerationAES},
	}
	for _, tt := range tests {
		if got := GenerationForDialect(tt.dialect); got != tt.want {
			t.Errorf("GenerationForDialect(%s) = %s, want %s", tt.dialect, got, tt.want)
		}
	}
}
