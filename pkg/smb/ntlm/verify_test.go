package ntlm

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // NTLM reference computation
	"encoding/hex"
	"errors"
	"testing"

	"github.com/marmos91/smbsec/pkg/smb/crypto"
)

// buildV2Response assembles an NtChallengeResponse the way a client would:
// the NTProofStr followed by the blob the proof was computed over.
func buildV2Response(ntHash [NTHashSize]byte, user, domain string, challenge [ChallengeSize]byte, blob []byte) []byte {
	v2Hash := ComputeNTLMv2Hash(ntHash, user, domain)
	mac := hmac.New(md5.New, v2Hash[:])
	mac.Write(challenge[:])
	mac.Write(blob)
	proof := mac.Sum(nil)
	return append(proof, blob...)
}

func TestValidateNTLMv2Response(t *testing.T) {
	ntHash := ComputeNTHash("s3cret-password")
	challenge := [ChallengeSize]byte{1, 2, 3, 4, 5, 6, 7, 8}
	blob := bytes.Repeat([]byte{0xAB}, 32)

	t.Run("ValidResponse", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		response := buildV2Response(ntHash, "alice", "WORKGROUP", challenge, blob)

		key, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, response)
		if err != nil {
			t.Fatalf("ValidateNTLMv2Response: %v", err)
		}

		// The session key core is HMAC-MD5(v2hash, proof).
		v2Hash := ComputeNTLMv2Hash(ntHash, "alice", "WORKGROUP")
		mac := hmac.New(md5.New, v2Hash[:])
		mac.Write(response[:ProofSize])
		expected := mac.Sum(nil)
		if !bytes.Equal(key[:SMB1SessionKeySize], expected) {
			t.Errorf("session key core = %x, expected %x", key[:SMB1SessionKeySize], expected)
		}
	})

	t.Run("UsernameCaseFolded", func(t *testing.T) {
		// The v2 hash upper-cases the username, so a response built for
		// "ALICE" verifies against the account name "alice".
		v := NewVerifier(crypto.NewProvider())
		response := buildV2Response(ntHash, "ALICE", "WORKGROUP", challenge, blob)

		if _, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, response); err != nil {
			t.Errorf("case-folded username should verify: %v", err)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		otherHash := ComputeNTHash("different-password")
		response := buildV2Response(otherHash, "alice", "WORKGROUP", challenge, blob)

		_, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, response)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("expected ErrAuthenticationFailed, got %v", err)
		}
	})

	t.Run("WrongDomain", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		response := buildV2Response(ntHash, "alice", "OTHERDOMAIN", challenge, blob)

		_, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, response)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("expected ErrAuthenticationFailed, got %v", err)
		}
	})

	t.Run("TamperedBlob", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		response := buildV2Response(ntHash, "alice", "WORKGROUP", challenge, blob)
		response[len(response)-1] ^= 0xFF

		_, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, response)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("expected ErrAuthenticationFailed, got %v", err)
		}
	})

	t.Run("StaleChallenge", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		response := buildV2Response(ntHash, "alice", "WORKGROUP", challenge, blob)
		otherChallenge := [ChallengeSize]byte{8, 7, 6, 5, 4, 3, 2, 1}

		_, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", otherChallenge, response)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("expected ErrAuthenticationFailed, got %v", err)
		}
	})

	t.Run("ResponseTooShort", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		_, err := v.ValidateNTLMv2Response(ntHash, "alice", "WORKGROUP", challenge, make([]byte, NTLMv1ResponseSize-1))
		if !errors.Is(err, ErrResponseTooShort) {
			t.Errorf("expected ErrResponseTooShort, got %v", err)
		}
	})
}

func TestValidateNTLMv1Response(t *testing.T) {
	// [MS-NLMP] Section 4.2.2: NTOWFv1 of "Password" with the reference
	// server challenge.
	ntHash := ComputeNTHash("Password")
	challenge := [ChallengeSize]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	response, _ := hex.DecodeString("67c43011f30298a2ad35ece64f16331c44bdbed927841f94")

	t.Run("KnownVector", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		key, err := v.ValidateNTLMv1Response(ntHash, challenge, response)
		if err != nil {
			t.Fatalf("ValidateNTLMv1Response: %v", err)
		}

		// MD4(ntHash) in the first 16 bytes, the response in the rest.
		if !bytes.Equal(key[SMB1SessionKeySize:], response) {
			t.Errorf("session key tail = %x, expected the wire response", key[SMB1SessionKeySize:])
		}
		if bytes.Equal(key[:SMB1SessionKeySize], make([]byte, SMB1SessionKeySize)) {
			t.Error("session key core should not be all zeros")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		otherHash := ComputeNTHash("password")
		_, err := v.ValidateNTLMv1Response(otherHash, challenge, response)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Errorf("expected ErrAuthenticationFailed, got %v", err)
		}
	})

	t.Run("WrongLength", func(t *testing.T) {
		v := NewVerifier(crypto.NewProvider())
		_, err := v.ValidateNTLMv1Response(ntHash, challenge, response[:NTLMv1ResponseSize-1])
		if !errors.Is(err, ErrResponseTooShort) {
			t.Errorf("expected ErrResponseTooShort, got %v", err)
		}
	})
}
