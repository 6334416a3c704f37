package ntlm

import (
	"crypto/des" //nolint:gosec // single-DES is the NTLMv1 wire algorithm
	"crypto/hmac"
	"fmt"

	"golang.org/x/crypto/md4" //nolint:staticcheck // MD4 is required for NTLM protocol compatibility
)

// ValidateNTLMv1Response verifies a legacy 24-byte NTLMv1 response and on
// success returns the 40-byte legacy session key: MD4(ntHash) in the first
// 16 bytes, the 24-byte response in the remainder. SMB1 signing consumes
// the whole buffer.
//
// The expected response is the server challenge encrypted under three DES
// keys cut from the NT hash zero-padded to 21 bytes. The session key is
// built from the server-computed response before the constant-time compare.
//
// NTLMv1 carries no server binding and is crackable offline; the
// authenticator only routes here when legacy clients are allowed.
func (v *Verifier) ValidateNTLMv1Response(ntHash [NTHashSize]byte, serverChallenge [ChallengeSize]byte, response []byte) (SessionKey, error) {
	var key SessionKey
	if len(response) != NTLMv1ResponseSize {
		return key, ErrResponseTooShort
	}

	var p21 [21]byte
	copy(p21[:], ntHash[:])

	var expected [NTLMv1ResponseSize]byte
	for i := 0; i < 3; i++ {
		if err := desEncrypt(p21[i*7:i*7+7], serverChallenge[:], expected[i*8:i*8+8]); err != nil {
			return key, fmt.Errorf("ntlm: compute v1 response: %w", err)
		}
	}

	h := md4.New()
	h.Write(ntHash[:])
	copy(key[:SMB1SessionKeySize], h.Sum(nil))
	copy(key[SMB1SessionKeySize:], expected[:])

	if !hmac.Equal(response, expected[:]) {
		return key, ErrAuthenticationFailed
	}
	return key, nil
}

// desEncrypt encrypts one 8-byte block under a 7-byte key expanded to the
// parity-carrying 8-byte DES form.
func desEncrypt(key7, src, dst []byte) error {
	block, err := des.NewCipher(createDESKey(key7)) //nolint:gosec // see ValidateNTLMv1Response
	if err != nil {
		return err
	}
	block.Encrypt(dst, src)
	return nil
}

// createDESKey spreads 7 key bytes over the high 7 bits of 8 output bytes
// and sets the low bit of each to odd parity ([FIPS46-2] key format).
func createDESKey(key7 []byte) []byte {
	key := make([]byte, 8)
	key[0] = key7[0]
	key[1] = key7[0]<<7 | key7[1]>>1
	key[2] = key7[1]<<6 | key7[2]>>2
	key[3] = key7[2]<<5 | key7[3]>>3
	key[4] = key7[3]<<4 | key7[4]>>4
	key[5] = key7[4]<<3 | key7[5]>>5
	key[6] = key7[5]<<2 | key7[6]>>6
	key[7] = key7[6] << 1
	oddParity(key)
	return key
}

// oddParity forces the low bit of each byte so the byte has odd parity.
func oddParity(bs []byte) {
	for i, b := range bs {
		needsParity := (b>>7^b>>6^b>>5^b>>4^b>>3^b>>2^b>>1)&0x01 == 0
		if needsParity {
			bs[i] = b | 0x01
		} else {
			bs[i] = b & 0xfe
		}
	}
}
