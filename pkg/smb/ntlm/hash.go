package ntlm

import (
	"crypto/hmac"
	"crypto/md5"

	"golang.org/x/crypto/md4" //nolint:staticcheck // MD4 is required for NTLM protocol compatibility
)

// ComputeNTHash derives the NT one-way function of a password:
// MD4(UTF16LE(password)). Identity stores persist this value instead of the
// cleartext password; it is all the server ever needs for NTLM.
//
// [MS-NLMP] Section 3.3.1
func ComputeNTHash(password string) [NTHashSize]byte {
	h := md4.New()
	h.Write(EncodeUTF16LE(password))
	var out [NTHashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ComputeNTLMv2Hash derives the per-user NTLMv2 hash:
// HMAC-MD5(ntHash, UTF16LE(UPPERCASE(user)) ++ UTF16LE(domain)).
//
// The username is case-folded before encoding; the domain is used exactly
// as supplied. Windows clients compute the same value with the domain they
// sent in the AUTHENTICATE message, so the server must try the identical
// spelling.
//
// [MS-NLMP] Section 3.3.2
func ComputeNTLMv2Hash(ntHash [NTHashSize]byte, user, domain string) [NTLMv2HashSize]byte {
	mac := hmac.New(md5.New, ntHash[:])
	mac.Write(EncodeUTF16LEUpper(user))
	mac.Write(EncodeUTF16LE(domain))
	var out [NTLMv2HashSize]byte
	copy(out[:], mac.Sum(nil))
	return out
}
