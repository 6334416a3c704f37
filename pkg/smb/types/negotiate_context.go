package types

import (
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/smbenc"
)

// Negotiate context type IDs for SMB 3.1.1.
//
// [MS-SMB2] Section 2.2.3.1
const (
	NegCtxPreauthIntegrity uint16 = 0x0001
	NegCtxEncryption       uint16 = 0x0002
	NegCtxSigning          uint16 = 0x0008
)

// NegotiateContext is one SMB2 negotiate context from an SMB 3.1.1
// NEGOTIATE request or response.
type NegotiateContext struct {
	// ContextType identifies the context (NegCtx* constants).
	ContextType uint16

	// Data is the context-specific payload.
	Data []byte
}

// PreauthIntegrityCaps is SMB2_PREAUTH_INTEGRITY_CAPABILITIES: the hash
// algorithms and salt for the preauth integrity chain.
//
// [MS-SMB2] Section 2.2.3.1.1
type PreauthIntegrityCaps struct {
	HashAlgorithms []HashAlgorithm
	Salt           []byte
}

// Encode serializes the capabilities.
//
// Wire format:
//
//	HashAlgorithmCount (2 bytes)
//	SaltLength         (2 bytes)
//	HashAlgorithms     (HashAlgorithmCount * 2 bytes)
//	Salt               (SaltLength bytes)
func (p PreauthIntegrityCaps) Encode() []byte {
	w := smbenc.NewWriter(4 + len(p.HashAlgorithms)*2 + len(p.Salt))
	w.WriteUint16(uint16(len(p.HashAlgorithms)))
	w.WriteUint16(uint16(len(p.Salt)))
	for _, alg := range p.HashAlgorithms {
		w.WriteUint16(uint16(alg))
	}
	w.WriteBytes(p.Salt)
	return w.Bytes()
}

// DecodePreauthIntegrityCaps parses SMB2_PREAUTH_INTEGRITY_CAPABILITIES.
func DecodePreauthIntegrityCaps(data []byte) (PreauthIntegrityCaps, error) {
	r := smbenc.NewReader(data)
	algCount := r.ReadUint16()
	saltLen := r.ReadUint16()
	if r.Err() != nil {
		return PreauthIntegrityCaps{}, fmt.Errorf("preauth integrity caps: %w", r.Err())
	}

	algs := make([]HashAlgorithm, algCount)
	for i := range algs {
		algs[i] = HashAlgorithm(r.ReadUint16())
	}
	salt := r.ReadBytes(int(saltLen))
	if r.Err() != nil {
		return PreauthIntegrityCaps{}, fmt.Errorf("preauth integrity caps: %w", r.Err())
	}

	return PreauthIntegrityCaps{HashAlgorithms: algs, Salt: salt}, nil
}

// EncryptionCaps is SMB2_ENCRYPTION_CAPABILITIES: the cipher IDs the peer
// supports, in preference order.
//
// [MS-SMB2] Section 2.2.3.1.2
type EncryptionCaps struct {
	Ciphers []Cipher
}

// Encode serializes the capabilities.
//
// Wire format:
//
//	CipherCount (2 bytes)
//	Ciphers     (CipherCount * 2 bytes)
func (e EncryptionCaps) Encode() []byte {
	w := smbenc.NewWriter(2 + len(e.Ciphers)*2)
	w.WriteUint16(uint16(len(e.Ciphers)))
	for _, c := range e.Ciphers {
		w.WriteUint16(uint16(c))
	}
	return w.Bytes()
}

// DecodeEncryptionCaps parses SMB2_ENCRYPTION_CAPABILITIES.
func DecodeEncryptionCaps(data []byte) (EncryptionCaps, error) {
	r := smbenc.NewReader(data)
	count := r.ReadUint16()
	if r.Err() != nil {
		return EncryptionCaps{}, fmt.Errorf("encryption caps: %w", r.Err())
	}

	ciphers := make([]Cipher, count)
	for i := range ciphers {
		ciphers[i] = Cipher(r.ReadUint16())
	}
	if r.Err() != nil {
		return EncryptionCaps{}, fmt.Errorf("encryption caps: %w", r.Err())
	}

	return EncryptionCaps{Ciphers: ciphers}, nil
}

// SigningCaps is SMB2_SIGNING_CAPABILITIES: the signing algorithm IDs the
// peer supports, in preference order.
//
// [MS-SMB2] Section 2.2.3.1.7
type SigningCaps struct {
	Algorithms []SigningAlgorithm
}

// Encode serializes the capabilities.
//
// Wire format:
//
//	SigningAlgorithmCount (2 bytes)
//	SigningAlgorithms     (SigningAlgorithmCount * 2 bytes)
func (s SigningCaps) Encode() []byte {
	w := smbenc.NewWriter(2 + len(s.Algorithms)*2)
	w.WriteUint16(uint16(len(s.Algorithms)))
	for _, a := range s.Algorithms {
		w.WriteUint16(uint16(a))
	}
	return w.Bytes()
}

// DecodeSigningCaps parses SMB2_SIGNING_CAPABILITIES.
func DecodeSigningCaps(data []byte) (SigningCaps, error) {
	r := smbenc.NewReader(data)
	count := r.ReadUint16()
	if r.Err() != nil {
		return SigningCaps{}, fmt.Errorf("signing caps: %w", r.Err())
	}

	algs := make([]SigningAlgorithm, count)
	for i := range algs {
		algs[i] = SigningAlgorithm(r.ReadUint16())
	}
	if r.Err() != nil {
		return SigningCaps{}, fmt.Errorf("signing caps: %w", r.Err())
	}

	return SigningCaps{Algorithms: algs}, nil
}

// ParseNegotiateContextList parses count negotiate contexts from data.
// Entries are 8-byte aligned relative to the start of the list; the final
// entry carries no trailing padding.
func ParseNegotiateContextList(data []byte, count int) ([]NegotiateContext, error) {
	if count == 0 {
		return nil, nil
	}

	contexts := make([]NegotiateContext, 0, count)
	offset := 0

	for i := range count {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("negotiate context %d: %w: header at offset %d",
				i, smbenc.ErrShortBuffer, offset)
		}

		r := smbenc.NewReader(data[offset:])
		contextType := r.ReadUint16()
		dataLength := int(r.ReadUint16())
		r.Skip(4) // Reserved

		if offset+8+dataLength > len(data) {
			return nil, fmt.Errorf("negotiate context %d: %w: payload of %d bytes at offset %d",
				i, smbenc.ErrShortBuffer, dataLength, offset+8)
		}
		payload := r.ReadBytes(dataLength)
		if r.Err() != nil {
			return nil, fmt.Errorf("negotiate context %d: %w", i, r.Err())
		}

		contexts = append(contexts, NegotiateContext{
			ContextType: contextType,
			Data:        payload,
		})

		offset += 8 + dataLength
		if i < count-1 && offset%8 != 0 {
			offset += 8 - offset%8
		}
	}

	return contexts, nil
}

// EncodeNegotiateContextList serializes contexts with 8-byte alignment
// between entries.
func EncodeNegotiateContextList(contexts []NegotiateContext) []byte {
	w := smbenc.NewWriter(len(contexts) * 16)
	for i, ctx := range contexts {
		w.WriteUint16(ctx.ContextType)
		w.WriteUint16(uint16(len(ctx.Data)))
		w.WriteZeros(4) // Reserved
		w.WriteBytes(ctx.Data)
		if i < len(contexts)-1 {
			w.Pad(8)
		}
	}
	return w.Bytes()
}
