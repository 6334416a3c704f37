// Package cmac implements the AES-CMAC message authentication code from
// RFC 4493. SMB 3.x message signing uses AES-128-CMAC, so only 128-bit keys
// are accepted.
//
// The implementation satisfies hash.Hash to support incremental writes; the
// final block is held back until Sum because it must be masked with subkey
// K1 (complete block) or padded and masked with K2 (partial block).
package cmac

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"hash"
)

// BlockSize is the AES block size in bytes; CMAC tags are one block long.
const BlockSize = 16

type cmac struct {
	block cipher.Block
	k1    [BlockSize]byte
	k2    [BlockSize]byte
	x     [BlockSize]byte // running CBC state XORed with pending input
	pos   int             // bytes of the current block absorbed into x
}

// New returns an AES-CMAC instance keyed with a 128-bit key.
func New(key []byte) (hash.Hash, error) {
	if len(key) != BlockSize {
		return nil, fmt.Errorf("cmac: key must be %d bytes, got %d", BlockSize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cmac: %w", err)
	}

	// Subkey generation per RFC 4493 Section 2.3:
	// L = AES-K(0^128); K1 = dbl(L); K2 = dbl(K1).
	var l [BlockSize]byte
	block.Encrypt(l[:], l[:])

	m := &cmac{block: block}
	m.k1 = dbl(l)
	m.k2 = dbl(m.k1)
	return m, nil
}

// dbl doubles a 128-bit value in GF(2^128) with the x^128+x^7+x^2+x+1
// reduction polynomial (left shift, conditional XOR with 0x87).
func dbl(in [BlockSize]byte) [BlockSize]byte {
	var out [BlockSize]byte
	var carry byte
	for i := BlockSize - 1; i >= 0; i-- {
		out[i] = in[i]<<1 | carry
		carry = in[i] >> 7
	}
	if carry != 0 {
		out[BlockSize-1] ^= 0x87
	}
	return out
}

// Write absorbs data into the running CBC state. A completed block is only
// encrypted once a following byte arrives, keeping the final block available
// for subkey masking in Sum.
func (m *cmac) Write(data []byte) (int, error) {
	for _, b := range data {
		if m.pos == BlockSize {
			m.block.Encrypt(m.x[:], m.x[:])
			m.pos = 0
		}
		m.x[m.pos] ^= b
		m.pos++
	}
	return len(data), nil
}

// Sum appends the 16-byte tag to b. The internal state is not modified, so
// writes may continue afterwards.
func (m *cmac) Sum(b []byte) []byte {
	var last [BlockSize]byte
	if m.pos == BlockSize {
		// Complete final block: mask with K1.
		for i := range last {
			last[i] = m.x[i] ^ m.k1[i]
		}
	} else {
		// Partial (or empty) final block: pad with 0x80 then mask with K2.
		copy(last[:], m.x[:])
		last[m.pos] ^= 0x80
		for i := range last {
			last[i] ^= m.k2[i]
		}
	}

	var tag [BlockSize]byte
	m.block.Encrypt(tag[:], last[:])
	return append(b, tag[:]...)
}

func (m *cmac) Reset() {
	m.x = [BlockSize]byte{}
	m.pos = 0
}

func (m *cmac) Size() int { return BlockSize }

func (m *cmac) BlockSize() int { return BlockSize }

// Sum128 computes the AES-CMAC tag of msg in one call.
func Sum128(key, msg []byte) ([BlockSize]byte, error) {
	var tag [BlockSize]byte
	h, err := New(key)
	if err != nil {
		return tag, err
	}
	h.Write(msg)
	copy(tag[:], h.Sum(nil))
	return tag, nil
}
