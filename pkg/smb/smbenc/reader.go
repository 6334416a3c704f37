// Package smbenc provides sequential little-endian encoding and decoding of
// SMB wire structures with error accumulation.
//
// NTLM blobs and negotiate contexts arrive as attacker-controlled byte
// buffers. The Reader accumulates the first failure and turns every
// subsequent read into a no-op returning zero values, so decoders can be
// written as straight-line field reads with a single error check at the end.
package smbenc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a read extends past the end of the buffer.
var ErrShortBuffer = errors.New("smbenc: short buffer")

// Reader reads little-endian fields sequentially from a byte slice.
// After the first error every read returns a zero value; check Err once
// after the final field.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) require(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, n, r.pos, len(r.data)-r.pos)
		return false
	}
	return true
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() uint8 {
	if !r.require(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() uint16 {
	if !r.require(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	if !r.require(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() uint64 {
	if !r.require(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

// ReadBytes reads n bytes into a fresh slice. The copy keeps decoded
// structures independent of the network buffer they arrived in.
func (r *Reader) ReadBytes(n int) []byte {
	if !r.require(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b
}

// Skip advances past n bytes without reading them.
func (r *Reader) Skip(n int) {
	if !r.require(n) {
		return
	}
	r.pos += n
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return max(len(r.data)-r.pos, 0)
}

// Position returns the current offset from the start of the buffer.
func (r *Reader) Position() int {
	return r.pos
}

// Err returns the first error encountered, or nil.
func (r *Reader) Err() error {
	return r.err
}
