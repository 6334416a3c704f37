package smbenc

import "encoding/binary"

// Writer appends little-endian fields to a growing buffer. Writes cannot
// fail; offsets into the output are computed by the caller before writing,
// so no backpatching is needed.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(data []byte) {
	w.buf = append(w.buf, data...)
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// Pad appends zero bytes up to the next alignment boundary. Negotiate
// context lists align each entry to 8 bytes.
func (w *Writer) Pad(alignment int) {
	if alignment <= 0 {
		return
	}
	if rem := len(w.buf) % alignment; rem != 0 {
		w.buf = append(w.buf, make([]byte, alignment-rem)...)
	}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}
