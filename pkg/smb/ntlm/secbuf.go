package ntlm

import (
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/smbenc"
)

// securityBuffer is the (length, max-length, offset) triple NTLM uses to
// describe a variable-length field stored elsewhere in the same blob.
//
// [MS-NLMP] Section 2.2.2.9 (field terminology: Len, MaxLen, BufferOffset)
type securityBuffer struct {
	Length       uint16
	MaxLength    uint16
	BufferOffset uint32
}

// readSecurityBuffer reads the 8-byte triple at the reader's position.
func readSecurityBuffer(r *smbenc.Reader) securityBuffer {
	var sb securityBuffer
	sb.Length = r.ReadUint16()
	sb.MaxLength = r.ReadUint16()
	sb.BufferOffset = r.ReadUint32()
	return sb
}

// writeSecurityBuffer writes the triple with MaxLength equal to Length.
func writeSecurityBuffer(w *smbenc.Writer, length int, offset int) {
	w.WriteUint16(uint16(length))
	w.WriteUint16(uint16(length))
	w.WriteUint32(uint32(offset))
}

// slice materializes the field this buffer points at, validating
// offset+length against the blob before any access. The offset arithmetic
// is done in 64 bits so a hostile offset near 2^32 cannot wrap.
func (sb securityBuffer) slice(blob []byte) ([]byte, error) {
	if sb.Length == 0 {
		return nil, nil
	}
	end := uint64(sb.BufferOffset) + uint64(sb.Length)
	if end > uint64(len(blob)) {
		return nil, fmt.Errorf("%w: field at offset %d length %d exceeds blob of %d bytes",
			ErrMalformedBlob, sb.BufferOffset, sb.Length, len(blob))
	}
	out := make([]byte, sb.Length)
	copy(out, blob[sb.BufferOffset:end])
	return out, nil
}

// present reports whether the client actually supplied this field.
func (sb securityBuffer) present() bool {
	return sb.Length > 0
}
