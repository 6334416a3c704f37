package ntlm

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// EncodeUTF16LE converts s to UTF-16 little-endian bytes without a
// terminator, the string form NTLM carries on the wire.
func EncodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b
}

// EncodeUTF16LEUpper uppercases s before encoding. The NTLMv2 hash input
// uppercases the user name only.
func EncodeUTF16LEUpper(s string) []byte {
	return EncodeUTF16LE(strings.ToUpper(s))
}

// DecodeUTF16LE converts UTF-16 little-endian bytes back to a string.
// An odd byte count means the field was corrupted or mis-addressed.
func DecodeUTF16LE(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("%w: UTF-16 field has odd length %d", ErrMalformedBlob, len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}
