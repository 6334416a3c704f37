package ntlm

import (
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/smbenc"
)

// AvPair is one (id, value) attribute from a target-info list.
//
// [MS-NLMP] Section 2.2.2.1
type AvPair struct {
	ID    AvID
	Value []byte
}

// encodeTargetInfo serializes pairs and appends the mandatory AvIDEOL
// terminator. Callers never include the terminator themselves.
func encodeTargetInfo(pairs []AvPair) []byte {
	size := 4
	for _, p := range pairs {
		size += 4 + len(p.Value)
	}

	w := smbenc.NewWriter(size)
	for _, p := range pairs {
		w.WriteUint16(uint16(p.ID))
		w.WriteUint16(uint16(len(p.Value)))
		w.WriteBytes(p.Value)
	}
	w.WriteUint16(uint16(AvIDEOL))
	w.WriteUint16(0)
	return w.Bytes()
}

// ParseTargetInfo decodes a target-info list, requiring the AvIDEOL
// terminator with zero length. Pairs after the terminator are ignored,
// matching how clients process the list.
func ParseTargetInfo(data []byte) ([]AvPair, error) {
	r := smbenc.NewReader(data)
	var pairs []AvPair

	for {
		id := AvID(r.ReadUint16())
		length := r.ReadUint16()
		if r.Err() != nil {
			return nil, fmt.Errorf("%w: target info truncated before terminator: %v",
				ErrMalformedBlob, r.Err())
		}
		if id == AvIDEOL {
			if length != 0 {
				return nil, fmt.Errorf("%w: target info terminator has length %d",
					ErrMalformedBlob, length)
			}
			return pairs, nil
		}

		value := r.ReadBytes(int(length))
		if r.Err() != nil {
			return nil, fmt.Errorf("%w: target info value truncated: %v",
				ErrMalformedBlob, r.Err())
		}
		pairs = append(pairs, AvPair{ID: id, Value: value})
	}
}
