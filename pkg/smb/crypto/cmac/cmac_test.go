package cmac

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// RFC 4493 Section 4 test vectors, all under the same 128-bit key.
func TestSum128RFC4493Vectors(t *testing.T) {
	key := "2b7e151628aed2a6abf7158809cf4f3c"
	msg64 := "6bc1bee22e409f96e93d7e117393172a" +
		"ae2d8a571e03ac9c9eb76fac45af8e51" +
		"30c81c46a35ce411e5fbc1191a0a52ef" +
		"f69f2445df4f9b17ad2b417be66c3710"

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"empty", "", "bb1d6929e95937287fa37d129b756746"},
		{"one block", msg64[:32], "070a16b46b4d4144f79bdd9dd04a287c"},
		{"40 bytes", msg64[:80], "dfa66747de9ae63030ca32611497c827"},
		{"four blocks", msg64, "51f0bebf7e3b9d92fc49741779363cfe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := Sum128(mustHex(t, key), mustHex(t, tt.msg))
			if err != nil {
				t.Fatalf("Sum128 failed: %v", err)
			}
			if want := mustHex(t, tt.want); !bytes.Equal(tag[:], want) {
				t.Errorf("tag = %x, want %x", tag, want)
			}
		})
	}
}

func TestIncrementalWritesMatchOneShot(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	msg := mustHex(t, "6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e5130c81c46a35ce411")

	oneShot, err := Sum128(key, msg)
	if err != nil {
		t.Fatalf("Sum128 failed: %v", err)
	}

	h, err := New(key)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Split across block boundaries and mid-block.
	h.Write(msg[:7])
	h.Write(msg[7:16])
	h.Write(msg[16:33])
	h.Write(msg[33:])

	if got := h.Sum(nil); !bytes.Equal(got, oneShot[:]) {
		t.Errorf("incremental tag = %x, want %x", got, oneShot)
	}
}

func TestSumDoesNotMutateState(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	h, err := New(key)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.Write([]byte("partial"))

	first := h.Sum(nil)
	second := h.Sum(nil)
	if !bytes.Equal(first, second) {
		t.Error("consecutive Sum calls must return the same tag")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	h, err := New(key)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	empty := h.Sum(nil)
	h.Write([]byte("some data"))
	h.Reset()
	if got := h.Sum(nil); !bytes.Equal(got, empty) {
		t.Error("Reset should restore the empty-message state")
	}
}

func TestNewRejectsBadKeySizes(t *testing.T) {
	for _, n := range []int{0, 8, 15, 17, 24, 32} {
		if _, err := New(make([]byte, n)); err == nil {
			t.Errorf("key of %d bytes should be rejected", n)
		}
	}
}
