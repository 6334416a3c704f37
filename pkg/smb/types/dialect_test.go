package types

import "testing"

func TestDialectFamilies(t *testing.T) {
	tests := []struct {
		dialect    Dialect
		isSMB3     bool
		hasPreauth bool
	}{
		{Dialect0202, false, false},
		{Dialect0210, false, false},
		{Dialect0300, true, false},
		{Dialect0302, true, false},
		{Dialect0311, true, true},
		{DialectWildcard, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			if got := tt.dialect.IsSMB3(); got != tt.isSMB3 {
				t.Errorf("IsSMB3() = %v, want %v", got, tt.isSMB3)
			}
			if got := tt.dialect.HasPreauthIntegrity(); got != tt.hasPreauth {
				t.Errorf("HasPreauthIntegrity() = %v, want %v", got, tt.hasPreauth)
			}
		})
	}
}

func TestDialectValid(t *testing.T) {
	if DialectWildcard.Valid() {
		t.Error("wildcard revision must not be a negotiable dialect")
	}
	if Dialect(0x0400).Valid() {
		t.Error("unknown revision must not be a negotiable dialect")
	}
	for _, d := range []Dialect{Dialect0202, Dialect0210, Dialect0300, Dialect0302, Dialect0311} {
		if !d.Valid() {
			t.Errorf("dialect %s should be negotiable", d)
		}
	}
}

func TestCipherKeyBits(t *testing.T) {
	if CipherAES128GCM.KeyBits() != 128 {
		t.Error("AES-128-GCM should use a 128-bit key")
	}
	if CipherAES256GCM.KeyBits() != 256 {
		t.Error("AES-256-GCM should use a 256-bit key")
	}
	if CipherAES256CCM.KeyBits() != 256 {
		t.Error("AES-256-CCM should use a 256-bit key")
	}
}

func TestStatusString(t *testing.T) {
	if StatusMoreProcessingRequired.String() != "STATUS_MORE_PROCESSING_REQUIRED" {
		t.Errorf("unexpected status name: %s", StatusMoreProcessingRequired)
	}
	if Status(0xDEADBEEF).String() != "STATUS_0xDEADBEEF" {
		t.Errorf("unexpected fallback name: %s", Status(0xDEADBEEF))
	}
}
