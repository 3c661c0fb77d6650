package sarc_test

import (
	"testing"

	"github.com/ossyrian/sarcpack/internal/sarc"
)

func TestHashName_GoldenValues(t *testing.T) {
	tests := []struct {
		name       string
		multiplier uint32
		input      string
		want       uint32
	}{
		{
			name:       "empty string",
			multiplier: sarc.DefaultHashMultiplier,
			input:      "",
			want:       0,
		},
		{
			name:       "single byte is the byte value",
			multiplier: sarc.DefaultHashMultiplier,
			input:      "a",
			want:       97,
		},
		{
			name:       "a.txt",
			multiplier: sarc.DefaultHashMultiplier,
			input:      "a.txt",
			want:       0x5C897AA7,
		},
		{
			name:       "b.bin",
			multiplier: sarc.DefaultHashMultiplier,
			input:      "b.bin",
			want:       0x62BA7D65,
		},
		{
			name:       "multiplier one sums bytes",
			multiplier: 1,
			input:      "abc",
			want:       97 + 98 + 99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sarc.HashName(tt.multiplier, tt.input); got != tt.want {
				t.Errorf("HashName(%#x, %q) = %#08x, want %#08x",
					tt.multiplier, tt.input, got, tt.want)
			}
		})
	}
}

func TestHashName_Deterministic(t *testing.T) {
	first := sarc.HashName(sarc.DefaultHashMultiplier, "Model/DgnMrgPrt.sbfres")
	second := sarc.HashName(sarc.DefaultHashMultiplier, "Model/DgnMrgPrt.sbfres")
	if first != second {
		t.Errorf("hash is not stable: %#08x != %#08x", first, second)
	}
}

func TestHashName_Collision(t *testing.T) {
	// Distinct two-byte names with the same hash under the default
	// multiplier: 97*0x65 + 98 == 96*0x65 + 199.
	a, b := "ab", "\x60\xc7"
	if a == b {
		t.Fatal("collision pair must be distinct strings")
	}
	ha := sarc.HashName(sarc.DefaultHashMultiplier, a)
	hb := sarc.HashName(sarc.DefaultHashMultiplier, b)
	if ha != hb {
		t.Errorf("expected colliding hashes, got %#08x and %#08x", ha, hb)
	}
}
