package sarc_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ossyrian/sarcpack/internal/sarc"
)

func TestAlignmentPolicy_ExtensionTable(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		file  string
		want  int
	}{
		{"unknown extension uses minimum", binary.LittleEndian, "foo.txt", 4},
		{"no extension uses minimum", binary.LittleEndian, "README", 4},
		{"ksky", binary.LittleEndian, "sky.ksky", 8},
		{"bksky", binary.LittleEndian, "sky.bksky", 8},
		{"gtx", binary.BigEndian, "texture.gtx", 0x2000},
		{"sharc", binary.LittleEndian, "shaders.sharc", 0x1000},
		{"sharcb", binary.LittleEndian, "shaders.sharcb", 0x1000},
		{"baglmf", binary.LittleEndian, "env.baglmf", 0x80},
		{"bffnt little endian", binary.LittleEndian, "font.bffnt", 0x1000},
		{"bffnt big endian", binary.BigEndian, "font.bffnt", 0x2000},
		{"extension is last dot segment", binary.LittleEndian, "a.b.ksky", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sarc.NewAlignmentPolicy(tt.order)
			if got := p.Resolve(tt.file, nil); got != tt.want {
				t.Errorf("Resolve(%q) = %d, want %d", tt.file, got, tt.want)
			}
		})
	}
}

func TestAlignmentPolicy_AddRule(t *testing.T) {
	p := sarc.NewAlignmentPolicy(binary.LittleEndian)

	if err := p.AddRule("bgparamlist", 0x100); err != nil {
		t.Fatalf("AddRule() failed: %v", err)
	}
	if got := p.Resolve("actor.bgparamlist", nil); got != 0x100 {
		t.Errorf("Resolve() = %d, want 0x100", got)
	}

	for _, bad := range []int{0, 3, 6, -8} {
		if err := p.AddRule("x", bad); !errors.Is(err, sarc.ErrInvalidAlignment) {
			t.Errorf("AddRule(%d) error = %v, want ErrInvalidAlignment", bad, err)
		}
	}
}

func TestAlignmentPolicy_Minimum(t *testing.T) {
	p := sarc.NewAlignmentPolicy(binary.LittleEndian)
	if err := p.SetMinimum(0x20); err != nil {
		t.Fatalf("SetMinimum() failed: %v", err)
	}
	if got := p.Resolve("foo.txt", nil); got != 0x20 {
		t.Errorf("Resolve() with minimum 0x20 = %d, want 0x20", got)
	}
	// A larger table rule still wins over the floor.
	if got := p.Resolve("env.baglmf", nil); got != 0x80 {
		t.Errorf("Resolve(baglmf) = %d, want 0x80", got)
	}

	if err := p.SetMinimum(5); !errors.Is(err, sarc.ErrInvalidAlignment) {
		t.Errorf("SetMinimum(5) error = %v, want ErrInvalidAlignment", err)
	}
}

// sarcBlob builds a minimal buffer that IsSARC recognizes.
func sarcBlob() []byte {
	blob := make([]byte, 0x40)
	copy(blob, "SARC")
	return blob
}

func TestIsSARC(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"raw SARC", sarcBlob(), true},
		{"too short", []byte("SARC"), false},
		{"other magic", make([]byte, 0x40), false},
		{
			name: "Yaz0 wrapped SARC",
			data: func() []byte {
				blob := make([]byte, 0x40)
				copy(blob, "Yaz0")
				copy(blob[0x11:], "SARC")
				return blob
			}(),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sarc.IsSARC(tt.data); got != tt.want {
				t.Errorf("IsSARC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignmentPolicy_LegacyNestedArchive(t *testing.T) {
	blob := sarcBlob()

	p := sarc.NewAlignmentPolicy(binary.LittleEndian)
	if got := p.Resolve("nested.pack", blob); got != 4 {
		t.Errorf("Resolve() without legacy mode = %d, want 4", got)
	}

	p.SetLegacy(true)
	if got := p.Resolve("nested.pack", blob); got != 0x2000 {
		t.Errorf("Resolve() in legacy mode = %d, want 0x2000", got)
	}
}

func TestAlignmentPolicy_BinaryHeaderSniff(t *testing.T) {
	// Standard binary-file header: big-endian order mark at 0x0C, the
	// alignment exponent at 0x0E, total size at 0x1C.
	blob := make([]byte, 0x30)
	binary.BigEndian.PutUint16(blob[0x0C:], 0xFEFF)
	blob[0x0E] = 4 // alignment 16
	binary.BigEndian.PutUint32(blob[0x1C:], uint32(len(blob)))

	p := sarc.NewAlignmentPolicy(binary.LittleEndian)
	if got := p.Resolve("model.bin", blob); got != 16 {
		t.Errorf("Resolve() = %d, want sniffed alignment 16", got)
	}

	// A size mismatch disqualifies the sniff.
	binary.BigEndian.PutUint32(blob[0x1C:], uint32(len(blob)+1))
	if got := p.Resolve("model.bin", blob); got != 4 {
		t.Errorf("Resolve() with size mismatch = %d, want 4", got)
	}
}

func TestAlignmentPolicy_BFLIMSniff(t *testing.T) {
	blob := make([]byte, 0x100)
	copy(blob[len(blob)-0x28:], "FLIM")
	binary.BigEndian.PutUint16(blob[len(blob)-8:], 0x80)

	be := sarc.NewAlignmentPolicy(binary.BigEndian)
	if got := be.Resolve("texture.bflim", blob); got != 0x80 {
		t.Errorf("big-endian Resolve() = %d, want 0x80", got)
	}

	// The footer is a Cafe construct; little-endian targets ignore it.
	le := sarc.NewAlignmentPolicy(binary.LittleEndian)
	if got := le.Resolve("texture.bflim", blob); got != 4 {
		t.Errorf("little-endian Resolve() = %d, want 4", got)
	}
}

func TestAlignmentPolicy_AlwaysPowerOfTwo(t *testing.T) {
	// Hostile footer alignment value must not leak through.
	blob := make([]byte, 0x100)
	copy(blob[len(blob)-0x28:], "FLIM")
	binary.BigEndian.PutUint16(blob[len(blob)-8:], 0x81)

	p := sarc.NewAlignmentPolicy(binary.BigEndian)
	got := p.Resolve("texture.bflim", blob)
	if got <= 0 || got&(got-1) != 0 {
		t.Errorf("Resolve() = %d, want a power of two", got)
	}
}
