package sarc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// AlignmentPolicy decides the minimum byte boundary an entry's data
// must start on. The decision table is keyed by file extension and is
// dictated by the consuming engine, not derivable from the format
// itself: a wrong value produces an archive that parses cleanly but
// loads incorrectly. When the extension has no rule the policy falls
// back to sniffing the data for known embedded-format signatures.
type AlignmentPolicy struct {
	rules  map[string]int
	min    int
	legacy bool
	order  binary.ByteOrder
}

// NewAlignmentPolicy returns a policy seeded with the engine's default
// extension table for the given target byte order. The bffnt rule is
// the one order-dependent row: 0x2000 on big-endian targets, 0x1000 on
// little-endian ones.
func NewAlignmentPolicy(order binary.ByteOrder) *AlignmentPolicy {
	p := &AlignmentPolicy{
		rules: map[string]int{
			"ksky":   8,
			"bksky":  8,
			"gtx":    0x2000,
			"sharc":  0x1000,
			"sharcb": 0x1000,
			"baglmf": 0x80,
		},
		min:   MinAlignment,
		order: order,
	}
	if order == binary.BigEndian {
		p.rules["bffnt"] = 0x2000
	} else {
		p.rules["bffnt"] = 0x1000
	}
	return p
}

// AddRule adds or replaces the alignment requirement for a file
// extension (without the leading dot). Set the alignment to 1 to
// revert an extension to the default behavior.
func (p *AlignmentPolicy) AddRule(ext string, alignment int) error {
	if !isValidAlignment(alignment) {
		return fmt.Errorf("%w: %d for extension %q", ErrInvalidAlignment, alignment, ext)
	}
	p.rules[ext] = alignment
	return nil
}

// SetMinimum sets the floor applied to every resolved alignment.
func (p *AlignmentPolicy) SetMinimum(alignment int) error {
	if !isValidAlignment(alignment) {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	p.min = alignment
	return nil
}

// SetLegacy toggles legacy mode, for games without a resource system
// that imposes its own load-time placement. Legacy mode forces nested
// archives onto 0x2000 boundaries.
func (p *AlignmentPolicy) SetLegacy(v bool) {
	p.legacy = v
}

// Resolve returns the alignment required before data for an entry
// named name. The result is always a power of two and at least the
// configured minimum.
func (p *AlignmentPolicy) Resolve(name string, data []byte) int {
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}

	alignment := p.min
	requirement, ruled := p.rules[ext]
	if ruled {
		alignment = lcm(alignment, requirement)
	}
	if p.legacy && IsSARC(data) {
		alignment = lcm(alignment, 0x2000)
	}
	// Extensions the table already covers are trusted; everything else
	// may be an embedded binary that carries its own requirement.
	if p.legacy || !ruled {
		alignment = lcm(alignment, binaryFileAlignment(data))
		if p.order == binary.BigEndian {
			alignment = lcm(alignment, bflimAlignment(data))
		}
	}
	return alignment
}

// IsSARC reports whether data looks like a SARC archive, either raw or
// wrapped in a Yaz0 compression container.
func IsSARC(data []byte) bool {
	if len(data) < 0x20 {
		return false
	}
	if string(data[0:4]) == "SARC" {
		return true
	}
	return string(data[0:4]) == "Yaz0" && string(data[0x11:0x15]) == "SARC"
}

// binaryFileAlignment sniffs the standard Nintendo binary-file header:
// a byte-order mark at 0x0C, an alignment exponent at 0x0E, and the
// total file size at 0x1C. The exponent is honored only when the
// declared size matches the blob, which filters out false positives.
func binaryFileAlignment(data []byte) int {
	if len(data) <= 0x20 {
		return 1
	}
	var fileSize uint32
	switch binary.BigEndian.Uint16(data[0x0C:0x0E]) {
	case 0xFEFF:
		fileSize = binary.BigEndian.Uint32(data[0x1C:0x20])
	case 0xFFFE:
		fileSize = binary.LittleEndian.Uint32(data[0x1C:0x20])
	default:
		return 1
	}
	if int(fileSize) != len(data) {
		return 1
	}
	exp := data[0x0E]
	if exp > 30 {
		return 1
	}
	return 1 << exp
}

// bflimAlignment sniffs the Cafe BFLIM texture footer: a "FLIM" tag
// 0x28 bytes from the end and a big-endian u16 alignment 8 bytes from
// the end. BFLIM data must keep that placement, so the stored value
// wins over the extension default.
func bflimAlignment(data []byte) int {
	if len(data) <= 0x28 || string(data[len(data)-0x28:len(data)-0x24]) != "FLIM" {
		return 1
	}
	alignment := int(binary.BigEndian.Uint16(data[len(data)-8 : len(data)-6]))
	if !isValidAlignment(alignment) {
		return 1
	}
	return alignment
}

func isValidAlignment(alignment int) bool {
	return alignment > 0 && alignment&(alignment-1) == 0
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
