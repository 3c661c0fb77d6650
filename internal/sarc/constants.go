package sarc

import "errors"

// Magic numbers identifying the three sections of a SARC archive.
var (
	Magic    = [4]byte{'S', 'A', 'R', 'C'}
	FatMagic = [4]byte{'S', 'F', 'A', 'T'}
	FntMagic = [4]byte{'S', 'F', 'N', 'T'}
)

const (
	// HeaderSize is the size of the outer SARC header.
	HeaderSize = 0x14
	// FatHeaderSize is the size of the SFAT section header.
	FatHeaderSize = 0x0C
	// FatEntrySize is the size of one SFAT index record.
	FatEntrySize = 0x10
	// FntHeaderSize is the size of the SFNT section header.
	FntHeaderSize = 0x08

	// Version is the only supported archive version.
	Version = 0x0100

	// BOM is the byte-order sentinel stored at offset 6 of the header.
	// It decodes to this value only under the archive's own byte order;
	// reading the swapped pattern means the opposite endianness.
	BOM = 0xFEFF

	// DefaultHashMultiplier is the multiplier of the SFAT name hash.
	// It is stored in the SFAT header for forward compatibility, but
	// every known producer uses 0x65.
	DefaultHashMultiplier = 0x65

	// MinAlignment is the structural minimum data alignment.
	MinAlignment = 4

	// NameOffsetFlag marks an index record as having a name-table
	// entry. The low 24 bits hold the name offset in 4-byte units.
	NameOffsetFlag = 1 << 24

	// maxFileCount guards the SFAT count field: the top two bits are
	// reserved and must be clear in a well-formed archive.
	maxFileCount = 1 << 14
)

// Errors reported by the reader and writer. Call sites wrap these with
// context via fmt.Errorf and %w, so match with errors.Is.
var (
	// ErrInvalidMagic means a section magic or the byte-order mark did
	// not match any valid encoding.
	ErrInvalidMagic = errors.New("invalid magic")

	// ErrTruncated means the buffer is shorter than a header field,
	// section, or the declared total size requires.
	ErrTruncated = errors.New("truncated archive")

	// ErrUnsupportedVersion means the header version field is not Version.
	ErrUnsupportedVersion = errors.New("unsupported archive version")

	// ErrOffsetOutOfRange means a section or data offset points outside
	// the buffer or contradicts the header.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrInvalidNameOffset means an index record's name-table offset
	// points outside the name table, or the name is unterminated.
	ErrInvalidNameOffset = errors.New("invalid name table offset")

	// ErrDuplicateName means the same name was added to a writer twice.
	ErrDuplicateName = errors.New("duplicate entry name")

	// ErrEmptyName means an entry was added with an empty name.
	ErrEmptyName = errors.New("empty entry name")

	// ErrEntryTooLarge means an entry would overflow the u32 offset
	// fields of the index.
	ErrEntryTooLarge = errors.New("entry exceeds addressable archive size")

	// ErrInvalidAlignment means an alignment value is zero or not a
	// power of two.
	ErrInvalidAlignment = errors.New("alignment is not a power of two")
)
