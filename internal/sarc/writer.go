package sarc

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

type pendingEntry struct {
	name     string
	data     []byte
	nameless bool
}

// Writer accumulates named blobs and serializes them as a SARC
// archive. Add calls must be serialized by the caller; Write itself is
// a pure function of the accumulated state and may be called more than
// once. The writer borrows entry data and never copies it before
// serialization.
type Writer struct {
	order          binary.ByteOrder
	hashMultiplier uint32
	minAlignment   int
	legacy         bool
	rules          map[string]int
	entries        []pendingEntry
	byName         map[string]int
}

// NewWriter returns a writer targeting the given byte order.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{
		order:          order,
		hashMultiplier: DefaultHashMultiplier,
		minAlignment:   MinAlignment,
		rules:          make(map[string]int),
		byName:         make(map[string]int),
	}
}

// FromArchive returns a writer seeded with the byte order, estimated
// minimum alignment, and named entries of an opened archive. Nameless
// entries are dropped because they cannot be re-addressed, and a
// duplicate name keeps its first occurrence.
func FromArchive(a *Archive) *Writer {
	w := NewWriter(a.Endian())
	w.minAlignment = a.GuessMinAlignment()
	for e := range a.Entries() {
		if !e.HasName {
			continue
		}
		w.Add(e.Name, e.Data)
	}
	return w
}

// SetEndian changes the target byte order.
func (w *Writer) SetEndian(order binary.ByteOrder) {
	w.order = order
}

// SetLegacyMode toggles the extra alignment restrictions used by games
// without a load-time resource system.
func (w *Writer) SetLegacyMode(v bool) {
	w.legacy = v
}

// SetMinAlignment sets the minimum data alignment for every entry.
func (w *Writer) SetMinAlignment(alignment int) error {
	if !isValidAlignment(alignment) {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	w.minAlignment = alignment
	return nil
}

// AddAlignmentRule adds or overrides an extension alignment rule on
// top of the default policy table.
func (w *Writer) AddAlignmentRule(ext string, alignment int) error {
	if !isValidAlignment(alignment) {
		return fmt.Errorf("%w: %d for extension %q", ErrInvalidAlignment, alignment, ext)
	}
	w.rules[ext] = alignment
	return nil
}

// Add registers a pending entry. Adding two names with colliding
// hashes is fine, the format allows it; adding the exact same name
// twice fails with ErrDuplicateName because the second entry could
// never be found by lookup.
func (w *Writer) Add(name string, data []byte) error {
	return w.add(name, data, false)
}

// AddNameless registers an entry whose name is used for hashing and
// sort order but not stored in the name table. Consumers can reach it
// only by hash.
func (w *Writer) AddNameless(name string, data []byte) error {
	return w.add(name, data, true)
}

func (w *Writer) add(name string, data []byte, nameless bool) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := w.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	w.byName[name] = len(w.entries)
	w.entries = append(w.entries, pendingEntry{name: name, data: data, nameless: nameless})
	return nil
}

// Len returns the number of pending entries.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Write serializes the pending entries into a new buffer.
//
// Entries are laid out in ascending name-hash order with insertion
// order breaking ties, so output is deterministic. All offsets are
// computed before a single byte is emitted; on error no buffer is
// returned. The result always reopens with Open and yields the same
// logical entry set.
func (w *Writer) Write() ([]byte, error) {
	n := len(w.entries)
	if n >= maxFileCount {
		return nil, fmt.Errorf("%w: %d entries exceed the SFAT count field", ErrEntryTooLarge, n)
	}

	policy := w.policy()

	// Hash-sorted view of the entries; the writer itself is not mutated.
	order := make([]int, n)
	hashes := make([]uint32, n)
	for i, e := range w.entries {
		order[i] = i
		hashes[i] = HashName(w.hashMultiplier, e.name)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return hashes[order[i]] < hashes[order[j]]
	})

	// Name table layout. Offsets are stored in 4-byte units, so each
	// NUL-terminated name is padded to a 4-byte boundary.
	nameOffsets := make([]int, n)
	nameTableSize := 0
	for _, i := range order {
		e := w.entries[i]
		if e.nameless {
			nameOffsets[i] = -1
			continue
		}
		nameOffsets[i] = nameTableSize
		nameTableSize += AlignUp(len(e.name)+1, 4)
	}
	if nameTableSize/4 >= NameOffsetFlag {
		return nil, fmt.Errorf("%w: name table of %d bytes", ErrEntryTooLarge, nameTableSize)
	}

	// Data layout, relative to the data section base. The base itself
	// is aligned to the strictest entry alignment so that relative
	// alignment carries over to absolute offsets.
	begins := make([]int, n)
	ends := make([]int, n)
	sectionAlignment := 1
	offset := 0
	for _, i := range order {
		e := w.entries[i]
		alignment := policy.Resolve(e.name, e.data)
		if alignment > sectionAlignment {
			sectionAlignment = alignment
		}
		offset = AlignUp(offset, alignment)
		begins[i] = offset
		ends[i] = offset + len(e.data)
		offset = ends[i]
	}

	fixedSize := HeaderSize + FatHeaderSize + FatEntrySize*n + FntHeaderSize
	dataOffset := AlignUp(fixedSize+nameTableSize, sectionAlignment)
	fileSize := dataOffset + offset
	if int64(fileSize) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: archive of %d bytes", ErrEntryTooLarge, fileSize)
	}

	b := NewBuilder(w.order, fileSize)

	b.PutTag(Magic)
	b.PutU16(HeaderSize)
	b.PutU16(BOM)
	b.PutU32(uint32(fileSize))
	b.PutU32(uint32(dataOffset))
	b.PutU16(Version)
	b.PutU16(0)

	b.PutTag(FatMagic)
	b.PutU16(FatHeaderSize)
	b.PutU16(uint16(n))
	b.PutU32(w.hashMultiplier)

	for _, i := range order {
		b.PutU32(hashes[i])
		if nameOffsets[i] < 0 {
			b.PutU32(0)
		} else {
			b.PutU32(NameOffsetFlag | uint32(nameOffsets[i]/4))
		}
		b.PutU32(uint32(begins[i]))
		b.PutU32(uint32(ends[i]))
	}

	b.PutTag(FntMagic)
	b.PutU16(FntHeaderSize)
	b.PutU16(0)
	for _, i := range order {
		e := w.entries[i]
		if e.nameless {
			continue
		}
		b.PutBytes([]byte(e.name))
		b.PutBytes([]byte{0})
		b.AlignTo(4)
	}

	b.PadTo(dataOffset)
	for _, i := range order {
		b.PadTo(dataOffset + begins[i])
		b.PutBytes(w.entries[i].data)
	}
	return b.Bytes(), nil
}

// policy builds the effective alignment policy: the byte-order default
// table, then the writer's floor, mode, and caller overrides.
func (w *Writer) policy() *AlignmentPolicy {
	p := NewAlignmentPolicy(w.order)
	p.SetMinimum(w.minAlignment)
	p.SetLegacy(w.legacy)
	for ext, alignment := range w.rules {
		p.AddRule(ext, alignment)
	}
	return p
}
