package sarc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
)

// Entry is one logical file inside an archive. Data is a sub-slice of
// the archive's backing buffer, valid only as long as that buffer is
// alive and unmodified. Name is empty and HasName false for index
// records without a name-table entry, which the format permits.
type Entry struct {
	Name    string
	HasName bool
	Data    []byte
}

// Archive is a parsed view over a SARC buffer. It borrows the buffer
// passed to Open and performs no copies; concurrent reads are safe
// because nothing is mutated after Open returns.
type Archive struct {
	buf            []byte
	order          binary.ByteOrder
	numFiles       int
	entriesOffset  int
	hashMultiplier uint32
	dataOffset     int
	namesOffset    int
}

// Open parses and validates a SARC archive from buf.
//
// The byte order is detected from the order mark at offset 6: the
// sentinel reads as 0xFEFF under the archive's own byte order, so the
// swapped pattern identifies the opposite endianness. All structural
// offsets are validated here so that entry access afterwards can only
// fail on a per-record basis.
func Open(buf []byte) (*Archive, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the %d-byte header",
			ErrTruncated, len(buf), HeaderSize)
	}

	var order binary.ByteOrder
	switch binary.BigEndian.Uint16(buf[6:8]) {
	case BOM:
		order = binary.BigEndian
	case bomSwapped:
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: byte-order mark %#04x", ErrInvalidMagic,
			binary.BigEndian.Uint16(buf[6:8]))
	}

	c := NewCursor(buf, order)
	magic, _ := c.Tag()
	if magic != Magic {
		return nil, fmt.Errorf("%w: SARC magic %q", ErrInvalidMagic, magic[:])
	}
	headerSize, _ := c.U16()
	if headerSize != HeaderSize {
		return nil, fmt.Errorf("%w: SARC header size %#x", ErrOffsetOutOfRange, headerSize)
	}
	c.Seek(8) // past the order mark
	fileSize, _ := c.U32()
	dataOffset, _ := c.U32()
	version, _ := c.U16()
	c.U16() // reserved
	if version != Version {
		return nil, fmt.Errorf("%w: %#06x", ErrUnsupportedVersion, version)
	}
	if int(fileSize) > len(buf) {
		return nil, fmt.Errorf("%w: header declares %d bytes, buffer has %d",
			ErrTruncated, fileSize, len(buf))
	}

	fatMagic, err := c.Tag()
	if err != nil {
		return nil, err
	}
	if fatMagic != FatMagic {
		return nil, fmt.Errorf("%w: SFAT magic %q", ErrInvalidMagic, fatMagic[:])
	}
	fatHeaderSize, err := c.U16()
	if err != nil {
		return nil, err
	}
	if fatHeaderSize != FatHeaderSize {
		return nil, fmt.Errorf("%w: SFAT header size %#x", ErrOffsetOutOfRange, fatHeaderSize)
	}
	numFiles, err := c.U16()
	if err != nil {
		return nil, err
	}
	if numFiles >= maxFileCount {
		return nil, fmt.Errorf("%w: SFAT file count %d", ErrOffsetOutOfRange, numFiles)
	}
	hashMultiplier, err := c.U32()
	if err != nil {
		return nil, err
	}

	entriesOffset := c.Pos()
	fntOffset := entriesOffset + FatEntrySize*int(numFiles)
	if err := c.Seek(fntOffset); err != nil {
		return nil, fmt.Errorf("SFAT records: %w", err)
	}
	fntMagic, err := c.Tag()
	if err != nil {
		return nil, err
	}
	if fntMagic != FntMagic {
		return nil, fmt.Errorf("%w: SFNT magic %q", ErrInvalidMagic, fntMagic[:])
	}
	fntHeaderSize, err := c.U16()
	if err != nil {
		return nil, err
	}
	if fntHeaderSize != FntHeaderSize {
		return nil, fmt.Errorf("%w: SFNT header size %#x", ErrOffsetOutOfRange, fntHeaderSize)
	}
	if _, err := c.U16(); err != nil { // reserved
		return nil, err
	}

	namesOffset := c.Pos()
	if int(dataOffset) < namesOffset || int(dataOffset) > len(buf) {
		return nil, fmt.Errorf("%w: data section offset %d with name table at %d",
			ErrOffsetOutOfRange, dataOffset, namesOffset)
	}

	return &Archive{
		buf:            buf,
		order:          order,
		numFiles:       int(numFiles),
		entriesOffset:  entriesOffset,
		hashMultiplier: hashMultiplier,
		dataOffset:     int(dataOffset),
		namesOffset:    namesOffset,
	}, nil
}

// bomSwapped is the sentinel as seen when read under the wrong order.
const bomSwapped = 0xFFFE

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return a.numFiles
}

// Endian returns the archive's byte order.
func (a *Archive) Endian() binary.ByteOrder {
	return a.order
}

// DataOffset returns the absolute offset of the data section.
func (a *Archive) DataOffset() int {
	return a.dataOffset
}

// HashMultiplier returns the stored name-hash multiplier.
func (a *Archive) HashMultiplier() uint32 {
	return a.hashMultiplier
}

type fatEntry struct {
	nameHash   uint32
	nameOffset uint32
	dataBegin  uint32
	dataEnd    uint32
}

func (a *Archive) record(i int) fatEntry {
	off := a.entriesOffset + FatEntrySize*i
	return fatEntry{
		nameHash:   a.order.Uint32(a.buf[off:]),
		nameOffset: a.order.Uint32(a.buf[off+4:]),
		dataBegin:  a.order.Uint32(a.buf[off+8:]),
		dataEnd:    a.order.Uint32(a.buf[off+12:]),
	}
}

// EntryAt returns the entry at index i in on-disk order. A bad record
// fails only this lookup; the rest of the archive stays usable.
func (a *Archive) EntryAt(i int) (Entry, error) {
	if i < 0 || i >= a.numFiles {
		return Entry{}, fmt.Errorf("%w: entry index %d of %d", ErrOffsetOutOfRange, i, a.numFiles)
	}
	rec := a.record(i)

	var e Entry
	if rec.nameOffset != 0 {
		name, err := a.nameAt(rec.nameOffset)
		if err != nil {
			return Entry{}, err
		}
		e.Name = name
		e.HasName = true
	}

	if rec.dataBegin > rec.dataEnd {
		return Entry{}, fmt.Errorf("%w: entry %d data range [%d, %d)",
			ErrOffsetOutOfRange, i, rec.dataBegin, rec.dataEnd)
	}
	begin := a.dataOffset + int(rec.dataBegin)
	end := a.dataOffset + int(rec.dataEnd)
	if end > len(a.buf) {
		return Entry{}, fmt.Errorf("%w: entry %d data ends at %d, buffer has %d",
			ErrOffsetOutOfRange, i, end, len(a.buf))
	}
	e.Data = a.buf[begin:end]
	return e, nil
}

// nameAt resolves an index record's flag-and-offset field against the
// name table, which spans from the SFNT body to the data section.
func (a *Archive) nameAt(nameOffset uint32) (string, error) {
	off := a.namesOffset + int(nameOffset&0x00FFFFFF)*4
	if off >= a.dataOffset {
		return "", fmt.Errorf("%w: name at %d, table ends at %d",
			ErrInvalidNameOffset, off, a.dataOffset)
	}
	table := a.buf[off:a.dataOffset]
	end := bytes.IndexByte(table, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated name at %d", ErrInvalidNameOffset, off)
	}
	return string(table[:end]), nil
}

// Entries iterates the archive in on-disk index order, ascending by
// name hash. Records that fail validation are skipped; use EntryAt to
// surface the error for a specific index. The sequence is a pure view
// over the buffer and can be re-iterated.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := 0; i < a.numFiles; i++ {
			e, err := a.EntryAt(i)
			if err != nil {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Find looks up an entry by name: a binary search over the hash-sorted
// index, then a scan of the equal-hash run comparing actual names. A
// hash match alone is not a name match, so collisions with different
// text and nameless records both miss.
func (a *Archive) Find(name string) (Entry, bool) {
	needle := HashName(a.hashMultiplier, name)

	lo, hi := 0, a.numFiles
	for lo < hi {
		mid := (lo + hi) / 2
		if a.record(mid).nameHash < needle {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	for i := lo; i < a.numFiles && a.record(i).nameHash == needle; i++ {
		e, err := a.EntryAt(i)
		if err != nil {
			continue
		}
		if e.HasName && e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// GuessMinAlignment estimates the minimum data alignment the archive
// was produced with, as the gcd of all absolute data offsets. Falls
// back to the structural minimum when the gcd is not a usable
// power of two.
func (a *Archive) GuessMinAlignment() int {
	g := MinAlignment
	for i := 0; i < a.numFiles; i++ {
		g = gcd(g, a.dataOffset+int(a.record(i).dataBegin))
	}
	if !isValidAlignment(g) {
		return MinAlignment
	}
	return g
}

// FilesEqual reports whether two archives contain the same entries in
// the same order, comparing names and data but not layout details such
// as padding or byte order.
func FilesEqual(a, b *Archive) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		ea, errA := a.EntryAt(i)
		eb, errB := b.EntryAt(i)
		if errA != nil && errB != nil {
			continue
		}
		if errA != nil || errB != nil {
			return false
		}
		if ea.HasName != eb.HasName || ea.Name != eb.Name || !bytes.Equal(ea.Data, eb.Data) {
			return false
		}
	}
	return true
}
