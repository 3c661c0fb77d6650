package sarc

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a bounds-checked view over a borrowed byte buffer. Every
// read interprets multi-byte values under the configured byte order and
// advances the position; a read past the end of the buffer fails with
// ErrTruncated and leaves the position unchanged.
type Cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

// NewCursor returns a cursor over buf starting at position 0.
// The cursor borrows buf; it never copies or modifies it.
func NewCursor(buf []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Seek moves the read position to pos.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("%w: seek to %d in %d-byte buffer", ErrTruncated, pos, len(c.buf))
	}
	c.pos = pos
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || len(c.buf)-c.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, c.pos, len(c.buf)-c.pos)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// U16 reads an unsigned 16-bit value.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

// U32 reads an unsigned 32-bit value.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// I32 reads a signed 32-bit value.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// Tag reads a 4-byte magic tag. Tags are raw ASCII and not subject to
// byte-order interpretation.
func (c *Cursor) Tag() ([4]byte, error) {
	var tag [4]byte
	b, err := c.take(4)
	if err != nil {
		return tag, err
	}
	copy(tag[:], b)
	return tag, nil
}

// Builder accumulates an output buffer in a chosen byte order. Unlike
// the read side, writes cannot fail: the buffer grows as needed.
type Builder struct {
	buf   []byte
	order binary.ByteOrder
}

// NewBuilder returns a builder with the given initial capacity.
func NewBuilder(order binary.ByteOrder, capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity), order: order}
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns the accumulated buffer.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// PutU16 appends an unsigned 16-bit value.
func (b *Builder) PutU16(v uint16) {
	var tmp [2]byte
	b.order.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// PutU32 appends an unsigned 32-bit value.
func (b *Builder) PutU32(v uint32) {
	var tmp [4]byte
	b.order.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// PutTag appends a 4-byte magic tag verbatim.
func (b *Builder) PutTag(tag [4]byte) {
	b.buf = append(b.buf, tag[:]...)
}

// PutBytes appends raw bytes.
func (b *Builder) PutBytes(p []byte) {
	b.buf = append(b.buf, p...)
}

// PadTo appends zero bytes until the buffer is n bytes long. It is a
// no-op when the buffer is already at or past n.
func (b *Builder) PadTo(n int) {
	for len(b.buf) < n {
		b.buf = append(b.buf, 0)
	}
}

// AlignTo pads the buffer with zeros up to the next multiple of
// alignment, which must be a power of two.
func (b *Builder) AlignTo(alignment int) {
	b.PadTo(AlignUp(len(b.buf), alignment))
}

// AlignUp rounds pos up to the next multiple of alignment, which must
// be a power of two.
func AlignUp(pos, alignment int) int {
	return (pos + alignment - 1) &^ (alignment - 1)
}
