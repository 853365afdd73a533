// Package byteio implements endian-aware primitive reads and writes over byte
// buffers.
//
// Cursor reads sequentially with a sticky error: once a read fails every
// later read returns the zero value and Err reports the first failure. This
// keeps decode routines linear while still aborting the whole pass on the
// first inconsistency.
package byteio

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/hupe1980/resforge/errs"
)

// Cursor is a read position over an owned buffer.
type Cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
	err   error
}

// NewCursor returns a cursor at offset 0.
func NewCursor(buf []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// Order returns the cursor's byte order.
func (c *Cursor) Order() binary.ByteOrder { return c.order }

// Pos returns the current offset.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Err returns the first error encountered, if any.
func (c *Cursor) Err() error { return c.err }

// Fail records err unless an earlier error is already recorded.
func (c *Cursor) Fail(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

// Seek moves the cursor to an absolute offset. Seeking to Len is allowed.
func (c *Cursor) Seek(pos int) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos > len(c.buf) {
		c.err = errs.Formatf(int64(pos), "", "seek outside buffer (len 0x%x)", len(c.buf))
		return
	}
	c.pos = pos
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) { c.Seek(c.pos + n) }

// Align advances the cursor to the next multiple of n. n must be a power of two.
func (c *Cursor) Align(n int) {
	if c.err != nil {
		return
	}
	if n <= 0 || n&(n-1) != 0 {
		c.err = errs.Formatf(int64(c.pos), "", "invalid alignment %d", n)
		return
	}
	c.Seek(AlignUp(c.pos, n))
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.err = errs.Formatf(int64(c.pos), "", "read of %d bytes past end of buffer (len 0x%x)", n, len(c.buf))
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// U8 reads an unsigned byte.
func (c *Cursor) U8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// I8 reads a signed byte.
func (c *Cursor) I8() int8 { return int8(c.U8()) }

// Bool reads a one-byte boolean (any non-zero value is true).
func (c *Cursor) Bool() bool { return c.U8() != 0 }

// U16 reads an unsigned 16-bit integer.
func (c *Cursor) U16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// I16 reads a signed 16-bit integer.
func (c *Cursor) I16() int16 { return int16(c.U16()) }

// U32 reads an unsigned 32-bit integer.
func (c *Cursor) U32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// I32 reads a signed 32-bit integer.
func (c *Cursor) I32() int32 { return int32(c.U32()) }

// U64 reads an unsigned 64-bit integer.
func (c *Cursor) U64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return c.order.Uint64(b)
}

// I64 reads a signed 64-bit integer.
func (c *Cursor) I64() int64 { return int64(c.U64()) }

// F16 reads a half-precision float and widens it.
func (c *Cursor) F16() float32 { return HalfToFloat32(c.U16()) }

// F32 reads a single-precision float.
func (c *Cursor) F32() float32 { return math.Float32frombits(c.U32()) }

// Uint reads an unsigned integer of the given width (1, 2, 4 or 8 bytes).
func (c *Cursor) Uint(width int) uint64 {
	switch width {
	case 1:
		return uint64(c.U8())
	case 2:
		return uint64(c.U16())
	case 4:
		return uint64(c.U32())
	case 8:
		return c.U64()
	default:
		c.Fail(errs.Formatf(int64(c.pos), "", "unsupported integer width %d", width))
		return 0
	}
}

// Bytes reads n raw bytes. The result aliases the buffer.
func (c *Cursor) Bytes(n int) []byte { return c.take(n) }

// FixedString reads n bytes and cuts them at the first NUL.
func (c *Cursor) FixedString(n int) string {
	b := c.take(n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// CString reads a NUL-terminated string at an absolute offset without moving
// the cursor.
func (c *Cursor) CString(off int) string {
	if c.err != nil {
		return ""
	}
	if off < 0 || off >= len(c.buf) {
		c.err = errs.Formatf(int64(off), "", "string offset outside buffer (len 0x%x)", len(c.buf))
		return ""
	}
	end := bytes.IndexByte(c.buf[off:], 0)
	if end < 0 {
		c.err = errs.Formatf(int64(off), "", "unterminated string")
		return ""
	}
	return string(c.buf[off : off+end])
}

// AlignUp rounds v up to the next multiple of n (a power of two).
func AlignUp(v, n int) int {
	return (v + n - 1) &^ (n - 1)
}
