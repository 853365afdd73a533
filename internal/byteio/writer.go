package byteio

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/resforge/errs"
)

// Writer is a growable output buffer written at explicit offsets.
//
// Every Put is bounds-checked against the current length; Grow extends the
// buffer with zero bytes. Writers never write past what was reserved.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

// NewWriter returns an empty writer.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

// Order returns the writer's byte order.
func (w *Writer) Order() binary.ByteOrder { return w.order }

// Len returns the number of reserved bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Grow extends the buffer to n bytes, zero-filling the new tail.
func (w *Writer) Grow(n int) {
	if n <= len(w.buf) {
		return
	}
	if n <= cap(w.buf) {
		tail := w.buf[len(w.buf):n]
		clear(tail)
		w.buf = w.buf[:n]
		return
	}
	nb := make([]byte, n, max(n, 2*cap(w.buf)))
	copy(nb, w.buf)
	w.buf = nb
}

// Reserve pads to align and reserves size zero bytes, returning the start.
func (w *Writer) Reserve(size, align int) int {
	start := AlignUp(len(w.buf), align)
	w.Grow(start + size)
	return start
}

func (w *Writer) span(off, n int) ([]byte, error) {
	if off < 0 || off+n > len(w.buf) {
		return nil, errs.Formatf(int64(off), "", "write of %d bytes outside reserved buffer (len 0x%x)", n, len(w.buf))
	}
	return w.buf[off : off+n], nil
}

// PutU8 writes a byte at off.
func (w *Writer) PutU8(off int, v uint8) error {
	b, err := w.span(off, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// PutU16 writes a 16-bit integer at off.
func (w *Writer) PutU16(off int, v uint16) error {
	b, err := w.span(off, 2)
	if err != nil {
		return err
	}
	w.order.PutUint16(b, v)
	return nil
}

// PutU32 writes a 32-bit integer at off.
func (w *Writer) PutU32(off int, v uint32) error {
	b, err := w.span(off, 4)
	if err != nil {
		return err
	}
	w.order.PutUint32(b, v)
	return nil
}

// PutU64 writes a 64-bit integer at off.
func (w *Writer) PutU64(off int, v uint64) error {
	b, err := w.span(off, 8)
	if err != nil {
		return err
	}
	w.order.PutUint64(b, v)
	return nil
}

// PutF16 narrows v to half precision and writes it at off.
func (w *Writer) PutF16(off int, v float32) error { return w.PutU16(off, Float32ToHalf(v)) }

// PutF32 writes a single-precision float at off.
func (w *Writer) PutF32(off int, v float32) error { return w.PutU32(off, math.Float32bits(v)) }

// PutUint writes v with the given width (1, 2, 4 or 8 bytes).
func (w *Writer) PutUint(off, width int, v uint64) error {
	switch width {
	case 1:
		if v > math.MaxUint8 {
			return errs.Formatf(int64(off), "", "value 0x%x overflows 1 byte", v)
		}
		return w.PutU8(off, uint8(v))
	case 2:
		if v > math.MaxUint16 {
			return errs.Formatf(int64(off), "", "value 0x%x overflows 2 bytes", v)
		}
		return w.PutU16(off, uint16(v))
	case 4:
		if v > math.MaxUint32 {
			return errs.Formatf(int64(off), "", "value 0x%x overflows 4 bytes", v)
		}
		return w.PutU32(off, uint32(v))
	case 8:
		return w.PutU64(off, v)
	default:
		return errs.Formatf(int64(off), "", "unsupported integer width %d", width)
	}
}

// PutBytes copies p to off.
func (w *Writer) PutBytes(off int, p []byte) error {
	b, err := w.span(off, len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// Append pads to align, appends p and returns its start offset.
func (w *Writer) Append(p []byte, align int) int {
	start := w.Reserve(len(p), align)
	copy(w.buf[start:], p)
	return start
}
