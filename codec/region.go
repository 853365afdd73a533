package codec

import (
	"errors"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
)

// ErrFrozen is returned for writes into a region after its save pass ended.
var ErrFrozen = errors.New("codec: region is frozen")

// Region is a reserved, offset-stable byte range of the output buffer.
//
// Fields are written at explicit offsets relative to the region start. Writes
// are bounds-checked against the region; failures are recorded on the owning
// SaveContext and abort the pass.
type Region struct {
	sc    *SaveContext
	w     *byteio.Writer
	start int64
	size  int
	align int
}

// RegionInfo describes a placed region.
type RegionInfo struct {
	Offset int64
	Size   int
	Align  int
	GPU    bool
}

// Offset returns the absolute start offset.
func (r *Region) Offset() int64 { return r.start }

// Size returns the region length.
func (r *Region) Size() int { return r.size }

// Align returns the region's required alignment.
func (r *Region) Align() int { return r.align }

// Err returns the first error of the owning save pass.
func (r *Region) Err() error { return r.sc.err }

// Sub returns the sub-region [off, off+size) sharing r's storage.
func (r *Region) Sub(off, size int) *Region {
	if !r.check(off, size) {
		return &Region{sc: r.sc, w: r.w, start: r.start, size: 0, align: 1}
	}
	return &Region{sc: r.sc, w: r.w, start: r.start + int64(off), size: size, align: 1}
}

func (r *Region) check(off, n int) bool {
	if r.sc.frozen {
		r.sc.fail(ErrFrozen)
		return false
	}
	if r.sc.err != nil {
		return false
	}
	if off < 0 || n < 0 || off+n > r.size {
		r.sc.fail(errs.Formatf(r.start+int64(off), "", "field of %d bytes outside region of %d bytes", n, r.size))
		return false
	}
	return true
}

func (r *Region) put(off, n int, write func(abs int) error) {
	if !r.check(off, n) {
		return
	}
	r.sc.fail(write(int(r.start) + off))
}

func (r *Region) PutU8(off int, v uint8) {
	r.put(off, 1, func(abs int) error { return r.w.PutU8(abs, v) })
}

func (r *Region) PutI8(off int, v int8) { r.PutU8(off, uint8(v)) }

func (r *Region) PutBool(off int, v bool) {
	var b uint8
	if v {
		b = 1
	}
	r.PutU8(off, b)
}

func (r *Region) PutU16(off int, v uint16) {
	r.put(off, 2, func(abs int) error { return r.w.PutU16(abs, v) })
}

func (r *Region) PutI16(off int, v int16) { r.PutU16(off, uint16(v)) }

func (r *Region) PutU32(off int, v uint32) {
	r.put(off, 4, func(abs int) error { return r.w.PutU32(abs, v) })
}

func (r *Region) PutI32(off int, v int32) { r.PutU32(off, uint32(v)) }

func (r *Region) PutU64(off int, v uint64) {
	r.put(off, 8, func(abs int) error { return r.w.PutU64(abs, v) })
}

func (r *Region) PutI64(off int, v int64) { r.PutU64(off, uint64(v)) }

func (r *Region) PutF16(off int, v float32) {
	r.put(off, 2, func(abs int) error { return r.w.PutF16(abs, v) })
}

func (r *Region) PutF32(off int, v float32) {
	r.put(off, 4, func(abs int) error { return r.w.PutF32(abs, v) })
}

// PutCount writes a u32 element count.
func (r *Region) PutCount(off, n int) {
	if n < 0 || int64(n) > int64(^uint32(0)) {
		r.sc.fail(errs.Formatf(r.start+int64(off), "", "count %d does not fit u32", n))
		return
	}
	r.PutU32(off, uint32(n))
}

// PutBytes copies p to off.
func (r *Region) PutBytes(off int, p []byte) {
	r.put(off, len(p), func(abs int) error { return r.w.PutBytes(abs, p) })
}

// PutFixedString writes s NUL-padded into an n-byte field.
func (r *Region) PutFixedString(off, n int, s string) {
	if len(s) > n {
		r.sc.fail(errs.Formatf(r.start+int64(off), "", "string %q longer than %d-byte field", s, n))
		return
	}
	r.PutBytes(off, []byte(s))
}
