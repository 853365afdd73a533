package codec

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/platform"
)

// LoadContext drives one decode pass over a buffer.
//
// Primitive reads never return errors directly: the first failure is kept and
// every later read yields a zero value. Decode implementations return
// lc.Err() (or their own error) when done.
type LoadContext struct {
	cur      *byteio.Cursor
	profile  *platform.Profile
	version  int
	gpu      []byte
	table    *table
	logger   *slog.Logger
	depth    int
	maxDepth int
}

// Load decodes the root object of type T at offset 0 of buf.
func Load[T any, P Pointer[T]](buf []byte, p *platform.Profile, version int, opts ...Option) (P, error) {
	root := P(new(T))
	if err := LoadInto(buf, p, version, root, opts...); err != nil {
		return nil, err
	}
	return root, nil
}

// LoadInto decodes buf into an existing root object.
func LoadInto(buf []byte, p *platform.Profile, version int, root Object, opts ...Option) error {
	if p == nil {
		return fmt.Errorf("load %s: nil platform profile", typeName(root))
	}
	o := applyOptions(opts)
	lc := &LoadContext{
		cur:      byteio.NewCursor(buf, p.Order),
		profile:  p,
		version:  version,
		gpu:      o.gpu,
		table:    newTable(),
		logger:   o.logger,
		maxDepth: o.maxDepth,
	}
	if len(buf) == 0 {
		return fmt.Errorf("load %s: %w", typeName(root), errs.Formatf(0, typeName(root), "empty buffer"))
	}

	err := root.Decode(lc)
	if err == nil {
		err = lc.Err()
	}
	if err != nil {
		lc.logger.Debug("load failed", "type", typeName(root), "platform", p.Name, "version", version, "error", err)
		return fmt.Errorf("load %s: %w", typeName(root), err)
	}
	lc.logger.Debug("load completed",
		"type", typeName(root),
		"platform", p.Name,
		"version", version,
		"bytes", len(buf),
		"objects", lc.table.len()+1,
	)
	return nil
}

// Platform returns the active platform profile.
func (lc *LoadContext) Platform() *platform.Profile { return lc.profile }

// Version returns the active format version.
func (lc *LoadContext) Version() int { return lc.version }

// AtLeastDefault reports whether the active version is at or above the
// platform's default version.
func (lc *LoadContext) AtLeastDefault() bool { return lc.profile.AtLeastDefault(lc.version) }

// PointerSize returns the stored pointer width in bytes.
func (lc *LoadContext) PointerSize() int { return lc.profile.PointerSize }

// Err returns the first error of the pass.
func (lc *LoadContext) Err() error { return lc.cur.Err() }

// Fail records err as the pass error and returns the recorded error.
func (lc *LoadContext) Fail(err error) error {
	lc.cur.Fail(err)
	return lc.cur.Err()
}

// Failf records a FormatError at the current position.
func (lc *LoadContext) Failf(typ, format string, args ...any) error {
	return lc.Fail(errs.Formatf(int64(lc.cur.Pos()), typ, format, args...))
}

// Objects returns the number of pointer-resolved objects so far.
func (lc *LoadContext) Objects() int { return lc.table.len() }

// Pos returns the current offset.
func (lc *LoadContext) Pos() int64 { return int64(lc.cur.Pos()) }

// Seek moves to an absolute offset.
func (lc *LoadContext) Seek(off int64) { lc.cur.Seek(int(off)) }

// Skip advances by n bytes.
func (lc *LoadContext) Skip(n int) { lc.cur.Skip(n) }

// Align advances to the next multiple of n.
func (lc *LoadContext) Align(n int) { lc.cur.Align(n) }

func (lc *LoadContext) ReadU8() uint8    { return lc.cur.U8() }
func (lc *LoadContext) ReadI8() int8     { return lc.cur.I8() }
func (lc *LoadContext) ReadBool() bool   { return lc.cur.Bool() }
func (lc *LoadContext) ReadU16() uint16  { return lc.cur.U16() }
func (lc *LoadContext) ReadI16() int16   { return lc.cur.I16() }
func (lc *LoadContext) ReadU32() uint32  { return lc.cur.U32() }
func (lc *LoadContext) ReadI32() int32   { return lc.cur.I32() }
func (lc *LoadContext) ReadU64() uint64  { return lc.cur.U64() }
func (lc *LoadContext) ReadI64() int64   { return lc.cur.I64() }
func (lc *LoadContext) ReadF16() float32 { return lc.cur.F16() }
func (lc *LoadContext) ReadF32() float32 { return lc.cur.F32() }

// ReadCount reads a u32 element count.
func (lc *LoadContext) ReadCount() int { return int(lc.cur.U32()) }

// ReadBytes returns a copy of the next n bytes.
func (lc *LoadContext) ReadBytes(n int) []byte { return bytes.Clone(lc.cur.Bytes(n)) }

// ReadPointer reads a stored offset without following it.
func (lc *LoadContext) ReadPointer() int64 {
	v := lc.cur.Uint(lc.profile.PointerSize)
	if int64(v) < 0 {
		lc.Failf("", "pointer 0x%x out of range", v)
		return 0
	}
	return int64(v)
}

// ReadFixedString reads an n-byte NUL-padded string.
func (lc *LoadContext) ReadFixedString(n int) string { return lc.cur.FixedString(n) }

// ReadStringPointer reads a pointer to a NUL-terminated string. A null
// pointer yields "".
func (lc *LoadContext) ReadStringPointer() string {
	off := lc.ReadPointer()
	if off == 0 {
		return ""
	}
	return lc.cur.CString(int(off))
}

// GPUBytes returns a copy of n bytes at off in the GPU side buffer.
func (lc *LoadContext) GPUBytes(off int64, n int) []byte {
	if lc.Err() != nil {
		return nil
	}
	if lc.gpu == nil {
		lc.Fail(errs.Missingf("GPU data buffer required at 0x%x", lc.cur.Pos()))
		return nil
	}
	if off < 0 || n < 0 || off+int64(n) > int64(len(lc.gpu)) {
		lc.Failf("", "GPU range 0x%x+%d outside buffer (len 0x%x)", off, n, len(lc.gpu))
		return nil
	}
	return bytes.Clone(lc.gpu[off : off+int64(n)])
}

// decodeAt decodes obj at off and restores the cursor afterwards.
func (lc *LoadContext) decodeAt(obj Object, off int64) error {
	if lc.depth >= lc.maxDepth {
		return lc.Fail(depthError(off, obj, lc.maxDepth))
	}
	saved := lc.cur.Pos()
	lc.cur.Seek(int(off))
	if err := lc.Err(); err != nil {
		return err
	}

	lc.depth++
	err := obj.Decode(lc)
	lc.depth--
	if err != nil {
		return lc.Fail(err)
	}
	if err := lc.Err(); err != nil {
		return err
	}
	lc.cur.Seek(saved)
	return lc.Err()
}

func (lc *LoadContext) checkRange(off int64, n int, typ string) error {
	if off <= 0 || off >= int64(lc.cur.Len()) {
		return lc.Fail(errs.Formatf(off, typ, "target offset outside buffer (len 0x%x)", lc.cur.Len()))
	}
	if n > 0 && off+int64(n) > int64(lc.cur.Len()) {
		return lc.Fail(errs.Formatf(off, typ, "record of %d bytes overruns buffer (len 0x%x)", n, lc.cur.Len()))
	}
	return nil
}

// LoadPointer reads a pointer and resolves it to a T. A null pointer yields nil.
func LoadPointer[T any, P Pointer[T]](lc *LoadContext) (P, error) {
	return Follow[T, P](lc, lc.ReadPointer())
}

// RequirePointer is like LoadPointer but a null pointer is ErrMissingData.
func RequirePointer[T any, P Pointer[T]](lc *LoadContext) (P, error) {
	at := lc.Pos()
	off := lc.ReadPointer()
	if off == 0 && lc.Err() == nil {
		return nil, lc.Fail(errs.Missingf("mandatory %s pointer at 0x%x is null", typeName(P(nil)), at))
	}
	return Follow[T, P](lc, off)
}

// Follow resolves an already-read offset to a T.
func Follow[T any, P Pointer[T]](lc *LoadContext, off int64) (P, error) {
	if err := lc.Err(); err != nil {
		return nil, err
	}
	if off == 0 {
		return nil, nil
	}
	if obj, ok := lc.table.lookup(off); ok {
		p, ok := obj.(P)
		if !ok {
			return nil, lc.Fail(errs.Formatf(off, typeName(P(nil)), "offset already decoded as %s", typeName(obj)))
		}
		return p, nil
	}
	if err := lc.checkRange(off, sizeOf[T, P](lc.profile, lc.version), typeName(P(nil))); err != nil {
		return nil, err
	}

	obj := P(new(T))
	lc.table.register(off, obj)
	if err := lc.decodeAt(obj, off); err != nil {
		return nil, err
	}
	return obj, nil
}

// LoadArray decodes count contiguous T records starting at off. Each element
// is registered by its own offset so pointers into the array resolve to the
// same instances.
func LoadArray[T any, P Pointer[T]](lc *LoadContext, off int64, count int) ([]P, error) {
	if err := lc.Err(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, lc.Failf(typeName(P(nil)), "negative array count %d", count)
	}
	if count == 0 {
		return nil, nil
	}
	if off == 0 {
		return nil, lc.Fail(errs.Missingf("%d %s records at null offset", count, typeName(P(nil))))
	}
	size, _, stride := layoutOf[T, P](lc.profile, lc.version)
	if size <= 0 {
		return nil, lc.Failf(typeName(P(nil)), "invalid record size %d", size)
	}
	if err := lc.checkRange(off, stride*(count-1)+size, typeName(P(nil))); err != nil {
		return nil, err
	}

	out := make([]P, count)
	for i := range out {
		at := off + int64(i*stride)
		if obj, ok := lc.table.lookup(at); ok {
			p, ok := obj.(P)
			if !ok {
				return nil, lc.Fail(errs.Formatf(at, typeName(P(nil)), "offset already decoded as %s", typeName(obj)))
			}
			out[i] = p
			continue
		}
		p := P(new(T))
		lc.table.register(at, p)
		if err := lc.decodeAt(p, at); err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// LoadPointerArray reads count pointers starting at off and resolves each.
// Null slots yield nil elements.
func LoadPointerArray[T any, P Pointer[T]](lc *LoadContext, off int64, count int) ([]P, error) {
	offsets, err := lc.readOffsets(off, count, typeName(P(nil)))
	if err != nil || len(offsets) == 0 {
		return nil, err
	}
	out := make([]P, len(offsets))
	for i, o := range offsets {
		p, err := Follow[T, P](lc, o)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (lc *LoadContext) readOffsets(off int64, count int, typ string) ([]int64, error) {
	if err := lc.Err(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, lc.Failf(typ, "negative pointer array count %d", count)
	}
	if count == 0 {
		return nil, nil
	}
	if off == 0 {
		return nil, lc.Fail(errs.Missingf("%d %s pointers at null offset", count, typ))
	}
	if err := lc.checkRange(off, count*lc.profile.PointerSize, typ); err != nil {
		return nil, err
	}

	saved := lc.cur.Pos()
	lc.cur.Seek(int(off))
	offsets := make([]int64, count)
	for i := range offsets {
		offsets[i] = lc.ReadPointer()
	}
	lc.cur.Seek(saved)
	return offsets, lc.Err()
}
