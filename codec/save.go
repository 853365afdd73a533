package codec

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/platform"
)

// Result is the output of a save pass.
type Result struct {
	// Data is the CPU buffer. The root record starts at offset 0.
	Data []byte
	// GPU is the side buffer filled by AllocateGPU, nil when unused.
	GPU []byte
	// Regions lists every placed region in allocation order.
	Regions []RegionInfo
	// Fixups is the number of pointer fields patched in phase 2.
	Fixups int
	// Deferred is how many of those were deferred back-references.
	Deferred int
}

// fixup is a pointer write recorded during phase 1 and applied in phase 2.
// A nil target means the pointer refers to a literal offset (array bases).
type fixup struct {
	patch    int64
	target   Object
	at       int64
	align    int
	deferred bool
}

type stringRef struct {
	patch int64
	s     string
}

// SaveContext drives one encode pass.
//
// Phase 1 allocates regions and lets objects encode themselves, recording
// every pointer field as a fixup. Phase 2 flushes the string pool and patches
// all fixups once every object has a final offset.
type SaveContext struct {
	w        *byteio.Writer
	gpu      *byteio.Writer
	profile  *platform.Profile
	version  int
	placed   map[Object]int64
	fixups   []fixup
	strs     []stringRef
	regions  []RegionInfo
	frozen   bool
	err      error
	logger   *slog.Logger
	depth    int
	maxDepth int
}

// Save encodes the graph reachable from root.
func Save(root Object, p *platform.Profile, version int, opts ...Option) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("save %s: nil platform profile", typeName(root))
	}
	if isNil(root) {
		return nil, fmt.Errorf("save: %w", errs.Missingf("nil root object"))
	}
	o := applyOptions(opts)
	sc := &SaveContext{
		w:        byteio.NewWriter(p.Order),
		profile:  p,
		version:  version,
		placed:   make(map[Object]int64),
		logger:   o.logger,
		maxDepth: o.maxDepth,
	}

	if _, err := sc.place(root, 0); err != nil {
		return nil, sc.abort(root, err)
	}
	if err := sc.finish(); err != nil {
		return nil, sc.abort(root, err)
	}

	res := &Result{
		Data:    sc.w.Bytes(),
		Regions: sc.regions,
		Fixups:  len(sc.fixups),
	}
	if sc.gpu != nil {
		res.GPU = sc.gpu.Bytes()
	}
	for _, f := range sc.fixups {
		if f.deferred {
			res.Deferred++
		}
	}
	sc.logger.Debug("save completed",
		"type", typeName(root),
		"platform", p.Name,
		"version", version,
		"bytes", len(res.Data),
		"gpu_bytes", len(res.GPU),
		"regions", len(res.Regions),
		"fixups", res.Fixups,
		"deferred", res.Deferred,
	)
	return res, nil
}

func (sc *SaveContext) abort(root Object, err error) error {
	sc.frozen = true
	sc.logger.Debug("save failed", "type", typeName(root), "platform", sc.profile.Name, "version", sc.version, "error", err)
	return fmt.Errorf("save %s: %w", typeName(root), err)
}

// Platform returns the active platform profile.
func (sc *SaveContext) Platform() *platform.Profile { return sc.profile }

// Version returns the active format version.
func (sc *SaveContext) Version() int { return sc.version }

// AtLeastDefault reports whether the active version is at or above the
// platform's default version.
func (sc *SaveContext) AtLeastDefault() bool { return sc.profile.AtLeastDefault(sc.version) }

// PointerSize returns the stored pointer width in bytes.
func (sc *SaveContext) PointerSize() int { return sc.profile.PointerSize }

// Err returns the first error of the pass.
func (sc *SaveContext) Err() error { return sc.err }

// Fail records err if it is the first error of the pass and returns the
// recorded error.
func (sc *SaveContext) Fail(err error) error {
	sc.fail(err)
	return sc.err
}

func (sc *SaveContext) fail(err error) {
	if err != nil && sc.err == nil {
		sc.err = err
	}
}

// Allocate reserves a zero-filled region of size bytes whose start offset is
// a multiple of align.
func (sc *SaveContext) Allocate(size, align int) (*Region, error) {
	if sc.frozen {
		return nil, ErrFrozen
	}
	if sc.err != nil {
		return nil, sc.err
	}
	if size < 0 {
		return nil, sc.Fail(errs.Formatf(int64(sc.w.Len()), "", "negative region size %d", size))
	}
	if align <= 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return nil, sc.Fail(errs.Formatf(int64(sc.w.Len()), "", "alignment %d is not a power of two", align))
	}
	start := sc.w.Reserve(size, align)
	sc.regions = append(sc.regions, RegionInfo{Offset: int64(start), Size: size, Align: align})
	return &Region{sc: sc, w: sc.w, start: int64(start), size: size, align: align}, nil
}

// AllocateGPU appends data to the GPU side buffer and returns its offset.
func (sc *SaveContext) AllocateGPU(data []byte, align int) int64 {
	if sc.frozen {
		sc.fail(ErrFrozen)
		return 0
	}
	if align <= 0 {
		align = 1
	}
	if sc.gpu == nil {
		sc.gpu = byteio.NewWriter(sc.profile.Order)
	}
	off := sc.gpu.Append(data, align)
	sc.regions = append(sc.regions, RegionInfo{Offset: int64(off), Size: len(data), Align: align, GPU: true})
	return int64(off)
}

// place allocates obj's record, registers it and encodes it. Objects are
// registered before Encode runs so cycles resolve to the same offset.
func (sc *SaveContext) place(obj Object, align int) (int64, error) {
	if off, ok := sc.placed[obj]; ok {
		return off, nil
	}
	if sc.depth >= sc.maxDepth {
		return 0, sc.Fail(depthError(int64(sc.w.Len()), obj, sc.maxDepth))
	}
	if align <= 0 {
		align = alignOf(obj, sc.profile, sc.version)
	}
	size := obj.Size(sc.profile, sc.version)
	if size <= 0 {
		return 0, sc.Fail(errs.Formatf(int64(sc.w.Len()), typeName(obj), "invalid record size %d", size))
	}
	r, err := sc.Allocate(size, align)
	if err != nil {
		return 0, err
	}
	sc.placed[obj] = r.start
	if err := sc.encode(obj, r); err != nil {
		return 0, err
	}
	return r.start, nil
}

func (sc *SaveContext) encode(obj Object, r *Region) error {
	sc.depth++
	err := obj.Encode(sc, r)
	sc.depth--
	if err != nil {
		return sc.Fail(err)
	}
	return sc.err
}

func (sc *SaveContext) addFixup(r *Region, fieldOff int, f fixup) error {
	if !r.check(fieldOff, sc.profile.PointerSize) {
		return sc.err
	}
	f.patch = r.start + int64(fieldOff)
	sc.fixups = append(sc.fixups, f)
	return nil
}

// SavePointer writes a pointer to obj into r at fieldOff.
//
// A nil obj writes a null pointer. An obj not yet placed is allocated and
// encoded now unless deferred is set; deferred targets must be placed by some
// other reference before the pass ends. align <= 0 uses the object's own
// alignment.
func (sc *SaveContext) SavePointer(r *Region, fieldOff int, obj Object, align int, deferred bool) error {
	if isNil(obj) {
		if r.check(fieldOff, sc.profile.PointerSize) {
			sc.fail(sc.w.PutUint(int(r.start)+fieldOff, sc.profile.PointerSize, 0))
		}
		return sc.err
	}
	if align <= 0 {
		align = alignOf(obj, sc.profile, sc.version)
	}
	if err := sc.addFixup(r, fieldOff, fixup{target: obj, align: align, deferred: deferred}); err != nil {
		return err
	}
	if deferred {
		return nil
	}
	_, err := sc.place(obj, align)
	return err
}

// SaveString writes a pointer to a pooled NUL-terminated copy of s. Equal
// strings share one pool entry; "" writes a null pointer.
func (sc *SaveContext) SaveString(r *Region, fieldOff int, s string) error {
	if !r.check(fieldOff, sc.profile.PointerSize) {
		return sc.err
	}
	if s == "" {
		sc.fail(sc.w.PutUint(int(r.start)+fieldOff, sc.profile.PointerSize, 0))
		return sc.err
	}
	sc.strs = append(sc.strs, stringRef{patch: r.start + int64(fieldOff), s: s})
	return nil
}

func (sc *SaveContext) putCount(r *Region, countOff, n int) {
	if countOff >= 0 {
		r.PutCount(countOff, n)
	}
}

// SaveObjectArray writes items as contiguous records, each starting at a
// multiple of the record alignment. The element count goes to countOff and
// the array base pointer to ptrOff; a negative offset omits that field. Each element is registered by its own offset, so other
// pointers to an element resolve into the array.
func SaveObjectArray[T any, P Pointer[T]](sc *SaveContext, r *Region, countOff, ptrOff int, items []P, align int) error {
	sc.putCount(r, countOff, len(items))
	if sc.err != nil {
		return sc.err
	}
	if len(items) == 0 {
		if ptrOff >= 0 {
			return sc.SavePointer(r, ptrOff, nil, 0, false)
		}
		return nil
	}

	size, elemAlign, stride := layoutOf[T, P](sc.profile, sc.version)
	if size <= 0 {
		return sc.Fail(errs.Formatf(r.start, typeName(P(nil)), "invalid record size %d", size))
	}
	if align < elemAlign {
		align = elemAlign
	}
	for i, it := range items {
		if isNil(it) {
			return sc.Fail(errs.Formatf(r.start, typeName(P(nil)), "nil element %d in inline array", i))
		}
		if off, ok := sc.placed[it]; ok {
			return sc.Fail(errs.Formatf(off, typeName(P(nil)), "array element %d already placed at 0x%x", i, off))
		}
	}

	arr, err := sc.Allocate(stride*(len(items)-1)+size, align)
	if err != nil {
		return err
	}
	elems := make([]*Region, len(items))
	for i, it := range items {
		elems[i] = arr.Sub(i*stride, size)
		sc.placed[it] = elems[i].start
	}
	if ptrOff >= 0 {
		if err := sc.addFixup(r, ptrOff, fixup{at: arr.start, align: align}); err != nil {
			return err
		}
	}
	for i, it := range items {
		if err := sc.encode(it, elems[i]); err != nil {
			return err
		}
	}
	return nil
}

// SavePointerArray writes a table of pointers to items, placing every target
// that is not placed yet.
func SavePointerArray[T any, P Pointer[T]](sc *SaveContext, r *Region, countOff, ptrOff int, items []P, align int) error {
	return savePointers[T, P](sc, r, countOff, ptrOff, items, align, false)
}

// SaveReferenceArray writes a table of deferred back-references to items.
// Every item must be placed elsewhere in the same pass.
func SaveReferenceArray[T any, P Pointer[T]](sc *SaveContext, r *Region, countOff, ptrOff int, items []P, align int) error {
	return savePointers[T, P](sc, r, countOff, ptrOff, items, align, true)
}

func savePointers[T any, P Pointer[T]](sc *SaveContext, r *Region, countOff, ptrOff int, items []P, align int, deferred bool) error {
	sc.putCount(r, countOff, len(items))
	if sc.err != nil {
		return sc.err
	}
	if len(items) == 0 {
		if ptrOff >= 0 {
			return sc.SavePointer(r, ptrOff, nil, 0, false)
		}
		return nil
	}

	ps := sc.profile.PointerSize
	slots, err := sc.Allocate(ps*len(items), ps)
	if err != nil {
		return err
	}
	if ptrOff >= 0 {
		if err := sc.addFixup(r, ptrOff, fixup{at: slots.start, align: ps}); err != nil {
			return err
		}
	}
	for i, it := range items {
		var obj Object
		if !isNil(it) {
			obj = it
		}
		if err := sc.SavePointer(slots, i*ps, obj, align, deferred); err != nil {
			return err
		}
	}
	return nil
}

// finish runs phase 2 and freezes the pass.
func (sc *SaveContext) finish() error {
	if sc.err != nil {
		return sc.err
	}
	defer func() { sc.frozen = true }()

	if len(sc.strs) > 0 {
		pool := make(map[string]int64)
		for _, ref := range sc.strs {
			off, ok := pool[ref.s]
			if !ok {
				b := make([]byte, len(ref.s)+1)
				copy(b, ref.s)
				off = int64(sc.w.Append(b, 1))
				pool[ref.s] = off
			}
			if err := sc.w.PutUint(int(ref.patch), sc.profile.PointerSize, uint64(off)); err != nil {
				return err
			}
		}
		sc.logger.Debug("string pool flushed", "refs", len(sc.strs), "unique", len(pool))
	}

	for _, f := range sc.fixups {
		off := f.at
		if f.target != nil {
			var ok bool
			off, ok = sc.placed[f.target]
			if !ok {
				return fmt.Errorf("%w: %s referenced at 0x%x was never placed", errs.ErrDanglingReference, typeName(f.target), f.patch)
			}
			if off == 0 {
				return errs.Formatf(f.patch, typeName(f.target), "pointer to the root record cannot be encoded")
			}
		}
		if f.align > 1 && off%int64(f.align) != 0 {
			return errs.Formatf(f.patch, typeName(f.target), "target 0x%x not aligned to %d", off, f.align)
		}
		if err := sc.w.PutUint(int(f.patch), sc.profile.PointerSize, uint64(off)); err != nil {
			return err
		}
	}
	return nil
}
