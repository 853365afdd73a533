package resource

import (
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/platform"
)

// EntryType is the keyframe entry discriminant.
type EntryType uint32

const (
	EntryScalar EntryType = 1
	EntryVector EntryType = 2
	// EntryRotation stores a quaternion as four half floats.
	EntryRotation EntryType = 3
)

// Value is the closed set of keyframe payloads.
type Value interface {
	Type() EntryType
	put(r *codec.Region, off int)
}

// Scalar is a single float channel value.
type Scalar float32

// Vector is a three-component position or scale.
type Vector [3]float32

// Rotation is a quaternion (x, y, z, w) stored at half precision.
type Rotation [4]float32

func (Scalar) Type() EntryType   { return EntryScalar }
func (Vector) Type() EntryType   { return EntryVector }
func (Rotation) Type() EntryType { return EntryRotation }

func (s Scalar) put(r *codec.Region, off int) { r.PutF32(off, float32(s)) }

func (v Vector) put(r *codec.Region, off int) {
	for i, c := range v {
		r.PutF32(off+i*4, c)
	}
}

func (q Rotation) put(r *codec.Region, off int) {
	for i, c := range q {
		r.PutF16(off+i*2, c)
	}
}

// Keyframes is an animation track.
//
// Layout: Duration f32 | EntryCount u32 | Entries ptr (pointer table).
type Keyframes struct {
	Duration float32
	Entries  []*KeyEntry
}

func (k *Keyframes) Size(p *platform.Profile, _ int) int { return 8 + p.PointerSize }

func (k *Keyframes) Decode(lc *codec.LoadContext) error {
	k.Duration = lc.ReadF32()
	count := lc.ReadCount()
	off := lc.ReadPointer()
	entries, err := codec.LoadPointerArray[KeyEntry](lc, off, count)
	if err != nil {
		return err
	}
	k.Entries = entries
	return lc.Err()
}

func (k *Keyframes) Encode(sc *codec.SaveContext, r *codec.Region) error {
	r.PutF32(0, k.Duration)
	return codec.SavePointerArray(sc, r, 4, 8, k.Entries, 0)
}

// KeyEntry is one keyframe.
//
// Layout: Type u32 | Time f32 | payload (16 bytes, interpreted by Type).
type KeyEntry struct {
	Time  float32
	Value Value
}

const keyPayload = 16

func (e *KeyEntry) Size(*platform.Profile, int) int { return 8 + keyPayload }

func (e *KeyEntry) Alignment(*platform.Profile, int) int { return 4 }

func (e *KeyEntry) Decode(lc *codec.LoadContext) error {
	at := lc.Pos()
	typ := EntryType(lc.ReadU32())
	e.Time = lc.ReadF32()
	switch typ {
	case EntryScalar:
		e.Value = Scalar(lc.ReadF32())
	case EntryVector:
		var v Vector
		for i := range v {
			v[i] = lc.ReadF32()
		}
		e.Value = v
	case EntryRotation:
		var q Rotation
		for i := range q {
			q[i] = lc.ReadF16()
		}
		e.Value = q
	default:
		lc.Seek(at)
		return lc.Failf("KeyEntry", "unsupported keyframe entry type %d", typ)
	}
	return lc.Err()
}

func (e *KeyEntry) Encode(_ *codec.SaveContext, r *codec.Region) error {
	if e.Value == nil {
		return errMissingValue(r.Offset())
	}
	r.PutU32(0, uint32(e.Value.Type()))
	r.PutF32(4, e.Time)
	e.Value.put(r, 8)
	return r.Err()
}
