package resource

import (
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/platform"
)

// SectionKind tags the payload of a collision mesh section.
type SectionKind uint32

const (
	SectionTriangles SectionKind = iota
	SectionBoxes
	SectionSpheres
)

func (k SectionKind) String() string {
	switch k {
	case SectionTriangles:
		return "triangles"
	case SectionBoxes:
		return "boxes"
	case SectionSpheres:
		return "spheres"
	default:
		return "unknown"
	}
}

// CollisionMesh is a list of typed collision sections.
//
// Layout: SectionCount u32 (pointer slot) | Sections ptr (pointer table).
type CollisionMesh struct {
	Sections []*Section
}

func (m *CollisionMesh) Size(p *platform.Profile, _ int) int { return 2 * p.PointerSize }

func (m *CollisionMesh) Decode(lc *codec.LoadContext) error {
	count := lc.ReadCount()
	lc.Align(lc.PointerSize())
	off := lc.ReadPointer()
	sections, err := codec.LoadPointerArray[Section](lc, off, count)
	if err != nil {
		return err
	}
	m.Sections = sections
	return lc.Err()
}

func (m *CollisionMesh) Encode(sc *codec.SaveContext, r *codec.Region) error {
	return codec.SavePointerArray(sc, r, 0, sc.PointerSize(), m.Sections, 0)
}

// Section holds the shapes of one kind. Only the slice matching Kind is
// encoded.
//
// Layout: Kind u32 | Count u32 | Data ptr (inline records of the kind).
type Section struct {
	Kind      SectionKind
	Triangles []*Triangle
	Boxes     []*Box
	Spheres   []*Sphere
}

func (s *Section) Size(p *platform.Profile, _ int) int { return 8 + p.PointerSize }

func (s *Section) Decode(lc *codec.LoadContext) error {
	at := lc.Pos()
	s.Kind = SectionKind(lc.ReadU32())
	count := lc.ReadCount()
	off := lc.ReadPointer()

	var err error
	switch s.Kind {
	case SectionTriangles:
		s.Triangles, err = codec.LoadArray[Triangle](lc, off, count)
	case SectionBoxes:
		s.Boxes, err = codec.LoadArray[Box](lc, off, count)
	case SectionSpheres:
		s.Spheres, err = codec.LoadArray[Sphere](lc, off, count)
	default:
		lc.Seek(at)
		return lc.Failf("Section", "unknown collision section type %d", uint32(s.Kind))
	}
	if err != nil {
		return err
	}
	return lc.Err()
}

func (s *Section) Encode(sc *codec.SaveContext, r *codec.Region) error {
	r.PutU32(0, uint32(s.Kind))
	switch s.Kind {
	case SectionTriangles:
		return codec.SaveObjectArray(sc, r, 4, 8, s.Triangles, 0)
	case SectionBoxes:
		return codec.SaveObjectArray(sc, r, 4, 8, s.Boxes, 0)
	case SectionSpheres:
		return codec.SaveObjectArray(sc, r, 4, 8, s.Spheres, 0)
	default:
		return errUnknownKind(r.Offset(), "Section", uint32(s.Kind))
	}
}

// Triangle indexes three vertices and a material.
//
// Layout: A u16 | B u16 | C u16 | Material u16.
type Triangle struct {
	A, B, C  uint16
	Material uint16
}

func (t *Triangle) Size(*platform.Profile, int) int      { return 8 }
func (t *Triangle) Alignment(*platform.Profile, int) int { return 2 }

func (t *Triangle) Decode(lc *codec.LoadContext) error {
	t.A, t.B, t.C = lc.ReadU16(), lc.ReadU16(), lc.ReadU16()
	t.Material = lc.ReadU16()
	return lc.Err()
}

func (t *Triangle) Encode(_ *codec.SaveContext, r *codec.Region) error {
	r.PutU16(0, t.A)
	r.PutU16(2, t.B)
	r.PutU16(4, t.C)
	r.PutU16(6, t.Material)
	return r.Err()
}

// Box is an oriented-free box collider.
//
// Layout: Center [3]f32 | HalfExtent [3]f32.
type Box struct {
	Center     [3]float32
	HalfExtent [3]float32
}

func (b *Box) Size(*platform.Profile, int) int      { return 24 }
func (b *Box) Alignment(*platform.Profile, int) int { return 4 }

func (b *Box) Decode(lc *codec.LoadContext) error {
	readVec3(lc, &b.Center)
	readVec3(lc, &b.HalfExtent)
	return lc.Err()
}

func (b *Box) Encode(_ *codec.SaveContext, r *codec.Region) error {
	putVec3(r, 0, b.Center)
	putVec3(r, 12, b.HalfExtent)
	return r.Err()
}

// Sphere is a sphere collider.
//
// Layout: Center [3]f32 | Radius f32.
type Sphere struct {
	Center [3]float32
	Radius float32
}

func (s *Sphere) Size(*platform.Profile, int) int      { return 16 }
func (s *Sphere) Alignment(*platform.Profile, int) int { return 4 }

func (s *Sphere) Decode(lc *codec.LoadContext) error {
	readVec3(lc, &s.Center)
	s.Radius = lc.ReadF32()
	return lc.Err()
}

func (s *Sphere) Encode(_ *codec.SaveContext, r *codec.Region) error {
	putVec3(r, 0, s.Center)
	r.PutF32(12, s.Radius)
	return r.Err()
}

func readVec3(lc *codec.LoadContext, v *[3]float32) {
	for i := range v {
		v[i] = lc.ReadF32()
	}
}

func putVec3(r *codec.Region, off int, v [3]float32) {
	for i, c := range v {
		r.PutF32(off+i*4, c)
	}
}
