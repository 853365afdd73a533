package resource

import (
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/platform"
)

// Mesh is a renderable mesh whose vertex payload lives in the GPU buffer.
//
// Layout (vector aligned):
//
//	0x00        BoundsMin [4]f32
//	0x10        BoundsMax [4]f32
//	0x20        Name string ptr
//	0x20+ps     VertexCount u32
//	0x24+ps     IndexCount u32
//	0x28+ps     StreamCount u8, Flags u8 (swapped below the platform default version)
//	0x2a+ps     reserved u16
//	0x2c+ps     VertexData GPU offset u32
//	0x30+ps     VertexData size u32
//	aligned     Streams ptr (inline records)
type Mesh struct {
	BoundsMin   [4]float32
	BoundsMax   [4]float32
	Name        string
	VertexCount uint32
	IndexCount  uint32
	Flags       uint8
	Streams     []*Stream
	VertexData  []byte
}

func meshStreamsOff(ps int) int { return byteio.AlignUp(0x34+ps, ps) }

func (m *Mesh) Size(p *platform.Profile, _ int) int {
	return meshStreamsOff(p.PointerSize) + p.PointerSize
}

func (m *Mesh) Alignment(*platform.Profile, int) int { return codec.VectorAlign }

func (m *Mesh) Decode(lc *codec.LoadContext) error {
	for i := range m.BoundsMin {
		m.BoundsMin[i] = lc.ReadF32()
	}
	for i := range m.BoundsMax {
		m.BoundsMax[i] = lc.ReadF32()
	}
	m.Name = lc.ReadStringPointer()
	m.VertexCount = lc.ReadU32()
	m.IndexCount = lc.ReadU32()

	var streamCount int
	if lc.AtLeastDefault() {
		streamCount = int(lc.ReadU8())
		m.Flags = lc.ReadU8()
	} else {
		m.Flags = lc.ReadU8()
		streamCount = int(lc.ReadU8())
	}
	lc.Skip(2)

	gpuOff := int64(lc.ReadU32())
	gpuSize := int(lc.ReadU32())
	lc.Align(lc.PointerSize())
	streamsOff := lc.ReadPointer()

	streams, err := codec.LoadArray[Stream](lc, streamsOff, streamCount)
	if err != nil {
		return err
	}
	m.Streams = streams
	if gpuSize > 0 {
		m.VertexData = lc.GPUBytes(gpuOff, gpuSize)
	}
	return lc.Err()
}

func (m *Mesh) Encode(sc *codec.SaveContext, r *codec.Region) error {
	ps := sc.PointerSize()
	for i, v := range m.BoundsMin {
		r.PutF32(i*4, v)
	}
	for i, v := range m.BoundsMax {
		r.PutF32(0x10+i*4, v)
	}
	if err := sc.SaveString(r, 0x20, m.Name); err != nil {
		return err
	}
	r.PutU32(0x20+ps, m.VertexCount)
	r.PutU32(0x24+ps, m.IndexCount)

	if len(m.Streams) > 0xff {
		return errTooMany(r.Offset(), "Mesh", "streams", len(m.Streams), 0xff)
	}
	countAt, flagsAt := 0x28+ps, 0x29+ps
	if !sc.AtLeastDefault() {
		countAt, flagsAt = flagsAt, countAt
	}
	r.PutU8(countAt, uint8(len(m.Streams)))
	r.PutU8(flagsAt, m.Flags)

	if len(m.VertexData) > 0 {
		off := sc.AllocateGPU(m.VertexData, codec.VectorAlign)
		r.PutU32(0x2c+ps, uint32(off))
		r.PutCount(0x30+ps, len(m.VertexData))
	}
	return codec.SaveObjectArray(sc, r, -1, meshStreamsOff(ps), m.Streams, 0)
}

// Stream describes one vertex stream.
//
// Layout: Stride u16 | Format u8 | Semantic u8.
type Stream struct {
	Stride   uint16
	Format   uint8
	Semantic uint8
}

func (s *Stream) Size(*platform.Profile, int) int      { return 4 }
func (s *Stream) Alignment(*platform.Profile, int) int { return 4 }

func (s *Stream) Decode(lc *codec.LoadContext) error {
	s.Stride = lc.ReadU16()
	s.Format = lc.ReadU8()
	s.Semantic = lc.ReadU8()
	return lc.Err()
}

func (s *Stream) Encode(_ *codec.SaveContext, r *codec.Region) error {
	r.PutU16(0, s.Stride)
	r.PutU8(2, s.Format)
	r.PutU8(3, s.Semantic)
	return r.Err()
}
