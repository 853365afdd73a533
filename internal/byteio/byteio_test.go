package byteio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/hupe1980/resforge/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EndiannessYieldsSameValue(t *testing.T) {
	le := []byte{0x78, 0x56, 0x34, 0x12}
	be := []byte{0x12, 0x34, 0x56, 0x78}

	a := NewCursor(le, binary.LittleEndian).U32()
	b := NewCursor(be, binary.BigEndian).U32()

	assert.Equal(t, uint32(0x12345678), a)
	assert.Equal(t, a, b)
}

func TestCursor_Primitives(t *testing.T) {
	w := NewWriter(binary.BigEndian)
	w.Grow(32)
	require.NoError(t, w.PutU8(0, 0xFF))
	require.NoError(t, w.PutU16(2, 0xBEEF))
	require.NoError(t, w.PutU32(4, 0xFFFFFFFE))
	require.NoError(t, w.PutU64(8, 1<<40))
	require.NoError(t, w.PutF32(16, 1.5))
	require.NoError(t, w.PutF16(20, -2))
	require.NoError(t, w.PutU8(22, 1))

	c := NewCursor(w.Bytes(), binary.BigEndian)
	assert.Equal(t, int8(-1), c.I8())
	c.Skip(1)
	assert.Equal(t, uint16(0xBEEF), c.U16())
	assert.Equal(t, int32(-2), c.I32())
	assert.Equal(t, int64(1<<40), c.I64())
	assert.Equal(t, float32(1.5), c.F32())
	assert.Equal(t, float32(-2), c.F16())
	assert.True(t, c.Bool())
	assert.Equal(t, 23, c.Pos())
	require.NoError(t, c.Err())
}

func TestCursor_StickyError(t *testing.T) {
	c := NewCursor([]byte{1, 2}, binary.LittleEndian)
	assert.Equal(t, uint32(0), c.U32())
	require.ErrorIs(t, c.Err(), errs.ErrFormat)

	// Later reads keep failing even though 1 byte would fit.
	assert.Equal(t, uint8(0), c.U8())
	assert.Equal(t, 0, c.Pos())
}

func TestCursor_Align(t *testing.T) {
	c := NewCursor(make([]byte, 64), binary.LittleEndian)
	c.Skip(3)
	c.Align(0x10)
	assert.Equal(t, 0x10, c.Pos())
	c.Align(0x10)
	assert.Equal(t, 0x10, c.Pos())

	c.Align(3)
	assert.ErrorIs(t, c.Err(), errs.ErrFormat)
}

func TestCursor_Strings(t *testing.T) {
	buf := []byte("abc\x00\x00\x00\x00\x00name\x00")
	c := NewCursor(buf, binary.LittleEndian)
	assert.Equal(t, "abc", c.FixedString(8))
	assert.Equal(t, "name", c.CString(8))
	assert.Equal(t, 8, c.Pos())

	c.CString(100)
	assert.ErrorIs(t, c.Err(), errs.ErrFormat)

	c = NewCursor([]byte("open"), binary.LittleEndian)
	c.CString(0)
	assert.ErrorIs(t, c.Err(), errs.ErrFormat)
}

func TestCursor_Uint(t *testing.T) {
	c := NewCursor([]byte{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}, binary.LittleEndian)
	assert.Equal(t, uint64(1), c.Uint(4))
	assert.Equal(t, uint64(2), c.Uint(8))
	c.Uint(3)
	assert.ErrorIs(t, c.Err(), errs.ErrFormat)
}

func TestWriter_BoundsChecked(t *testing.T) {
	w := NewWriter(binary.LittleEndian)
	start := w.Reserve(4, 1)
	assert.Equal(t, 0, start)

	require.ErrorIs(t, w.PutU64(0, 1), errs.ErrFormat)
	require.ErrorIs(t, w.PutU8(-1, 1), errs.ErrFormat)
	require.ErrorIs(t, w.PutUint(0, 2, 0x1FFFF), errs.ErrFormat)
}

func TestWriter_ReserveAligns(t *testing.T) {
	w := NewWriter(binary.LittleEndian)
	w.Reserve(3, 1)
	off := w.Reserve(8, 0x10)
	assert.Equal(t, 0x10, off)
	assert.Equal(t, 0x18, w.Len())

	at := w.Append([]byte{9, 9}, 4)
	assert.Equal(t, 0x18, at)
	assert.Equal(t, []byte{9, 9}, w.Bytes()[at:at+2])
}

func TestHalf_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   uint16
		want float32
	}{
		{"+0", 0x0000, 0},
		{"+1", 0x3C00, 1},
		{"-2", 0xC000, -2},
		{"max", 0x7BFF, 65504},
		{"+Inf", 0x7C00, float32(math.Inf(1))},
		{"min subnormal", 0x0001, float32(math.Ldexp(1, -24))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HalfToFloat32(tt.in))
		})
	}
}

func TestHalf_RoundTripPowersOfTwo(t *testing.T) {
	for e := -14; e <= 15; e++ {
		f := float32(math.Ldexp(1, e))
		assert.Equal(t, f, HalfToFloat32(Float32ToHalf(f)), "e=%d", e)
	}
}

func TestHalf_TiesToEven(t *testing.T) {
	step := float32(math.Ldexp(1, -10))
	assert.Equal(t, uint16(0x3C00), Float32ToHalf(1+step/2))
	assert.Equal(t, uint16(0x3C02), Float32ToHalf(1+step+step/2))
}

func TestHalf_NaN(t *testing.T) {
	h := Float32ToHalf(float32(math.NaN()))
	assert.Equal(t, halfExp, h&halfExp)
	assert.NotZero(t, h&halfFrac)
	assert.True(t, math.IsNaN(float64(HalfToFloat32(h))))
}
