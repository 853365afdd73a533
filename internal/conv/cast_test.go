package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	got, err := IntToUint32(0x800)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x800), got)

	_, err = IntToUint32(-1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestInt64ToUint32(t *testing.T) {
	got, err := Int64ToUint32(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Int64ToUint32(math.MaxUint32 + 1)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = Int64ToUint32(-5)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestInt64ToInt32(t *testing.T) {
	got, err := Int64ToInt32(-1)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), got)

	_, err = Int64ToInt32(math.MaxInt32 + 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUint32ToInt(t *testing.T) {
	got, err := Uint32ToInt(math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, got)
}
