package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatError(t *testing.T) {
	err := Formatf(0x40, "keyframes", "unknown entry type %d", 9)

	require.ErrorIs(t, err, ErrFormat)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(0x40), fe.Offset)
	assert.Equal(t, "format error at 0x40 (keyframes): unknown entry type 9", err.Error())

	wrapped := fmt.Errorf("load: %w", err)
	assert.ErrorIs(t, wrapped, ErrFormat)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("ui/icon.png")))
	assert.True(t, IsNotFound(fmt.Errorf("open: %w", fs.ErrNotExist)))
	assert.False(t, IsNotFound(ErrFormat))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestMissingf(t *testing.T) {
	err := Missingf("data file %s", "DATA.M01")
	assert.ErrorIs(t, err, ErrMissingData)
	assert.Contains(t, err.Error(), "DATA.M01")
}
