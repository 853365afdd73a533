package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "DATA.M00")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMapping_ReadAndSlice(t *testing.T) {
	m, err := Open(writeFile(t, []byte("Hello, archive!")))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 15, m.Size())
	assert.Equal(t, []byte("Hello, archive!"), m.Bytes())

	s, err := m.Slice(7, 7)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(s))

	_, err = m.Slice(10, 10)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	buf := make([]byte, 10)
	n, err := m.ReadAt(buf, 7)
	assert.Equal(t, 8, n)
	assert.Equal(t, io.EOF, err)

	n, err = m.ReadAt(buf, 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)

	require.NoError(t, m.Advise(AccessRandom))
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	s, err := m.Slice(0, 0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMapping_AfterClose(t *testing.T) {
	m, err := Open(writeFile(t, []byte("data")))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	_, err = m.Slice(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
