package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "ui/data.M00"
	data := []byte("hello world, this is a test blob for resforge")

	require.NoError(t, store.Put(ctx, blobName, data))

	_, err := os.Stat(filepath.Join(tmpDir, "ui", "data.M00"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.NoError(t, rangeReader.Close())
	require.Equal(t, "this", string(rangeContent))

	mapped, ok := blob.(Mappable)
	require.True(t, ok)
	raw, err := mapped.Bytes()
	require.NoError(t, err)
	require.Equal(t, data, raw)

	require.NoError(t, store.Put(ctx, "ui/data.M01", []byte("second")))
	require.NoError(t, store.Put(ctx, "other.TOC", []byte("toc")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"other.TOC", "ui/data.M00", "ui/data.M01"}, names)

	names, err = store.List(ctx, "ui/")
	require.NoError(t, err)
	require.Equal(t, []string{"ui/data.M00", "ui/data.M01"}, names)

	require.NoError(t, store.Delete(ctx, "other.TOC"))
	require.NoError(t, store.Delete(ctx, "other.TOC"))

	_, err = store.Open(ctx, "other.TOC")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalBlobStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	require.True(t, bytes.Equal(data, content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))

	_, err = blob.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)

	_, err = ReadFull(ctx, blob, 8, 5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	got, err := ReadFull(ctx, blob, 2, 3)
	require.NoError(t, err)
	require.Equal(t, "234", string(got))
}

func TestLocalBlobStore_EmptyAndMissingRoot(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, store.Put(ctx, "empty", nil))
	all, err := ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	src := []byte("payload")
	require.NoError(t, store.Put(ctx, "a/b", src))
	src[0] = 'X'

	got, err := ReadAll(ctx, store, "a/b")
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	_, err = store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "a/c", nil))
	require.NoError(t, store.Put(ctx, "z", nil))
	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/b", "a/c"}, names)

	require.NoError(t, store.Delete(ctx, "a/b"))
	_, err = store.Open(ctx, "a/b")
	require.ErrorIs(t, err, ErrNotFound)
}
