package vfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/archive/tree"
	"github.com/hupe1980/resforge/blobstore"
	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/fs"
)

func newTree(t *testing.T, files map[string]string) *tree.Archive {
	t.Helper()
	ctx := context.Background()
	b := tree.NewBuilder()
	for p, data := range files {
		require.NoError(t, b.Add(p, []byte(data)))
	}
	img, err := b.Build()
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	require.NoError(t, img.Write(ctx, store, "game"))
	a, err := tree.Open(ctx, store, "game")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ui", "icon.png"), []byte("png"), 0o644))

	d := NewDir(root, nil)
	assert.True(t, d.Exists(ctx, "ui/icon.png"))
	assert.True(t, d.Exists(ctx, `ui\icon.png`))
	assert.False(t, d.Exists(ctx, "ui"))

	data, err := d.Read(ctx, "/ui/icon.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	rc, n, err := d.Open(ctx, "ui/icon.png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, rc.Close())

	_, err = d.Read(ctx, "ui/missing.png")
	require.ErrorIs(t, err, errs.ErrNotFound)

	// Parent references stay inside the root.
	_, err = d.Read(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDirFault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.bin"), []byte("a"), 0o644))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("a.bin", fs.Fault{FailAfterBytes: -1, FailOnOpen: true})

	_, err := NewDir(root, ffs).Read(context.Background(), "a.bin")
	require.ErrorIs(t, err, fs.ErrInjected)
	assert.False(t, errs.IsNotFound(err))
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	patch := newTree(t, map[string]string{"ui/icon.png": "patched"})
	base := newTree(t, map[string]string{
		"ui/icon.png":     "original",
		"tracks/alps.trk": "alps",
	})

	arcPath := filepath.Join(t.TempDir(), "extra.arc")
	extra, err := hashed.Create(arcPath, 4)
	require.NoError(t, err)
	require.NoError(t, extra.Add("cars/gt.car", []byte("gt")))

	c := NewChain(patch, base, extra)
	assert.Equal(t, 3, c.Len())

	data, err := c.Read(ctx, "ui/icon.png")
	require.NoError(t, err)
	assert.Equal(t, "patched", string(data))

	data, err = c.Read(ctx, "tracks/alps.trk")
	require.NoError(t, err)
	assert.Equal(t, "alps", string(data))

	rc, n, err := c.Open(ctx, "CARS/GT.CAR")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "gt", string(got))

	assert.Equal(t, 0, c.Locate(ctx, "ui/icon.png"))
	assert.Equal(t, 1, c.Locate(ctx, "tracks/alps.trk"))
	assert.Equal(t, -1, c.Locate(ctx, "nope"))
	assert.False(t, c.Exists(ctx, "nope"))

	_, err = c.Read(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, _, err = c.Open(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

type failingFS struct{ err error }

func (f failingFS) Exists(context.Context, string) bool { return false }
func (f failingFS) Read(context.Context, string) ([]byte, error) {
	return nil, f.err
}
func (f failingFS) Open(context.Context, string) (io.ReadCloser, int64, error) {
	return nil, 0, f.err
}

func TestChainStopsOnFatalError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	fallback := newTree(t, map[string]string{"a.txt": "a"})

	c := NewChain(failingFS{err: boom}, fallback)
	_, err := c.Read(ctx, "a.txt")
	require.ErrorIs(t, err, boom)

	c = NewChain(failingFS{err: errs.NotFound("a.txt")}, fallback)
	data, err := c.Read(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}
