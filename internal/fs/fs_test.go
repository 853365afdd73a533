package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.bin")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("J"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	got, err := ReadAt(lfs, fpath, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, "ello", string(got))

	_, err = ReadAt(lfs, fpath, 3, 4)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	tmpFile, err := lfs.CreateTemp(dir, "rebuild-*")
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	newPath := filepath.Join(dir, "renamed.bin")
	require.NoError(t, lfs.Rename(tmpFile.Name(), newPath))
	_, err = lfs.Stat(newPath)
	require.NoError(t, err)

	require.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".arc", Fault{FailAfterBytes: 4})

	path := filepath.Join(t.TempDir(), "game.arc")
	f, err := ffs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("e"), 4)
	require.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_Rules(t *testing.T) {
	boom := errors.New("boom")
	dir := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("data", Fault{FailAfterBytes: -1, FailOnSync: true, Err: boom})
	ffs.AddRule("data.tmp", Fault{FailAfterBytes: -1, FailOnClose: true})
	ffs.AddRule("final", Fault{FailAfterBytes: -1, FailOnRename: true})
	ffs.AddRule("locked", Fault{FailAfterBytes: -1, FailOnOpen: true})

	f, err := ffs.OpenFile(filepath.Join(dir, "data.arc"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.ErrorIs(t, f.Sync(), boom)
	require.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(dir, "data.tmp"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.ErrorIs(t, f.Close(), ErrInjected)

	err = ffs.Rename(filepath.Join(dir, "data.arc"), filepath.Join(dir, "final.arc"))
	require.ErrorIs(t, err, ErrInjected)

	_, err = ffs.OpenFile(filepath.Join(dir, "locked.arc"), os.O_CREATE|os.O_RDWR, 0o644)
	require.ErrorIs(t, err, ErrInjected)

	// Files without a rule pass through unwrapped.
	plain, err := ffs.CreateTemp(dir, "plain-*")
	require.NoError(t, err)
	_, wrapped := plain.(*faultyFile)
	assert.False(t, wrapped)
	require.NoError(t, plain.Close())

	ffs.Reset()
	require.NoError(t, ffs.Rename(filepath.Join(dir, "data.arc"), filepath.Join(dir, "final.arc")))
}
