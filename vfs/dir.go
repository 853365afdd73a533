package vfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/fs"
)

// Dir serves files from a directory on disk.
type Dir struct {
	root string
	fsys fs.FileSystem
}

// NewDir returns a Dir rooted at root. A nil fsys uses the local file system.
func NewDir(root string, fsys fs.FileSystem) *Dir {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Dir{root: root, fsys: fsys}
}

// Root returns the directory root.
func (d *Dir) Root() string { return d.root }

// resolve maps an archive path to a file name below root. Paths cannot
// escape the root.
func (d *Dir) resolve(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return filepath.Join(d.root, filepath.FromSlash(p))
}

func (d *Dir) stat(p string) (os.FileInfo, error) {
	info, err := d.fsys.Stat(d.resolve(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NotFound(p)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, errs.NotFound(p)
	}
	return info, nil
}

// Exists reports whether p names a regular file.
func (d *Dir) Exists(_ context.Context, p string) bool {
	_, err := d.stat(p)
	return err == nil
}

// Read returns the content of p.
func (d *Dir) Read(ctx context.Context, p string) ([]byte, error) {
	rc, _, err := d.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Open returns a reader for p and its size.
func (d *Dir) Open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	info, err := d.stat(p)
	if err != nil {
		return nil, 0, err
	}
	f, err := fs.Open(d.fsys, d.resolve(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, errs.NotFound(p)
		}
		return nil, 0, err
	}
	return f, info.Size(), nil
}
