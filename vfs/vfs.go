// Package vfs defines the read-only virtual filesystem contract shared by
// archives and plain directories, and an ordered chain of mounts.
//
// Lookups that miss return an error matching errs.ErrNotFound; any other
// error is fatal for the lookup and stops a Chain from falling through.
package vfs

import (
	"context"
	"io"

	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/archive/tree"
)

// FS is a read-only view of files addressed by slash-separated paths.
type FS interface {
	Exists(ctx context.Context, path string) bool
	Read(ctx context.Context, path string) ([]byte, error)
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
}

var (
	_ FS = (*tree.Archive)(nil)
	_ FS = (*hashed.Archive)(nil)
	_ FS = (*Dir)(nil)
	_ FS = (*Chain)(nil)
)
