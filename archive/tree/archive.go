package tree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/hupe1980/resforge/blobstore"
	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
)

// ErrClosed is returned by reads on a closed Archive.
var ErrClosed = errors.New("tree: archive is closed")

// Archive is an open tree-TOC archive.
type Archive struct {
	base    string
	header  Header
	entries []Entry
	index   map[string]int
	blobs   []blobstore.Blob
	logger  *slog.Logger
	closed  atomic.Bool
}

// Open reads base.TOC from store and opens every data file it declares.
// A missing TOC or data file yields errs.ErrMissingData.
func Open(ctx context.Context, store blobstore.BlobStore, base string, optFns ...Option) (*Archive, error) {
	o := applyOptions(optFns)

	tocName := TOCName(base)
	raw, err := blobstore.ReadAll(ctx, store, tocName)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Missingf("archive TOC %s", tocName)
		}
		return nil, fmt.Errorf("read %s: %w", tocName, err)
	}

	a, err := parse(raw, o)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", tocName, err)
	}
	a.base = base

	a.blobs = make([]blobstore.Blob, a.header.DataFileCount)
	for i := range a.blobs {
		name := DataFileName(base, i)
		b, err := store.Open(ctx, name)
		if err != nil {
			_ = a.Close()
			if errs.IsNotFound(err) {
				return nil, errs.Missingf("archive data file %s", name)
			}
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		a.blobs[i] = b
	}

	a.logger.Debug("tree archive opened",
		"base", base,
		"entries", len(a.entries),
		"files", len(a.index),
		"data_files", len(a.blobs),
	)
	return a, nil
}

// Parse decodes TOC bytes without opening data files. The returned Archive
// can list and look up entries but not read them.
func Parse(raw []byte, optFns ...Option) (*Archive, error) {
	return parse(raw, applyOptions(optFns))
}

func parse(raw []byte, o options) (*Archive, error) {
	buf := bytes.Clone(raw)
	if len(buf) > HeaderSize {
		Unmunge(buf[HeaderSize:])
	}

	c := byteio.NewCursor(buf, o.order)
	h, err := parseHeader(c)
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(c, h)
	if err != nil {
		return nil, err
	}
	index, err := resolve(h, entries)
	if err != nil {
		return nil, err
	}
	return &Archive{header: h, entries: entries, index: index, logger: o.logger}, nil
}

// Base returns the archive base name.
func (a *Archive) Base() string { return a.base }

// Header returns the TOC header.
func (a *Archive) Header() Header { return a.header }

// Entries returns all entries in table order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Files returns the reachable file entries sorted by path.
func (a *Archive) Files() []Entry {
	out := make([]Entry, 0, len(a.index))
	for _, i := range a.index {
		out = append(out, a.entries[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Exists reports whether path names a file.
func (a *Archive) Exists(_ context.Context, path string) bool {
	_, ok := a.index[Clean(path)]
	return ok
}

// Entry returns the file entry for path or errs.ErrNotFound.
func (a *Archive) Entry(path string) (Entry, error) {
	i, ok := a.index[Clean(path)]
	if !ok {
		return Entry{}, errs.NotFound(path)
	}
	return a.entries[i], nil
}

func (a *Archive) locate(path string) (Entry, blobstore.Blob, error) {
	if a.closed.Load() {
		return Entry{}, nil, ErrClosed
	}
	e, err := a.Entry(path)
	if err != nil {
		return Entry{}, nil, err
	}
	if e.Bin() >= len(a.blobs) {
		return Entry{}, nil, errs.Missingf("data file %d of %s is not open", e.Bin(), path)
	}
	blob := a.blobs[e.Bin()]
	if e.Offset()+e.Size() > blob.Size() {
		return Entry{}, nil, errs.Formatf(e.Offset(), "Entry", "%s [0x%x, +0x%x) exceeds %s (size 0x%x)",
			path, e.Offset(), e.Size(), DataFileName(a.base, e.Bin()), blob.Size())
	}
	return e, blob, nil
}

// Read returns the content of path.
func (a *Archive) Read(ctx context.Context, path string) ([]byte, error) {
	e, blob, err := a.locate(path)
	if err != nil {
		return nil, err
	}
	data, err := blobstore.ReadFull(ctx, blob, e.Offset(), int(e.Size()))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	a.logger.Debug("tree archive read", "path", e.Path, "bin", e.Bin(), "size", e.Size())
	return data, nil
}

// Open returns a reader for path and its size.
func (a *Archive) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	e, blob, err := a.locate(path)
	if err != nil {
		return nil, 0, err
	}
	if e.Size() == 0 {
		return io.NopCloser(bytes.NewReader(nil)), 0, nil
	}
	rc, err := blob.ReadRange(ctx, e.Offset(), e.Size())
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	return rc, e.Size(), nil
}

// Close closes the data files.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	var errList []error
	for _, b := range a.blobs {
		if b != nil {
			errList = append(errList, b.Close())
		}
	}
	return errors.Join(errList...)
}
