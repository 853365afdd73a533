package hashed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/conv"
	"github.com/hupe1980/resforge/internal/fs"
)

// ErrExists is returned by Add when the path hash is already present.
var ErrExists = errors.New("hashed: entry already exists")

// ErrNonASCII is returned by Add and Update for paths with non-ASCII bytes.
var ErrNonASCII = errors.New("hashed: path is not ASCII")

// Archive is an open hashed-TOC archive file.
type Archive struct {
	path   string
	opts   options
	logger *slog.Logger

	mu      sync.RWMutex
	header  Header
	entries []Entry
}

// Open reads the header and entry table of the archive at path.
func Open(path string, optFns ...Option) (*Archive, error) {
	o := applyOptions(optFns)
	a := &Archive{path: path, opts: o, logger: o.logger}
	if err := a.load(); err != nil {
		return nil, err
	}
	a.logger.Debug("hashed archive opened", "path", path, "entries", a.header.EntryCount, "capacity", a.header.Capacity)
	return a, nil
}

// Create writes an empty archive with room for capacity entries and opens it.
func Create(path string, capacity int, optFns ...Option) (*Archive, error) {
	o := applyOptions(optFns)
	c, err := conv.IntToUint32(capacity)
	if err != nil {
		return nil, fmt.Errorf("hashed: capacity: %w", err)
	}
	h := Header{Capacity: c, BlockSize: o.blockSize}
	err = replaceFile(o.fsys, path, func(f fs.File) error {
		return writeTable(f, h, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return Open(path, optFns...)
}

func (a *Archive) load() error {
	raw, err := fs.ReadAt(a.opts.fsys, a.path, 0, HeaderSize)
	if err != nil {
		return a.readError(err, 0)
	}
	h, err := parseHeader(raw)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.path, err)
	}
	table, err := fs.ReadAt(a.opts.fsys, a.path, HeaderSize, int(h.EntryCount)*RecordSize)
	if err != nil {
		return a.readError(err, HeaderSize)
	}
	entries, err := parseRecords(table, int(h.EntryCount))
	if err != nil {
		return fmt.Errorf("open %s: %w", a.path, err)
	}
	a.header, a.entries = h, entries
	return nil
}

func (a *Archive) readError(err error, at int64) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return errs.Missingf("archive %s", a.path)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("read %s: %w", a.path, errs.Formatf(at, "", "file truncated"))
	default:
		return fmt.Errorf("read %s: %w", a.path, err)
	}
}

// Path returns the archive file path.
func (a *Archive) Path() string { return a.path }

// Header returns the current header.
func (a *Archive) Header() Header {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.header
}

// Entries returns the used records in table order.
func (a *Archive) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Archive) find(h uint32) int {
	for i, e := range a.entries {
		if e.Hash == h {
			return i
		}
	}
	return -1
}

// Lookup returns the first entry whose hash matches path.
func (a *Archive) Lookup(path string) (Entry, bool) {
	return a.LookupHash(PathHash(path))
}

// LookupHash returns the first entry with hash h.
func (a *Archive) LookupHash(h uint32) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i := a.find(h); i >= 0 {
		return a.entries[i], true
	}
	return Entry{}, false
}

// Entry returns the entry for path or errs.ErrNotFound.
func (a *Archive) Entry(path string) (Entry, error) {
	e, ok := a.Lookup(path)
	if !ok {
		return Entry{}, errs.NotFound(path)
	}
	return e, nil
}

// Exists reports whether path has an entry.
func (a *Archive) Exists(_ context.Context, path string) bool {
	_, ok := a.Lookup(path)
	return ok
}

// Read returns the content of path, inflated if stored compressed.
func (a *Archive) Read(ctx context.Context, path string) ([]byte, error) {
	e, err := a.Entry(path)
	if err != nil {
		return nil, err
	}
	data, err := a.ReadEntry(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ReadEntry returns the content of e.
func (a *Archive) ReadEntry(ctx context.Context, e Entry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := a.readRaw(e)
	if err != nil {
		return nil, err
	}
	if !e.Compressed() {
		return raw, nil
	}
	a.logger.Debug("hashed archive inflate", "hash", e.Hash, "compressed", e.CompressedSize, "size", e.UncompressedSize)
	return inflate(raw, int(e.UncompressedSize), a.opts.maxEntrySize, recordOffset(e.Index))
}

func (a *Archive) readRaw(e Entry) ([]byte, error) {
	raw, err := fs.ReadAt(a.opts.fsys, a.path, int64(e.Offset), int(e.CompressedSize))
	if err != nil {
		return nil, a.readError(err, recordOffset(e.Index))
	}
	return raw, nil
}

// Open returns a reader for path and its uncompressed size.
func (a *Archive) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	data, err := a.Read(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Close is a no-op; files are opened per operation.
func (a *Archive) Close() error { return nil }

func (a *Archive) encode(data []byte) (payload []byte, e Entry, err error) {
	if e.UncompressedSize, err = conv.IntToUint32(len(data)); err != nil {
		return nil, Entry{}, err
	}
	payload = data
	if a.opts.compress && len(data) > 0 {
		packed, ok, err := deflate(data, a.opts.level)
		if err != nil {
			return nil, Entry{}, err
		}
		if ok {
			payload = packed
			e.Flags |= FlagCompressed
		}
	}
	e.CompressedSize = uint32(len(payload))
	return payload, e, nil
}

// Add appends a new entry for path. It fails with errs.ErrTableFull when no
// slot is free and with ErrExists when the path hash is present.
func (a *Archive) Add(path string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !IsASCII(path) {
		return fmt.Errorf("add %q: %w", path, ErrNonASCII)
	}
	h := PathHash(path)
	if a.find(h) >= 0 {
		return fmt.Errorf("add %s: %w", path, ErrExists)
	}
	if a.header.EntryCount >= a.header.Capacity {
		return fmt.Errorf("add %s: %w (capacity %d)", path, errs.ErrTableFull, a.header.Capacity)
	}

	payload, e, err := a.encode(data)
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}
	e.Hash = h
	e.Index = len(a.entries)

	err = a.withFile(func(f fs.File) error {
		off, err := a.appendPayload(f, payload)
		if err != nil {
			return err
		}
		e.Offset = off
		if _, err := f.WriteAt(e.bytes(), recordOffset(e.Index)); err != nil {
			return err
		}
		next := a.header
		next.EntryCount++
		if _, err := f.WriteAt(next.bytes(), 0); err != nil {
			return err
		}
		return f.Sync()
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}

	a.header.EntryCount++
	a.entries = append(a.entries, e)
	a.logger.Debug("hashed archive add", "path", path, "hash", h, "offset", e.Offset, "size", e.UncompressedSize)
	return nil
}

// Update replaces the content of path. The payload is rewritten in place
// when it fits the old compressed size and appended otherwise.
func (a *Archive) Update(path string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !IsASCII(path) {
		return fmt.Errorf("update %q: %w", path, ErrNonASCII)
	}
	i := a.find(PathHash(path))
	if i < 0 {
		return errs.NotFound(path)
	}
	old := a.entries[i]

	payload, e, err := a.encode(data)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	e.Hash, e.Index = old.Hash, old.Index
	inPlace := e.CompressedSize <= old.CompressedSize

	err = a.withFile(func(f fs.File) error {
		if inPlace {
			e.Offset = old.Offset
			if _, err := f.WriteAt(payload, int64(old.Offset)); err != nil {
				return err
			}
		} else {
			off, err := a.appendPayload(f, payload)
			if err != nil {
				return err
			}
			e.Offset = off
		}
		if _, err := f.WriteAt(e.bytes(), recordOffset(e.Index)); err != nil {
			return err
		}
		return f.Sync()
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}

	a.entries[i] = e
	a.logger.Debug("hashed archive update", "path", path, "in_place", inPlace, "offset", e.Offset)
	return nil
}

// Rebuild repacks every payload into a new file with the given capacity,
// block aligned, and atomically replaces the archive.
func (a *Archive) Rebuild(capacity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := conv.IntToUint32(capacity)
	if err != nil {
		return fmt.Errorf("rebuild: capacity: %w", err)
	}
	if c < a.header.EntryCount {
		return fmt.Errorf("rebuild: capacity %d below entry count %d: %w", c, a.header.EntryCount, errs.ErrTableFull)
	}

	h := a.header
	h.Capacity = c
	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)

	err = replaceFile(a.opts.fsys, a.path, func(f fs.File) error {
		off := h.dataStart()
		for i := range entries {
			raw, err := a.readRaw(entries[i])
			if err != nil {
				return err
			}
			o, err := conv.Int64ToUint32(off)
			if err != nil {
				return err
			}
			entries[i].Offset = o
			if _, err := f.WriteAt(raw, off); err != nil {
				return err
			}
			off = alignUp(off+int64(len(raw)), int64(h.BlockSize))
		}
		if err := padTo(f, off); err != nil {
			return err
		}
		return writeTable(f, h, entries)
	})
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", a.path, err)
	}

	a.header, a.entries = h, entries
	a.logger.Debug("hashed archive rebuilt", "path", a.path, "entries", h.EntryCount, "capacity", h.Capacity)
	return nil
}

func (a *Archive) withFile(fn func(f fs.File) error) error {
	f, err := a.opts.fsys.OpenFile(a.path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.Missingf("archive %s", a.path)
		}
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// appendPayload writes p at the next block boundary past the end of f and
// pads the file to a block boundary.
func (a *Archive) appendPayload(f fs.File, p []byte) (uint32, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	bs := int64(a.header.BlockSize)
	off := max(alignUp(info.Size(), bs), a.header.dataStart())
	o, err := conv.Int64ToUint32(off)
	if err != nil {
		return 0, err
	}
	if _, err := f.WriteAt(p, off); err != nil {
		return 0, err
	}
	return o, padTo(f, alignUp(off+int64(len(p)), bs))
}

// padTo extends f with zeros up to size.
func padTo(f fs.File, size int64) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= size {
		return nil
	}
	_, err = f.WriteAt(make([]byte, size-info.Size()), info.Size())
	return err
}

// writeTable writes the header and a full table (unused slots zeroed) and
// pads to the first data block.
func writeTable(f fs.File, h Header, entries []Entry) error {
	h.EntryCount = uint32(len(entries))
	table := make([]byte, h.tableEnd())
	copy(table, h.bytes())
	for _, e := range entries {
		copy(table[recordOffset(e.Index):], e.bytes())
	}
	if _, err := f.WriteAt(table, 0); err != nil {
		return err
	}
	return padTo(f, h.dataStart())
}

// replaceFile fills a temporary file next to path and renames it over path.
func replaceFile(fsys fs.FileSystem, path string, fill func(f fs.File) error) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := fsys.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = fsys.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
