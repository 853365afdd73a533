package tree

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
)

const (
	// Magic opens every TOC file.
	Magic = "TOC1"
	// HeaderSize is the size of the clear header.
	HeaderSize = 0x18
	// EntrySize is the size of one entry record.
	EntrySize = 0x18
	// MaxDataFiles is the number of data file names the .Mnn suffix allows.
	MaxDataFiles = 100

	// TOCExt is appended to the archive base name for the TOC file.
	TOCExt = ".TOC"

	mungeSeed uint32 = 0x2f6b8c1d
)

// TOCName returns the TOC file name of base.
func TOCName(base string) string { return base + TOCExt }

// DataFileName returns the name of data file i of base.
func DataFileName(base string, i int) string { return fmt.Sprintf("%s.M%02d", base, i) }

// Munge XORs b in place with the TOC keystream. The transform is its own
// inverse.
func Munge(b []byte) {
	state := mungeSeed
	for i := range b {
		state = state*1103515245 + 12345
		b[i] ^= byte(state >> 16)
	}
}

// Unmunge reverses Munge.
func Unmunge(b []byte) { Munge(b) }

// Header is the clear TOC header.
//
//	0x00 magic "TOC1"
//	0x04 u32 entry count
//	0x08 u32 data file count
//	0x0c u32 table offset
//	0x10 u32 string pool offset
//	0x14 u32 string pool size
type Header struct {
	EntryCount       uint32
	DataFileCount    uint32
	TableOffset      uint32
	StringPoolOffset uint32
	StringPoolSize   uint32
}

func parseHeader(c *byteio.Cursor) (Header, error) {
	magic := c.Bytes(len(Magic))
	if c.Err() == nil && string(magic) != Magic {
		return Header{}, errs.Formatf(0, "Header", "bad magic %q", magic)
	}
	h := Header{
		EntryCount:       c.U32(),
		DataFileCount:    c.U32(),
		TableOffset:      c.U32(),
		StringPoolOffset: c.U32(),
		StringPoolSize:   c.U32(),
	}
	if err := c.Err(); err != nil {
		return Header{}, err
	}

	size := uint64(c.Len())
	switch {
	case h.EntryCount == 0:
		return Header{}, errs.Formatf(4, "Header", "archive has no root entry")
	case h.DataFileCount > MaxDataFiles:
		return Header{}, errs.Formatf(8, "Header", "%d data files exceed the limit of %d", h.DataFileCount, MaxDataFiles)
	case h.TableOffset < HeaderSize || uint64(h.TableOffset)+uint64(h.EntryCount)*EntrySize > size:
		return Header{}, errs.Formatf(0xc, "Header", "entry table [0x%x, +%d entries) outside file (len 0x%x)", h.TableOffset, h.EntryCount, size)
	case h.StringPoolOffset < HeaderSize || uint64(h.StringPoolOffset)+uint64(h.StringPoolSize) > size:
		return Header{}, errs.Formatf(0x10, "Header", "string pool [0x%x, +0x%x) outside file (len 0x%x)", h.StringPoolOffset, h.StringPoolSize, size)
	}
	return h, nil
}

func (h Header) put(w *byteio.Writer) error {
	if err := w.PutBytes(0, []byte(Magic)); err != nil {
		return err
	}
	for i, v := range []uint32{h.EntryCount, h.DataFileCount, h.TableOffset, h.StringPoolOffset, h.StringPoolSize} {
		if err := w.PutU32(4+4*i, v); err != nil {
			return err
		}
	}
	return nil
}

// Entry is one TOC record with its resolved path.
//
//	0x00 u32 name hash
//	0x04 u32 is directory
//	0x08 i32 parent entry (directories) or data file index (files)
//	0x0c u32 first child (directories) or data offset (files)
//	0x10 u32 child count (directories) or data size (files)
//	0x14 u32 name offset into the string pool
type Entry struct {
	Index              int
	NameHash           uint32
	IsDir              bool
	ParentOrBin        int32
	OffsetOrFirstChild uint32
	SizeOrChildCount   uint32
	NameOffset         uint32
	Name               string
	// Path is the slash-separated path from the root; empty for the root
	// and for entries no directory reaches.
	Path string
}

// Bin returns the data file index of a file entry.
func (e Entry) Bin() int { return int(e.ParentOrBin) }

// Offset returns the data offset of a file entry.
func (e Entry) Offset() int64 { return int64(e.OffsetOrFirstChild) }

// Size returns the data size of a file entry.
func (e Entry) Size() int64 { return int64(e.SizeOrChildCount) }

// Parent returns the parent index of a directory entry.
func (e Entry) Parent() int { return int(e.ParentOrBin) }

// FirstChild returns the first child index of a directory entry.
func (e Entry) FirstChild() int { return int(e.OffsetOrFirstChild) }

// ChildCount returns the number of children of a directory entry.
func (e Entry) ChildCount() int { return int(e.SizeOrChildCount) }

func entryOffset(h Header, i int) int64 {
	return int64(h.TableOffset) + int64(i)*EntrySize
}

func parseEntries(c *byteio.Cursor, h Header) ([]Entry, error) {
	entries := make([]Entry, h.EntryCount)
	for i := range entries {
		at := entryOffset(h, i)
		c.Seek(int(at))
		e := Entry{
			Index:              i,
			NameHash:           c.U32(),
			IsDir:              c.U32() != 0,
			ParentOrBin:        c.I32(),
			OffsetOrFirstChild: c.U32(),
			SizeOrChildCount:   c.U32(),
			NameOffset:         c.U32(),
		}
		if err := c.Err(); err != nil {
			return nil, err
		}
		if e.NameOffset >= h.StringPoolSize {
			return nil, errs.Formatf(at, "Entry", "name offset 0x%x outside string pool (size 0x%x)", e.NameOffset, h.StringPoolSize)
		}
		e.Name = c.CString(int(h.StringPoolOffset + e.NameOffset))
		if err := c.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir && (e.ParentOrBin < 0 || uint32(e.ParentOrBin) >= h.DataFileCount) {
			return nil, errs.Formatf(at, "Entry", "data file %d out of range (%d data files)", e.ParentOrBin, h.DataFileCount)
		}
		entries[i] = e
	}
	return entries, nil
}

// Clean normalizes a lookup path: backslashes become slashes and leading or
// trailing separators are dropped.
func Clean(p string) string {
	return strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
}

func orderOrDefault(o binary.ByteOrder) binary.ByteOrder {
	if o == nil {
		return binary.LittleEndian
	}
	return o
}
