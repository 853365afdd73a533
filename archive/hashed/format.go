package hashed

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/internal/hash"
)

const (
	// HeaderSize is the size of the archive header.
	HeaderSize = 0x10
	// RecordSize is the size of one table record.
	RecordSize = 0x14
	// DefaultBlockSize is the payload alignment.
	DefaultBlockSize = 0x800
	// DefaultMaxEntrySize bounds the declared size of a compressed entry.
	DefaultMaxEntrySize = 1 << 28

	hashMultiplier = 0x83
)

// FlagCompressed marks payloads stored deflated. Readers decide by comparing
// sizes; the flag is informational.
const FlagCompressed uint32 = 1

var order = binary.LittleEndian

// Canonical returns the form of path that PathHash hashes: backslash
// separators, ASCII upper case, prefixed with `.\`. Bytes outside ASCII are
// left unchanged.
func Canonical(path string) string {
	p := upperASCII(strings.ReplaceAll(path, "/", `\`))
	if strings.HasPrefix(p, `.\`) {
		return p
	}
	return `.\` + strings.TrimLeft(p, `\`)
}

// PathHash hashes the canonical path from its last character to its first:
// h = h*0x83 + c. Archive paths are ASCII; a non-ASCII path is hashed byte
// by byte over its UTF-8 encoding, which other tools for the format do not
// reproduce. Add and Update reject such paths.
func PathHash(path string) uint32 {
	return hash.Reverse(Canonical(path), hashMultiplier)
}

// IsASCII reports whether path can be stored in an archive.
func IsASCII(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Header is the archive header.
type Header struct {
	EntryCount uint32
	Capacity   uint32
	BlockSize  uint32
	Reserved   uint32
}

func (h Header) tableEnd() int64 {
	return HeaderSize + int64(h.Capacity)*RecordSize
}

func (h Header) dataStart() int64 {
	return alignUp(h.tableEnd(), int64(h.BlockSize))
}

func parseHeader(b []byte) (Header, error) {
	c := byteio.NewCursor(b, order)
	h := Header{
		EntryCount: c.U32(),
		Capacity:   c.U32(),
		BlockSize:  c.U32(),
		Reserved:   c.U32(),
	}
	if err := c.Err(); err != nil {
		return Header{}, err
	}
	switch {
	case h.EntryCount > h.Capacity:
		return Header{}, errs.Formatf(0, "Header", "entry count %d exceeds capacity %d", h.EntryCount, h.Capacity)
	case h.BlockSize == 0 || h.BlockSize&(h.BlockSize-1) != 0:
		return Header{}, errs.Formatf(8, "Header", "block size 0x%x is not a power of two", h.BlockSize)
	}
	return h, nil
}

func (h Header) bytes() []byte {
	b := make([]byte, HeaderSize)
	order.PutUint32(b[0:], h.EntryCount)
	order.PutUint32(b[4:], h.Capacity)
	order.PutUint32(b[8:], h.BlockSize)
	order.PutUint32(b[12:], h.Reserved)
	return b
}

// Entry is one table record.
type Entry struct {
	Index            int
	Hash             uint32
	Offset           uint32
	UncompressedSize uint32
	CompressedSize   uint32
	Flags            uint32
}

// Compressed reports whether the stored payload must be inflated.
func (e Entry) Compressed() bool { return e.CompressedSize != e.UncompressedSize }

func recordOffset(i int) int64 { return HeaderSize + int64(i)*RecordSize }

func parseRecords(b []byte, count int) ([]Entry, error) {
	c := byteio.NewCursor(b, order)
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = Entry{
			Index:            i,
			Hash:             c.U32(),
			Offset:           c.U32(),
			UncompressedSize: c.U32(),
			CompressedSize:   c.U32(),
			Flags:            c.U32(),
		}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (e Entry) bytes() []byte {
	b := make([]byte, RecordSize)
	order.PutUint32(b[0:], e.Hash)
	order.PutUint32(b[4:], e.Offset)
	order.PutUint32(b[8:], e.UncompressedSize)
	order.PutUint32(b[12:], e.CompressedSize)
	order.PutUint32(b[16:], e.Flags)
	return b
}

func alignUp(v, n int64) int64 {
	return (v + n - 1) &^ (n - 1)
}
