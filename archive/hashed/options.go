package hashed

import (
	"io"
	"log/slog"

	"github.com/klauspost/compress/zlib"

	"github.com/hupe1980/resforge/internal/fs"
)

type options struct {
	fsys      fs.FileSystem
	logger    *slog.Logger
	level     int
	compress  bool
	blockSize uint32

	maxEntrySize int64
}

// Option configures an Archive.
type Option func(*options)

// WithFileSystem sets the file system used for every file operation.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fsys = fsys }
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCompression deflates payloads written by Add and Update at the given
// zlib level. Payloads that do not shrink are stored raw.
func WithCompression(level int) Option {
	return func(o *options) {
		o.compress = true
		o.level = level
	}
}

// WithBlockSize sets the payload alignment for Create. Must be a power of
// two; defaults to 0x800.
func WithBlockSize(n uint32) Option {
	return func(o *options) {
		if n > 0 && n&(n-1) == 0 {
			o.blockSize = n
		}
	}
}

// WithMaxEntrySize bounds the declared uncompressed size of entries read
// from the archive. Zero or a negative value disables the check.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) { o.maxEntrySize = n }
}

func applyOptions(optFns []Option) options {
	o := options{
		level:        zlib.DefaultCompression,
		blockSize:    DefaultBlockSize,
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.fsys == nil {
		o.fsys = fs.Default
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
