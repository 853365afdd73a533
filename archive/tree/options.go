package tree

import (
	"encoding/binary"
	"io"
	"log/slog"
)

type options struct {
	order       binary.ByteOrder
	logger      *slog.Logger
	maxDataSize int64
	align       int
}

// Option configures Open and NewBuilder.
type Option func(*options)

// WithByteOrder sets the byte order of header and entry fields. Defaults to
// little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) { o.order = order }
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxDataFileSize starts a new data file once the current one would
// exceed n bytes. Zero keeps everything in one data file.
func WithMaxDataFileSize(n int64) Option {
	return func(o *options) { o.maxDataSize = n }
}

// WithDataAlignment sets the alignment of file payloads in data files.
// Defaults to 0x800.
func WithDataAlignment(n int) Option {
	return func(o *options) {
		if n > 0 && n&(n-1) == 0 {
			o.align = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{align: 0x800}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	o.order = orderOrDefault(o.order)
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
