package hashed

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/hupe1980/resforge/errs"
)

// isZlib reports whether b starts with a zlib stream header.
func isZlib(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// inflate decompresses a zlib or raw deflate payload to exactly size bytes.
// Declared sizes above limit are rejected before any allocation, and the
// output grows with the data actually inflated.
func inflate(payload []byte, size int, limit int64, at int64) ([]byte, error) {
	if size < 0 {
		return nil, errs.Formatf(at, "Entry", "invalid declared size %d", size)
	}
	if limit > 0 && int64(size) > limit {
		return nil, errs.Formatf(at, "Entry", "declared size %d exceeds the limit of %d", size, limit)
	}
	var r io.ReadCloser
	if isZlib(payload) {
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, errs.Formatf(at, "Entry", "zlib header: %v", err)
		}
		r = zr
	} else {
		r = flate.NewReader(bytes.NewReader(payload))
	}
	defer r.Close()

	var out bytes.Buffer
	out.Grow(min(size, 4*len(payload)+initialInflateBuffer))
	n, err := io.Copy(&out, io.LimitReader(r, int64(size)+1))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, errs.Formatf(at, "Entry", "inflate: %v", err)
	}
	switch {
	case n > int64(size):
		return nil, errs.Formatf(at, "Entry", "inflated data exceeds %d bytes", size)
	case n < int64(size):
		return nil, errs.Formatf(at, "Entry", "inflated %d of %d bytes", n, size)
	}
	return out.Bytes(), nil
}

const initialInflateBuffer = 4096

// deflate compresses data as a zlib stream. ok is false when compression
// does not shrink the payload.
func deflate(data []byte, level int) (out []byte, ok bool, err error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, false, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, false, err
	}
	if err := zw.Close(); err != nil {
		return nil, false, err
	}
	if buf.Len() >= len(data) {
		return nil, false, nil
	}
	return buf.Bytes(), true, nil
}
