// Package errs defines the error taxonomy shared by the codec and the archive
// readers.
//
// Format, missing-data and dangling-reference errors are fatal for the current
// load/save pass. ErrNotFound is the only non-fatal kind: archives return it
// for a path lookup miss so callers can fall back to another archive.
package errs

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrFormat is returned for bad magic, unsupported versions, unknown type
	// discriminants, out-of-range offsets and decompression length mismatches.
	ErrFormat = errors.New("format error")

	// ErrMissingData is returned when a backing file is absent or a mandatory
	// pointer is null.
	ErrMissingData = errors.New("missing data")

	// ErrDanglingReference is returned by a save pass when a pointer target was
	// never allocated.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrNotFound is returned when an archive path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTableFull is returned when a hashed archive has no free entry slot.
	ErrTableFull = errors.New("entry table full")
)

// FormatError carries the location of a format violation.
type FormatError struct {
	Offset int64
	Type   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("format error at 0x%x: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("format error at 0x%x (%s): %s", e.Offset, e.Type, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Formatf builds a FormatError at the given offset.
func Formatf(offset int64, typ, format string, args ...any) error {
	return &FormatError{Offset: offset, Type: typ, Reason: fmt.Sprintf(format, args...)}
}

// Missingf wraps ErrMissingData with a message.
func Missingf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingData, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the looked-up path.
func NotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

// IsNotFound reports whether err is a lookup miss, including the os-level
// not-exist errors surfaced by blob stores and plain directories.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
