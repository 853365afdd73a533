package resforge

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/resforge/errs"
)

var (
	// ErrFormat is returned for malformed resources and archives.
	ErrFormat = errs.ErrFormat
	// ErrMissingData is returned when a backing file or mandatory pointer is absent.
	ErrMissingData = errs.ErrMissingData
	// ErrDanglingReference is returned by a save pass with an unplaced pointer target.
	ErrDanglingReference = errs.ErrDanglingReference
	// ErrNotFound is returned when no mount holds a path.
	ErrNotFound = errs.ErrNotFound
	// ErrTableFull is returned when a hashed archive has no free slot.
	ErrTableFull = errs.ErrTableFull

	// ErrReadOnly is returned when a write targets a mount that cannot be
	// modified in place.
	ErrReadOnly = errors.New("mount is read-only")
	// ErrClosed is returned by a closed workspace.
	ErrClosed = errors.New("workspace closed")
)

// MountError identifies the mount a failure came from.
//
// The original underlying error can be accessed via errors.Unwrap.
type MountError struct {
	Kind  string
	Path  string
	cause error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s %s: %v", e.Kind, e.Path, e.cause)
}

func (e *MountError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification. blobstore.ErrNotFound is os.ErrNotExist.
	if !errors.Is(err, errs.ErrNotFound) && errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
