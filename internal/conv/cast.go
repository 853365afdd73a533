package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is wrapped by every conversion failure.
var ErrOverflow = errors.New("integer overflow")

// IntToUint32 converts a length or offset to a u32 field value.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit in u32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Int64ToUint32 converts a file offset to a u32 field value.
func Int64ToUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit in u32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Int64ToInt32 converts a value to an i32 field value.
func Int64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit in i32", ErrOverflow, v)
	}
	return int32(v), nil
}

// Uint32ToInt converts a u32 count read from disk to int.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit in int", ErrOverflow, v)
	}
	return int(v), nil
}
