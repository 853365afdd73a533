package codec

import (
	"reflect"

	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/platform"
)

// Object is the contract every serializable resource type implements.
//
// Implementations must be pointer types: identity for pointer sharing is
// pointer identity.
type Object interface {
	// Decode reads the record starting at the context's current position.
	Decode(lc *LoadContext) error
	// Encode writes the record into r at explicit field offsets.
	Encode(sc *SaveContext, r *Region) error
	// Size returns the serialized record size for a platform and version.
	Size(p *platform.Profile, version int) int
}

// Pointer constrains P to be *T and to implement Object.
type Pointer[T any] interface {
	*T
	Object
}

// Aligner is implemented by objects whose records need more than the
// default pointer-size alignment.
type Aligner interface {
	Alignment(p *platform.Profile, version int) int
}

// VectorAlign is the alignment of vector-aligned float data.
const VectorAlign = 0x10

func sizeOf[T any, P Pointer[T]](p *platform.Profile, version int) int {
	var zero T
	return P(&zero).Size(p, version)
}

// layoutOf returns the record size of T, its alignment and the distance
// between consecutive inline records (size rounded up to the alignment).
func layoutOf[T any, P Pointer[T]](p *platform.Profile, version int) (size, align, stride int) {
	var zero T
	obj := P(&zero)
	size = obj.Size(p, version)
	align = alignOf(obj, p, version)
	return size, align, byteio.AlignUp(size, align)
}

func alignOf(o Object, p *platform.Profile, version int) int {
	if a, ok := o.(Aligner); ok {
		if n := a.Alignment(p, version); n > 0 {
			return n
		}
	}
	return p.PointerSize
}

func isNil(o Object) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func typeName(o any) string {
	t := reflect.TypeOf(o)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
