// Package resource holds consumer resource types built on the codec contract.
//
// Each type declares its record layout through Size, reads itself in Decode and
// writes itself at explicit field offsets in Encode. Variant payloads
// (keyframe entries, collision sections) are closed sets: unknown tags fail
// the whole load with errs.ErrFormat.
package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/platform"
)

// Kind names a resource type.
type Kind string

const (
	KindNavigation Kind = "nav"
	KindKeyframes  Kind = "keyframes"
	KindCollision  Kind = "collision"
	KindMesh       Kind = "mesh"
)

var kinds = map[Kind]func() codec.Object{
	KindNavigation: func() codec.Object { return new(Navigation) },
	KindKeyframes:  func() codec.Object { return new(Keyframes) },
	KindCollision:  func() codec.Object { return new(CollisionMesh) },
	KindMesh:       func() codec.Object { return new(Mesh) },
}

// Kinds returns every known kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return k, nil
}

// New returns an empty object of kind k.
func New(k Kind) (codec.Object, error) {
	fn, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", k)
	}
	return fn(), nil
}

// Decode loads a resource of kind k from buf.
func Decode(k Kind, buf []byte, p *platform.Profile, version int, opts ...codec.Option) (codec.Object, error) {
	obj, err := New(k)
	if err != nil {
		return nil, err
	}
	if err := codec.LoadInto(buf, p, version, obj, opts...); err != nil {
		return nil, err
	}
	return obj, nil
}

func errMissingValue(off int64) error {
	return errs.Formatf(off, "KeyEntry", "entry has no value")
}

func errUnknownKind(off int64, typ string, tag uint32) error {
	return errs.Formatf(off, typ, "unknown discriminant %d", tag)
}

func errTooMany(off int64, typ, what string, n, limit int) error {
	return errs.Formatf(off, typ, "%d %s exceed the limit of %d", n, what, limit)
}
