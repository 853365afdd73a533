// Package platform describes the target platforms resources are built for.
//
// A Profile fixes the pointer width, byte order and default format version of
// one target. The profile table is fixed at package level. Lookup, Parse and
// All hand out copies, so a caller changing its Profile affects no one else.
package platform

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ID identifies a target platform.
type ID uint8

const (
	Win32 ID = iota
	PS3
	Xbox360
	WiiU
	Android
)

// Profile holds the per-target serialization parameters.
type Profile struct {
	ID   ID
	Name string
	// PointerSize is the width of a stored pointer in bytes (4 or 8).
	PointerSize int
	// Order is the byte order of every multi-byte primitive.
	Order     binary.ByteOrder
	BigEndian bool
	// DefaultVersion is the format version the platform ships with. Layouts
	// that changed between desktop and mobile builds branch on it.
	DefaultVersion int
}

func (p *Profile) String() string { return p.Name }

// AtLeastDefault reports whether version is at or above the platform default.
func (p *Profile) AtLeastDefault(version int) bool {
	return version >= p.DefaultVersion
}

var profiles = [...]Profile{
	Win32:   {ID: Win32, Name: "win32", PointerSize: 4, Order: binary.LittleEndian, DefaultVersion: 1},
	PS3:     {ID: PS3, Name: "ps3", PointerSize: 4, Order: binary.BigEndian, BigEndian: true, DefaultVersion: 1},
	Xbox360: {ID: Xbox360, Name: "x360", PointerSize: 4, Order: binary.BigEndian, BigEndian: true, DefaultVersion: 1},
	WiiU:    {ID: WiiU, Name: "wiiu", PointerSize: 4, Order: binary.BigEndian, BigEndian: true, DefaultVersion: 2},
	Android: {ID: Android, Name: "android", PointerSize: 8, Order: binary.LittleEndian, DefaultVersion: 3},
}

var aliases = map[string]ID{
	"win32":   Win32,
	"pc":      Win32,
	"windows": Win32,
	"ps3":     PS3,
	"x360":    Xbox360,
	"xbox360": Xbox360,
	"wiiu":    WiiU,
	"android": Android,
}

// Lookup returns a copy of the profile for id.
func Lookup(id ID) (*Profile, error) {
	if int(id) >= len(profiles) {
		return nil, fmt.Errorf("unknown platform id %d", id)
	}
	p := profiles[id]
	return &p, nil
}

// MustLookup is like Lookup but panics on an unknown id.
func MustLookup(id ID) *Profile {
	p, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse resolves a platform name (case-insensitive, common aliases accepted).
func Parse(name string) (*Profile, error) {
	id, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", name)
	}
	return Lookup(id)
}

// All returns copies of every known profile in ID order.
func All() []*Profile {
	out := make([]*Profile, len(profiles))
	for i := range profiles {
		p := profiles[i]
		out[i] = &p
	}
	return out
}
