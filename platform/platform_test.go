package platform

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		ptr     int
		big     bool
		wantErr bool
	}{
		{"win32", 4, false, false},
		{"PC", 4, false, false},
		{"ps3", 4, true, false},
		{"Xbox360", 4, true, false},
		{"wiiu", 4, true, false},
		{"android", 8, false, false},
		{"dreamcast", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ptr, p.PointerSize)
			assert.Equal(t, tt.big, p.BigEndian)
			if tt.big {
				assert.Equal(t, binary.BigEndian, p.Order)
			} else {
				assert.Equal(t, binary.LittleEndian, p.Order)
			}
		})
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	a, err := Lookup(PS3)
	require.NoError(t, err)
	b := MustLookup(PS3)
	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)

	a.PointerSize = 8
	a.Order = binary.LittleEndian
	assert.Equal(t, 4, MustLookup(PS3).PointerSize)
	assert.Equal(t, binary.BigEndian, MustLookup(PS3).Order)

	all := All()
	all[Win32].DefaultVersion = 9
	assert.Equal(t, 1, All()[Win32].DefaultVersion)
	p, err := Parse("win32")
	require.NoError(t, err)
	assert.Equal(t, 1, p.DefaultVersion)

	_, err = Lookup(ID(200))
	assert.Error(t, err)
}

func TestAtLeastDefault(t *testing.T) {
	p := MustLookup(Android)
	assert.False(t, p.AtLeastDefault(p.DefaultVersion-1))
	assert.True(t, p.AtLeastDefault(p.DefaultVersion))
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	for i, p := range all {
		assert.Equal(t, ID(i), p.ID)
	}
}
