package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))

	h := NewCRC32C()
	_, _ = h.Write([]byte("1234"))
	_, _ = h.Write([]byte("56789"))
	assert.Equal(t, uint32(0xE3069283), h.Sum32())
}

func TestReverse(t *testing.T) {
	assert.Equal(t, uint32(0), Reverse("", 0x83))
	assert.Equal(t, uint32('A'), Reverse("A", 0x83))
	// "AB": 'B' first, then 'B'*0x83 + 'A'.
	assert.Equal(t, uint32('B')*0x83+uint32('A'), Reverse("AB", 0x83))
	assert.NotEqual(t, Reverse("AB", 0x83), Reverse("BA", 0x83))

	// Wraps at 32 bits.
	long := Reverse("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 0x83)
	assert.Equal(t, long, Reverse("ABCDEFGHIJKLMNOPQRSTUVWXYZ", 0x83))
}
