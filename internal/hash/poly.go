package hash

// Reverse computes a multiplicative hash over s from the last byte to the
// first: h = h*mul + c, wrapping at 32 bits.
func Reverse(s string, mul uint32) uint32 {
	var h uint32
	for i := len(s) - 1; i >= 0; i-- {
		h = h*mul + uint32(s[i])
	}
	return h
}
