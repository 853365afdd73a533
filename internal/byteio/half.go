package byteio

import "math"

// Half-precision floats are stored as raw IEEE-754 binary16 bit patterns:
// 1 sign bit, 5 exponent bits (bias 15), 10 fraction bits.

const (
	halfSign uint16 = 0x8000
	halfExp  uint16 = 0x7C00
	halfFrac uint16 = 0x03FF
)

// HalfToFloat32 widens a binary16 bit pattern.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&halfSign) << 16
	exp := uint32(h&halfExp) >> 10
	frac := uint32(h & halfFrac)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: shift until the implicit bit appears.
		e := int32(-14)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x03FF
		return math.Float32frombits(sign | uint32(127+e)<<23 | frac<<13)
	case 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | frac<<13)
	}
}

// Float32ToHalf narrows f to binary16, rounding to nearest even.
func Float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & halfSign
	exp := int32(bits>>23) & 0xFF
	frac := bits & 0x007FFFFF

	if exp == 0xFF {
		if frac == 0 {
			return sign | halfExp
		}
		payload := uint16(frac>>13) | 0x0200
		return sign | halfExp | payload&halfFrac
	}
	if exp == 0 {
		return sign
	}

	e := exp - 127 + 15
	if e >= 0x1F {
		return sign | halfExp
	}
	if e <= 0 {
		if e < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(14 - e)
		m := mant >> shift
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && m&1 == 1) {
			m++
		}
		return sign | uint16(m)
	}

	m := frac >> 13
	rem := frac & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && m&1 == 1) {
		m++
		if m == 0x0400 {
			m = 0
			e++
			if e >= 0x1F {
				return sign | halfExp
			}
		}
	}
	return sign | uint16(e)<<10 | uint16(m)
}
