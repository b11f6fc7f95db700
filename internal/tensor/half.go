package tensor

import "math"

// Float16FromBits converts an IEEE 754 binary16 bit pattern to float32.
// Subnormals, infinities and NaN are handled.
func Float16FromBits(bits uint16) float32 {
	sign := uint32(bits>>15) & 1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff

	var f32bits uint32
	switch {
	case exp == 0 && frac == 0:
		// Signed zero
		f32bits = sign << 31
	case exp == 0:
		// Subnormal: normalize the fraction
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		f32bits = sign<<31 | e<<23 | frac<<13
	case exp == 0x1f:
		// Inf or NaN
		f32bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		f32bits = sign<<31 | (exp+127-15)<<23 | frac<<13
	}

	return math.Float32frombits(f32bits)
}

// Float16Bits converts a float32 to the nearest IEEE 754 binary16 bit
// pattern, rounding to nearest even. Values outside the half range
// overflow to infinity.
func Float16Bits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	frac := b & 0x7fffff

	switch {
	case exp >= 0x1f:
		if b&0x7fffffff > 0x7f800000 {
			// NaN: keep a non-zero payload
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		// Subnormal half
		frac |= 0x800000
		shift := uint32(14 - exp)
		half := uint32(1) << (shift - 1)
		//nolint:gosec // G115: shift keeps the value within 10 bits.
		return sign | uint16((frac+half)>>shift)
	default:
		// Round to nearest even on the dropped 13 bits
		rounded := frac + 0xfff + (frac>>13)&1
		if rounded&0x800000 != 0 {
			rounded = 0
			exp++
			if exp >= 0x1f {
				return sign | 0x7c00
			}
		}
		//nolint:gosec // G115: exponent fits in 5 bits after the overflow check.
		return sign | uint16(exp)<<10 | uint16(rounded>>13)
	}
}
