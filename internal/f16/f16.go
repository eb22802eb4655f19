// Package f16 converts raster samples between float32 and IEEE-754 binary16.
//
// Half-float rasters are uploaded two bytes per sample; the conversions here
// round to nearest, ties to even.
package f16

import (
	"encoding/binary"
	"math"
)

// Bits is a binary16 bit pattern: 1 sign bit, 5 exponent bits (bias 15) and
// 10 fraction bits.
type Bits uint16

// Size is the encoded size of one sample in bytes.
const Size = 2

const (
	signBit  Bits = 0x8000
	expBits  Bits = 0x7C00
	fracBits Bits = 0x03FF

	f32Exp  uint32 = 0x7F800000
	f32Frac uint32 = 0x007FFFFF
)

// ToFloat32 widens h.
func ToFloat32(h Bits) float32 {
	sign := uint32(h&signBit) << 16
	exp := uint32(h&expBits) >> 10
	frac := uint32(h & fracBits)

	switch {
	case exp == 0x1F:
		return math.Float32frombits(sign | f32Exp | frac<<13)
	case exp != 0:
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	case frac == 0:
		return math.Float32frombits(sign)
	}

	// Subnormal: shift the fraction up until the implicit bit appears.
	e := uint32(127 - 14)
	for frac&0x0400 == 0 {
		frac <<= 1
		e--
	}
	return math.Float32frombits(sign | e<<23 | (frac&0x03FF)<<13)
}

// FromFloat32 narrows f. Out-of-range values saturate to infinity, tiny values
// flush through the subnormal range to zero and NaN stays a quiet NaN.
func FromFloat32(f float32) Bits {
	b := math.Float32bits(f)
	sign := Bits(b>>16) & signBit
	exp := int32(b&f32Exp>>23) - 127 + 15
	frac := b & f32Frac

	if b&f32Exp == f32Exp {
		if frac == 0 {
			return sign | expBits
		}
		return sign | expBits | 0x0200 | Bits(frac>>13)&fracBits
	}
	if b&f32Exp == 0 {
		return sign
	}
	if exp >= 0x1F {
		return sign | expBits
	}

	if exp <= 0 {
		if exp < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(14 - exp)
		return sign | Bits(roundShift(mant, shift))
	}

	m := roundShift(frac, 13)
	if m == 0x0400 {
		m = 0
		exp++
		if exp >= 0x1F {
			return sign | expBits
		}
	}
	return sign | Bits(uint32(exp)<<10) | Bits(m)
}

// roundShift shifts v right by n bits, rounding to nearest even.
func roundShift(v, n uint32) uint32 {
	q := v >> n
	rem := v & (1<<n - 1)
	half := uint32(1) << (n - 1)
	if rem > half || (rem == half && q&1 == 1) {
		q++
	}
	return q
}

// PutSlice encodes src into dst in native byte order.
// dst must hold at least len(src)*Size bytes.
func PutSlice(dst []byte, src []float32) {
	_ = dst[:len(src)*Size]
	for i, v := range src {
		binary.NativeEndian.PutUint16(dst[i*Size:], uint16(FromFloat32(v)))
	}
}

// Slice decodes native-order half floats from src.
func Slice(src []byte) []float32 {
	out := make([]float32, len(src)/Size)
	for i := range out {
		out[i] = ToFloat32(Bits(binary.NativeEndian.Uint16(src[i*Size:])))
	}
	return out
}
