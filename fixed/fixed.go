// Package fixed holds the signed fixed-point helpers shared by the arithmetic
// units. A raw value v in a Format with F scale bits represents v / 2^F.
package fixed

// Format is a signed fixed-point encoding with ScaleBits fractional bits.
type Format struct {
	ScaleBits uint
}

// Scale returns 2^ScaleBits, the raw value of 1.0.
func (f Format) Scale() int64 {
	return 1 << f.ScaleBits
}

// Int returns the raw encoding of the integer n.
func (f Format) Int(n int64) int64 {
	return n << f.ScaleBits
}

// FloorDiv divides a by b rounding toward negative infinity.
// b must be positive.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// FloorShift is FloorDiv(a, 2^n). Go's signed right shift is arithmetic,
// which is exactly floor division by a power of two.
func FloorShift(a int64, n uint) int64 {
	return a >> n
}

// SignExtend interprets the low width bits of v as a two's complement number.
func SignExtend(v int64, width uint) int64 {
	if width == 0 || width >= 64 {
		return v
	}
	shift := 64 - width
	return (v << shift) >> shift
}

// Fits reports whether v is representable as a width-bit signed value.
func Fits(v int64, width uint) bool {
	return SignExtend(v, width) == v
}
