// Package alu implements one Mandelbrot iteration step, Z' = Z² + C, in
// fixed point.
//
// Z is held in units of 1/S with S = 2^ScaleBits, so the squared terms come
// out in units of 1/S². The constant term is brought to the same units by
// RescaleK, and the sums are divided back to 1/S by an arithmetic shift of
// Shift bits (floor division).
package alu

import (
	"fmt"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/fixed"
)

// DefaultScaleBits gives S = 512, which covers |Z| < 2 in 11 signed bits.
const DefaultScaleBits = 9

// Params are the build parameters of the unit.
type Params struct {
	Format fixed.Format
	// RescaleK multiplies C before it is added to the squared terms.
	RescaleK int64
	// Shift divides the pre-rescale sums back to the Z format.
	Shift uint
	// MulWidth is the operand width of the multipliers.
	MulWidth uint
}

// NewParams returns the canonical parameters for scaleBits fractional bits:
// K = S, Shift = scaleBits, and multipliers wide enough for Z in [-2, 2).
func NewParams(scaleBits uint) Params {
	w := scaleBits + 2
	if w%2 != 0 {
		w++
	}
	return Params{
		Format:   fixed.Format{ScaleBits: scaleBits},
		RescaleK: 1 << scaleBits,
		Shift:    scaleBits,
		MulWidth: w,
	}
}

func DefaultParams() Params {
	return NewParams(DefaultScaleBits)
}

// Bound is the exclusive upper and inclusive lower limit of t_zr and t_zi.
func (p Params) Bound() int64 {
	return 2 << (2 * p.Format.ScaleBits)
}

// EscapeThreshold is |Z|² = 4 in units of 1/S².
func (p Params) EscapeThreshold() int64 {
	return 4 << (2 * p.Format.ScaleBits)
}

func (p Params) Validate() error {
	if p.Format.ScaleBits == 0 || p.Format.ScaleBits > 14 {
		return fmt.Errorf("%w: scale bits %d out of range [1,14]", mandel.ErrInvalidConfig, p.Format.ScaleBits)
	}
	if p.RescaleK <= 0 {
		return fmt.Errorf("%w: rescale constant %d must be positive", mandel.ErrInvalidConfig, p.RescaleK)
	}
	if p.MulWidth < p.Format.ScaleBits+2 || p.MulWidth%2 != 0 || p.MulWidth > 30 {
		return fmt.Errorf("%w: multiplier width %d cannot hold Z with %d scale bits",
			mandel.ErrInvalidConfig, p.MulWidth, p.Format.ScaleBits)
	}
	return nil
}

type Input struct {
	Zr, Zi int64
	Cr, Ci int64
}

// Output carries the next iterate, the flags and the intermediate values.
// Zr and Zi are not meaningful when Overflow is set.
type Output struct {
	M1, M2, M3 int64
	TZr, TZi   int64
	Zr, Zi     int64

	Overflow bool
	Size     bool
}

// Step is the combinational reference of the unit.
func Step(p Params, in Input) Output {
	return combine(p, in, in.Zr*in.Zr, in.Zi*in.Zi, in.Zr*in.Zi)
}

func combine(p Params, in Input, m1, m2, m3 int64) Output {
	out := Output{M1: m1, M2: m2, M3: m3}

	out.TZr = (m1 - m2) + in.Cr*p.RescaleK
	out.TZi = 2*m3 + in.Ci*p.RescaleK

	bound := p.Bound()
	out.Overflow = out.TZr < -bound || out.TZr >= bound || out.TZi < -bound || out.TZi >= bound

	out.Zr = fixed.FloorShift(out.TZr, p.Shift)
	out.Zi = fixed.FloorShift(out.TZi, p.Shift)

	out.Size = m1+m2 >= p.EscapeThreshold()
	return out
}
