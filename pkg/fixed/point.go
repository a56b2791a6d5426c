// Package fixed implements the deterministic fixed-point decimal used for
// every price and quantity on the pipeline's hot path.
package fixed

import (
	"math"
	"math/bits"
	"strconv"
)

// Scale is the number of fractional decimal digits carried by every Point.
const Scale = 8

// scaleFactor is 10^Scale as an int64.
const scaleFactor = 100_000_000

// Point is a signed 64-bit integer scaled by 10^8. It is the sole
// representation for prices and quantities on the hot path: trivially
// copyable, no heap allocation, no arbitrary-precision growth.
type Point struct {
	v int64
}

var (
	Zero = Point{0}
	One  = Point{scaleFactor}
)

// FromInt builds a Point representing the integer value (no fractional part).
func FromInt(value int64) Point {
	return Point{value * scaleFactor}
}

// FromRaw wraps an already-scaled int64 (v is in units of 10^-8).
func FromRaw(v int64) Point {
	return Point{v}
}

// FromParts builds a Point from an integer part and a fractional numerator
// expressed in the same 10^8 scale, e.g. FromParts(1, 50_000_000) == 1.5.
func FromParts(integer int64, frac int64) Point {
	return Point{integer*scaleFactor + frac}
}

// FromFloat64 converts a float64 to a Point. Init-time use only: never call
// this on the hot path, the conversion is not branchless and loses precision
// silently for values outside float64's exact-integer range.
func FromFloat64(f float64) Point {
	return Point{int64(math.Round(f * scaleFactor))}
}

// Raw returns the underlying scaled integer (units of 10^-8).
func (p Point) Raw() int64 { return p.v }

// Float64 converts back to a float64, for display only.
func (p Point) Float64() float64 {
	return float64(p.v) / scaleFactor
}

// String renders the value with up to 8 fractional digits, trimming
// trailing zeros.
func (p Point) String() string {
	neg := p.v < 0
	v := p.v
	if neg {
		v = -v
	}
	intPart := v / scaleFactor
	fracPart := v % scaleFactor

	s := strconv.FormatInt(intPart, 10)
	if fracPart != 0 {
		frac := strconv.FormatInt(fracPart, 10)
		for len(frac) < Scale {
			frac = "0" + frac
		}
		for len(frac) > 1 && frac[len(frac)-1] == '0' {
			frac = frac[:len(frac)-1]
		}
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}
	return s
}

// StringFixed renders with exactly n fractional digits (used by the audit
// log, which always writes 8 decimal places).
func (p Point) StringFixed(n int) string {
	neg := p.v < 0
	v := p.v
	if neg {
		v = -v
	}
	intPart := v / scaleFactor
	fracPart := v % scaleFactor

	frac := strconv.FormatInt(fracPart, 10)
	for len(frac) < Scale {
		frac = "0" + frac
	}
	if n < Scale {
		frac = frac[:n]
	} else {
		for len(frac) < n {
			frac += "0"
		}
	}

	s := strconv.FormatInt(intPart, 10)
	if n > 0 {
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}
	return s
}

// Add returns p+o. Overflow wraps in the 64-bit domain: callers
// must keep values within the safe envelope.
func (p Point) Add(o Point) Point { return Point{p.v + o.v} }

// Sub returns p-o, wrapping on overflow.
func (p Point) Sub(o Point) Point { return Point{p.v - o.v} }

// Neg returns -p.
func (p Point) Neg() Point { return Point{-p.v} }

// Abs returns |p|.
func (p Point) Abs() Point {
	mask := p.v >> 63
	return Point{(p.v ^ mask) - mask}
}

// Min returns the smaller of p and o.
func (p Point) Min(o Point) Point {
	if p.v < o.v {
		return p
	}
	return o
}

// Max returns the larger of p and o.
func (p Point) Max(o Point) Point {
	if p.v > o.v {
		return p
	}
	return o
}

// Mul computes p*o with a 128-bit intermediate product, then divides by the
// scale factor, truncating toward zero. This is the only correct way to
// multiply two already-scaled fixed-point numbers without losing the low
// bits of the product.
func (p Point) Mul(o Point) Point {
	neg := (p.v < 0) != (o.v < 0)
	a := absU64(p.v)
	b := absU64(o.v)

	hi, lo := bits.Mul64(a, b)
	qHi, qLo := divScale(hi, lo)
	_ = qHi // the safe envelope guarantees qHi == 0; truncated otherwise

	result := int64(qLo)
	if neg {
		result = -result
	}
	return Point{result}
}

// Div computes p/o by scaling the dividend into a 128-bit intermediate
// before dividing, so fractional precision survives the division. Division
// by zero is a fatal contract violation and panics; the core does not mask
// it.
func (p Point) Div(o Point) Point {
	if o.v == 0 {
		panic("fixed: division by zero")
	}
	neg := (p.v < 0) != (o.v < 0)
	a := absU64(p.v)
	b := absU64(o.v)

	hi, lo := bits.Mul64(a, scaleFactor)
	q, _ := bits.Div64(hi, lo, b)

	result := int64(q)
	if neg {
		result = -result
	}
	return Point{result}
}

// MulInt multiplies by a plain (unscaled) integer.
func (p Point) MulInt(n int64) Point { return Point{p.v * n} }

// DivInt divides by a plain (unscaled) integer, truncating toward zero.
func (p Point) DivInt(n int64) Point {
	if n == 0 {
		panic("fixed: division by zero")
	}
	return Point{p.v / n}
}

// Cmp returns -1, 0, or 1 per the total order over the underlying int64.
func (p Point) Cmp(o Point) int {
	switch {
	case p.v < o.v:
		return -1
	case p.v > o.v:
		return 1
	default:
		return 0
	}
}

func (p Point) Eq(o Point) bool  { return p.v == o.v }
func (p Point) Gt(o Point) bool  { return p.v > o.v }
func (p Point) Lt(o Point) bool  { return p.v < o.v }
func (p Point) Gte(o Point) bool { return p.v >= o.v }
func (p Point) Lte(o Point) bool { return p.v <= o.v }
func (p Point) IsZero() bool     { return p.v == 0 }
func (p Point) Sign() int {
	switch {
	case p.v > 0:
		return 1
	case p.v < 0:
		return -1
	default:
		return 0
	}
}

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func absU64(v int64) uint64 {
	mask := v >> 63
	return uint64((v ^ mask) - mask)
}

// divScale divides the 128-bit (hi,lo) product by scaleFactor, returning the
// 128-bit quotient as (qHi,qLo). In the safe envelope qHi is always zero.
func divScale(hi, lo uint64) (qHi, qLo uint64) {
	if hi == 0 {
		return 0, lo / scaleFactor
	}
	q, _ := bits.Div64(hi%scaleFactor, lo, scaleFactor)
	qHiOuter := hi / scaleFactor
	return qHiOuter, q
}
