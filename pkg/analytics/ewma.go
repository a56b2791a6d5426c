package analytics

import (
	"math"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

// alphaFromHalfLife derives the EWMA smoothing factor alpha = 1 - exp(-ln2 /
// halfLife) from a half-life expressed in ticks. This is an init-time-only
// computation (it calls into math, not fixed.Point arithmetic) -- floating
// point is acceptable here since it never runs on the hot path.
func alphaFromHalfLife(halfLife float64) fixed.Point {
	if halfLife <= 0 {
		return fixed.One
	}
	a := 1 - math.Exp(-math.Ln2/halfLife)
	return fixed.FromFloat64(a)
}

// ewmaStats tracks a recursive exponentially-weighted mean and variance:
//
//	mean_t = alpha*x_t + (1-alpha)*mean_{t-1}
//	var_t  = (1-alpha)*(var_{t-1} + alpha*(x_t - mean_{t-1})^2)
type ewmaStats struct {
	alpha      fixed.Point
	oneMinusA  fixed.Point
	mean       fixed.Point
	variance   fixed.Point
	stdDev     fixed.Point
	primed     bool
}

func newEWMAStats(halfLife float64) *ewmaStats {
	a := alphaFromHalfLife(halfLife)
	return &ewmaStats{
		alpha:     a,
		oneMinusA: fixed.One.Sub(a),
	}
}

func (e *ewmaStats) push(x fixed.Point) {
	if !e.primed {
		e.mean = x
		e.variance = fixed.Zero
		e.stdDev = fixed.Zero
		e.primed = true
		return
	}

	prevMean := e.mean
	e.mean = e.alpha.Mul(x).Add(e.oneMinusA.Mul(prevMean))

	delta := x.Sub(prevMean)
	e.variance = e.oneMinusA.Mul(e.variance.Add(e.alpha.Mul(delta.Mul(delta))))
	if e.variance.Gt(fixed.Zero) {
		e.stdDev = e.variance.Sqrt()
	} else {
		e.variance = fixed.Zero
		e.stdDev = fixed.Zero
	}
}
