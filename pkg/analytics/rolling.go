package analytics

import "github.com/peter-kozarec/sage/pkg/fixed"

// rollingStats maintains O(1) mean/variance over the last N observations by
// keeping a running sum and sum-of-squares alongside the window: each push
// subtracts the evicted value's contribution before adding the new one
// instead of rescanning the window.
type rollingStats struct {
	window     ring
	sum        fixed.Point
	sumSquares fixed.Point
	mean       fixed.Point
	variance   fixed.Point
	stdDev     fixed.Point
}

func newRollingStats(window uint32) *rollingStats {
	return &rollingStats{window: newRing(window)}
}

func (r *rollingStats) push(v fixed.Point) {
	evicted, didEvict := r.window.push(v)

	if didEvict {
		r.sum = r.sum.Sub(evicted).Add(v)
		r.sumSquares = r.sumSquares.Sub(evicted.Mul(evicted)).Add(v.Mul(v))
	} else {
		r.sum = r.sum.Add(v)
		r.sumSquares = r.sumSquares.Add(v.Mul(v))
	}

	n := fixed.FromInt(int64(r.window.size))
	r.mean = r.sum.Div(n)
	// variance = E[x^2] - E[x]^2
	r.variance = r.sumSquares.Div(n).Sub(r.mean.Mul(r.mean))
	if r.variance.Gt(fixed.Zero) {
		r.stdDev = r.variance.Sqrt()
	} else {
		r.variance = fixed.Zero
		r.stdDev = fixed.Zero
	}
}

func (r *rollingStats) ready() bool {
	return r.window.size > 0
}
