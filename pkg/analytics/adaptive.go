package analytics

import "github.com/peter-kozarec/sage/pkg/fixed"

// adaptiveWindow tracks a variance-scaled effective lookback: in calm
// markets the effective window widens toward baseWindow for a smoother,
// less reactive estimate; in volatile markets it shrinks toward minWindow
// so the estimate adapts faster. The underlying sample buffer is a fixed
// power-of-two ring shared with rollingStats' push/evict bookkeeping.
type adaptiveWindow struct {
	window ring

	baseWindow uint32
	minWindow  uint32
	volScale   fixed.Point

	sum        fixed.Point
	sumSquares fixed.Point

	baselineVar fixed.Point
	currentVar  fixed.Point
}

// newAdaptiveWindow builds an adaptiveWindow backed by a ring of capacity
// baseWindow. minWindow is the floor the effective window will not shrink
// below regardless of volatility; volScale controls how aggressively the
// effective window reacts to the current/baseline variance ratio.
func newAdaptiveWindow(baseWindow, minWindow uint32, volScale fixed.Point) *adaptiveWindow {
	return &adaptiveWindow{
		window:     newRing(baseWindow),
		baseWindow: baseWindow,
		minWindow:  minWindow,
		volScale:   volScale,
	}
}

func (a *adaptiveWindow) push(v fixed.Point) {
	evicted, didEvict := a.window.push(v)

	if didEvict {
		a.sum = a.sum.Sub(evicted).Add(v)
		a.sumSquares = a.sumSquares.Sub(evicted.Mul(evicted)).Add(v.Mul(v))
	} else {
		a.sum = a.sum.Add(v)
		a.sumSquares = a.sumSquares.Add(v.Mul(v))
	}

	a.updateVariance()
}

func (a *adaptiveWindow) updateVariance() {
	if a.window.size < 2 {
		return
	}
	n := fixed.FromInt(int64(a.window.size))
	mean := a.sum.Div(n)
	meanSquares := a.sumSquares.Div(n)
	a.currentVar = meanSquares.Sub(mean.Mul(mean))
	if a.currentVar.Lt(fixed.Zero) {
		a.currentVar = fixed.Zero
	}

	if a.baselineVar.IsZero() {
		a.baselineVar = a.currentVar
		return
	}
	// baseline = 0.99 * baseline + 0.01 * current, a slow-moving EWMA so the
	// baseline reflects the regime, not the last sample.
	ninetyNine := fixed.FromInt(99)
	hundred := fixed.FromInt(100)
	a.baselineVar = a.baselineVar.Mul(ninetyNine).Add(a.currentVar).Div(hundred)
}

// volatilityRatio is current variance over the slow-moving baseline, scaled
// by fixed.One so a ratio of 1.0 means "typical" volatility. Returns
// fixed.One when no baseline has been established yet.
func (a *adaptiveWindow) volatilityRatio() fixed.Point {
	if a.baselineVar.Lte(fixed.Zero) {
		return fixed.One
	}
	return a.currentVar.Mul(fixed.One).Div(a.baselineVar)
}

// effectiveWindow returns the current volatility-scaled lookback, clamped
// to [minWindow, baseWindow]. Below minWindow samples it just returns the
// sample count, since there isn't yet a baseline to scale against.
func (a *adaptiveWindow) effectiveWindow() uint32 {
	if a.window.size < a.minWindow {
		return a.window.size
	}
	if a.baselineVar.Lte(fixed.Zero) {
		return a.baseWindow
	}

	ratio := a.volatilityRatio()
	denominator := fixed.One.Add(ratio.Mul(a.volScale))
	if denominator.Lte(fixed.Zero) {
		denominator = fixed.One
	}

	eff := fixed.FromInt(int64(a.baseWindow)).Div(denominator)
	effWindow := uint32(eff.Float64())

	if effWindow < a.minWindow {
		return a.minWindow
	}
	if effWindow > a.baseWindow {
		return a.baseWindow
	}
	return effWindow
}

func (a *adaptiveWindow) ready() bool {
	return a.window.size >= a.minWindow
}
