package analytics

import "github.com/peter-kozarec/sage/pkg/fixed"

// Regime classifies the current volatility state of a symbol.
type Regime uint8

const (
	RegimeUnknown Regime = iota
	RegimeLowVol
	RegimeNormal
	RegimeHighVol
	RegimeChange
)

func (r Regime) String() string {
	switch r {
	case RegimeLowVol:
		return "low-vol"
	case RegimeNormal:
		return "normal"
	case RegimeHighVol:
		return "high-vol"
	case RegimeChange:
		return "regime-change"
	default:
		return "unknown"
	}
}

// regimeDetector tracks an EWMA of volatility and a slower EWMA of the
// absolute tick-over-tick change in that volatility (vol-of-vol). A
// regime-change is declared when vol-of-vol exceeds a configurable multiple
// of the volatility baseline.
type regimeDetector struct {
	volEWMA      *ewmaMean
	volOfVolEWMA *ewmaMean

	lastVol    fixed.Point
	haveLast   bool
	multiplier fixed.Point

	lowVolThreshold  fixed.Point
	highVolThreshold fixed.Point

	current Regime
}

// ewmaMean is a bare recursive mean with no variance tracking, used for the
// regime detector's two EWMA tracks which need only a smoothed level.
type ewmaMean struct {
	alpha     fixed.Point
	oneMinusA fixed.Point
	value     fixed.Point
	primed    bool
}

func newEWMAMean(halfLife float64) *ewmaMean {
	a := alphaFromHalfLife(halfLife)
	return &ewmaMean{alpha: a, oneMinusA: fixed.One.Sub(a)}
}

func (m *ewmaMean) push(x fixed.Point) fixed.Point {
	if !m.primed {
		m.value = x
		m.primed = true
		return m.value
	}
	m.value = m.alpha.Mul(x).Add(m.oneMinusA.Mul(m.value))
	return m.value
}

// newRegimeDetector builds a detector. volHalfLife drives the fast
// volatility EWMA; volOfVolHalfLife (expected to be a larger half-life,
// i.e. slower) drives the vol-of-vol EWMA. multiplier is the vol-of-vol /
// volatility-baseline ratio that triggers a regime-change classification.
func newRegimeDetector(volHalfLife, volOfVolHalfLife float64, multiplier fixed.Point, lowVolThreshold, highVolThreshold fixed.Point) *regimeDetector {
	return &regimeDetector{
		volEWMA:          newEWMAMean(volHalfLife),
		volOfVolEWMA:     newEWMAMean(volOfVolHalfLife),
		multiplier:       multiplier,
		lowVolThreshold:  lowVolThreshold,
		highVolThreshold: highVolThreshold,
		current:          RegimeUnknown,
	}
}

// update feeds the latest volatility estimate (e.g. rolling stdDev) and
// returns the updated regime classification.
func (d *regimeDetector) update(vol fixed.Point) Regime {
	volBaseline := d.volEWMA.push(vol)

	var volChange fixed.Point
	if d.haveLast {
		volChange = vol.Sub(d.lastVol).Abs()
	}
	d.lastVol = vol
	d.haveLast = true

	volOfVol := d.volOfVolEWMA.push(volChange)

	switch {
	case volOfVol.Gt(d.multiplier.Mul(volBaseline)) && volBaseline.Gt(fixed.Zero):
		d.current = RegimeChange
	case volBaseline.Lt(d.lowVolThreshold):
		d.current = RegimeLowVol
	case volBaseline.Gt(d.highVolThreshold):
		d.current = RegimeHighVol
	default:
		d.current = RegimeNormal
	}
	return d.current
}
