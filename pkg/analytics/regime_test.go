package analytics

import (
	"testing"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

func TestRegimeDetector_StableLowVolClassifiesLow(t *testing.T) {
	d := newRegimeDetector(20, 200, fixed.FromFloat64(2.0), fixed.FromFloat64(0.01), fixed.FromFloat64(1.0))
	var regime Regime
	for i := 0; i < 50; i++ {
		regime = d.update(fixed.FromFloat64(0.001))
	}
	if regime != RegimeLowVol {
		t.Errorf("regime = %s; want low-vol on a steady low-vol feed", regime)
	}
}

func TestRegimeDetector_SpikeTriggersRegimeChange(t *testing.T) {
	d := newRegimeDetector(20, 200, fixed.FromFloat64(2.0), fixed.FromFloat64(0.0001), fixed.FromFloat64(0.5))
	for i := 0; i < 100; i++ {
		d.update(fixed.Zero)
	}
	d.update(fixed.FromFloat64(5.0))
	// The vol-of-vol track is the slower EWMA, so the spike shows up as a
	// regime change once the fast vol baseline has decayed back below half
	// of it, not on the spike tick itself.
	var regime Regime
	for i := 0; i < 100; i++ {
		regime = d.update(fixed.Zero)
	}
	if regime != RegimeChange {
		t.Errorf("regime = %s; want regime-change after a sharp volatility spike", regime)
	}
}
