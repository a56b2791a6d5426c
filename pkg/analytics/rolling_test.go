package analytics

import (
	"testing"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

func TestRollingStats_MeanVariance(t *testing.T) {
	r := newRollingStats(4)
	for _, v := range []float64{3, 1, 2, 0} {
		r.push(fixed.FromFloat64(v))
	}
	if got := r.mean.Float64(); got != 1.5 {
		t.Errorf("mean = %v; want 1.5", got)
	}
	if got := r.variance.Float64(); got < 1.24 || got > 1.26 {
		t.Errorf("variance = %v; want ~1.25", got)
	}
}

func TestRollingStats_WindowEviction(t *testing.T) {
	r := newRollingStats(2)
	r.push(fixed.FromInt(10))
	r.push(fixed.FromInt(20))
	r.push(fixed.FromInt(30)) // evicts 10

	if got := r.mean.Float64(); got != 25 {
		t.Errorf("mean after eviction = %v; want 25", got)
	}
}

func TestRollingStats_ZeroVarianceOnConstantSeries(t *testing.T) {
	r := newRollingStats(8)
	for i := 0; i < 8; i++ {
		r.push(fixed.FromInt(42))
	}
	if !r.variance.IsZero() {
		t.Errorf("variance = %s; want zero on a constant series", r.variance.String())
	}
	if !r.stdDev.IsZero() {
		t.Errorf("stdDev = %s; want zero on a constant series", r.stdDev.String())
	}
}
