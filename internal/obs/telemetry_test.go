package obs

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

func TestStageTelemetry_ObserveCounts(t *testing.T) {
	tel := NewStageTelemetry("test-stage", zaptest.NewLogger(t))

	tel.Observe(envelope.KindTick, 5*time.Microsecond)
	tel.Observe(envelope.KindTick, 7*time.Microsecond)
	tel.Observe(envelope.KindSignal, 3*time.Microsecond)

	if tel.counts[envelope.KindTick] != 2 {
		t.Errorf("tick count = %d; want 2", tel.counts[envelope.KindTick])
	}
	if tel.counts[envelope.KindSignal] != 1 {
		t.Errorf("signal count = %d; want 1", tel.counts[envelope.KindSignal])
	}

	// Should not panic even with mixed kinds recorded.
	tel.LogSummary()
}
