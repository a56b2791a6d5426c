package obs

import (
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

// StageTelemetry counts envelopes processed per kind and times handler
// duration, one type keyed by envelope.Kind instead of one field per
// concrete event struct.
type StageTelemetry struct {
	name    string
	logger  *zap.Logger
	counts  [10]uint64 // indexed by envelope.Kind
	totalDur [10]time.Duration
	latency LatencyHistogram
}

// NewStageTelemetry builds a telemetry recorder labeled with the owning
// stage's name (e.g. "analytics", "risk", "execution") for log output.
func NewStageTelemetry(name string, logger *zap.Logger) *StageTelemetry {
	return &StageTelemetry{name: name, logger: logger}
}

// Observe records one processed envelope of the given kind with the given
// processing latency, for call sites that already have the duration in hand
// (e.g. the analytics engine's own start/end timestamps) rather than
// wrapping a handler call.
func (t *StageTelemetry) Observe(kind envelope.Kind, d time.Duration) {
	t.counts[kind]++
	t.totalDur[kind] += d
	t.latency.Record(d)
}

// LogSummary emits one structured log line per envelope kind with a nonzero
// count, plus the stage's overall latency histogram snapshot.
func (t *StageTelemetry) LogSummary() {
	fields := make([]zap.Field, 0, len(t.counts)*2)
	for k := envelope.Kind(0); int(k) < len(t.counts); k++ {
		if t.counts[k] == 0 {
			continue
		}
		avg := t.totalDur[k] / time.Duration(t.counts[k])
		fields = append(fields,
			zap.Uint64(k.String()+"_count", t.counts[k]),
			zap.Duration(k.String()+"_avg_duration", avg),
		)
	}

	snap := t.latency.Snapshot()
	fields = append(fields,
		zap.Uint64("latency_samples", snap.Count),
		zap.Float64("latency_mean_ns", snap.MeanNs),
		zap.Uint64("latency_max_ns", snap.MaxNs),
		zap.Uint64("latency_p50_ns", snap.P50()),
		zap.Uint64("latency_p99_ns", snap.P99()),
		zap.Uint64("latency_p999_ns", snap.P999()),
	)

	t.logger.Info(t.name+" telemetry", fields...)
}
