// Package connector implements the external tick-feed contract the pipeline
// consumes from: anything that can hand back a steady stream of envelopes
// one at a time satisfies Source, whether it is backed by a synthetic
// generator, a websocket feed, or (see pkg/replay) a DuckDB table.
package connector

import (
	"context"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

// Source produces envelopes one at a time. Next returns ok=false with a nil
// error when the source is exhausted (replay reaching its end, or a bounded
// synthetic run completing its step count); it returns a non-nil error only
// on an unrecoverable failure, matching the contract CONNECTOR is specified
// against: symbol_id within the analytics/risk symbol tables (SymbolSlots),
// price > 0, quantity > 0, best-effort
// monotonic per-symbol timestamps.
type Source interface {
	Next(ctx context.Context) (env envelope.Envelope, ok bool, err error)
}
