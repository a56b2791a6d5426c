// Package replay reads historical ticks out of a DuckDB database and feeds
// them through the same connector.Source interface the live synthetic and
// websocket feeds implement, so the analytics/risk/execution stages run
// unmodified in replay and live modes.
package replay

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

// Reader opens a DuckDB file and streams rows from a single symbol's ticks
// table within a time window.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

// NewReader returns an unopened Reader; call Open before Source.
func NewReader(dataSourceName string) *Reader {
	return &Reader{dataSourceName: dataSourceName}
}

// Open establishes the DuckDB connection.
func (r *Reader) Open() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("replay: sql.Open: %w", err)
	}
	r.db = db
	return nil
}

// Close releases the underlying connection.
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Source opens a cursor over `<symbol>_ticks` between from and to
// (inclusive) and returns a connector.Source that replays them in
// timestamp order, one bid and one ask envelope per row.
func (r *Reader) Source(ctx context.Context, symbolID uint32, symbol string, exchangeID uint16, from, to time.Time) (*Cursor, error) {
	query := fmt.Sprintf(`SELECT ts, ask, bid, ask_volume, bid_volume FROM %s_ticks WHERE ts BETWEEN ? AND ? ORDER BY ts ASC`, symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("replay: query %s_ticks: %w", symbol, err)
	}
	return &Cursor{rows: rows, symbolID: symbolID, exchangeID: exchangeID}, nil
}

// Cursor is a connector.Source backed by one open *sql.Rows. Each row yields
// two envelopes (bid then ask) before the cursor advances.
type Cursor struct {
	rows       *sql.Rows
	symbolID   uint32
	exchangeID uint16

	pending     envelope.Envelope
	havePending bool
}

// Next implements connector.Source. It returns ok=false, nil error once the
// underlying rows are exhausted.
func (c *Cursor) Next(ctx context.Context) (envelope.Envelope, bool, error) {
	if err := ctx.Err(); err != nil {
		return envelope.Envelope{}, false, err
	}

	if c.havePending {
		c.havePending = false
		return c.pending, true, nil
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return envelope.Envelope{}, false, fmt.Errorf("replay: row iteration: %w", err)
		}
		return envelope.Envelope{}, false, nil
	}

	var ts time.Time
	var ask, bid, askVolume, bidVolume float64
	if err := c.rows.Scan(&ts, &ask, &bid, &askVolume, &bidVolume); err != nil {
		return envelope.Envelope{}, false, fmt.Errorf("replay: scan: %w", err)
	}

	nanos := ts.UnixNano()
	bidEnv := envelope.Envelope{
		ReceiptNanos: nanos,
		Kind:         envelope.KindTick,
		Tick: envelope.TickPayload{
			Price:      fixed.FromFloat64(bid),
			Quantity:   fixed.FromFloat64(bidVolume),
			SymbolID:   c.symbolID,
			ExchangeID: c.exchangeID,
			Flags:      envelope.TickFlagBid,
		},
	}
	askEnv := envelope.Envelope{
		ReceiptNanos: nanos,
		Kind:         envelope.KindTick,
		Tick: envelope.TickPayload{
			Price:      fixed.FromFloat64(ask),
			Quantity:   fixed.FromFloat64(askVolume),
			SymbolID:   c.symbolID,
			ExchangeID: c.exchangeID,
			Flags:      envelope.TickFlagAsk,
		},
	}

	c.pending = askEnv
	c.havePending = true
	return bidEnv, true, nil
}

// Close releases the cursor's underlying rows.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
