package replay

import (
	"context"
	"testing"
	"time"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

func TestReader_SourceReplaysBidAskInOrder(t *testing.T) {
	r := NewReader(":memory:")
	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := r.db.Exec(`CREATE TABLE eurusd_ticks (ts TIMESTAMP, ask DOUBLE, bid DOUBLE, ask_volume DOUBLE, bid_volume DOUBLE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := r.db.Exec(`INSERT INTO eurusd_ticks VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?)`,
		base, 1.0552, 1.0550, 10.0, 12.0,
		base.Add(time.Second), 1.0553, 1.0551, 9.0, 11.0,
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cur, err := r.Source(context.Background(), 5, "eurusd", 2, base.Add(-time.Minute), base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	defer cur.Close()

	var seen []envelope.Envelope
	for {
		env, ok, err := cur.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		seen = append(seen, env)
	}

	if len(seen) != 4 {
		t.Fatalf("len(seen) = %d; want 4 (2 rows x bid+ask)", len(seen))
	}
	if seen[0].Tick.Flags != envelope.TickFlagBid || seen[1].Tick.Flags != envelope.TickFlagAsk {
		t.Errorf("first row should be bid then ask, got %v then %v", seen[0].Tick.Flags, seen[1].Tick.Flags)
	}
	for _, env := range seen {
		if env.Tick.SymbolID != 5 {
			t.Errorf("SymbolID = %d; want 5", env.Tick.SymbolID)
		}
		if env.Tick.ExchangeID != 2 {
			t.Errorf("ExchangeID = %d; want 2", env.Tick.ExchangeID)
		}
		if env.Tick.Price.Sign() <= 0 {
			t.Errorf("expected positive price, got %s", env.Tick.Price)
		}
	}
	if seen[0].ReceiptNanos > seen[2].ReceiptNanos {
		t.Errorf("rows must replay in timestamp order")
	}
}

func TestReader_SourceEmptyWindowExhaustsImmediately(t *testing.T) {
	r := NewReader(":memory:")
	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.db.Exec(`CREATE TABLE eurusd_ticks (ts TIMESTAMP, ask DOUBLE, bid DOUBLE, ask_volume DOUBLE, bid_volume DOUBLE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cur, err := r.Source(context.Background(), 1, "eurusd", 0, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	defer cur.Close()

	if _, ok, err := cur.Next(context.Background()); ok || err != nil {
		t.Errorf("expected immediate exhaustion, got ok=%v err=%v", ok, err)
	}
}
