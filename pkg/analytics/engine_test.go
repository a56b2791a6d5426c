package analytics

import (
	"testing"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

func feedPrices(t *testing.T, e *Engine, symbol uint32, prices []float64) (envelope.SignalPayload, bool) {
	t.Helper()
	var sig envelope.SignalPayload
	var got bool
	for i, p := range prices {
		tick := envelope.TickPayload{
			SymbolID: symbol,
			Price:    fixed.FromFloat64(p),
			Quantity: fixed.One,
		}
		sig, got = e.Process(tick, int64(i), int64(i))
	}
	return sig, got
}

func TestEngine_NoSignalOnFlatPrices(t *testing.T) {
	e := New(DefaultConfig())
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100.0
	}
	_, got := feedPrices(t, e, 1, prices)
	if got {
		t.Error("expected no signal on a perfectly flat series (stdDev == 0)")
	}
}

func TestEngine_SignalOnDeviation(t *testing.T) {
	e := New(DefaultConfig())
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100.0
	}
	// Warm up, then inject a sharp outlier.
	for i := 0; i < 79; i++ {
		e.Process(envelope.TickPayload{SymbolID: 1, Price: fixed.FromFloat64(prices[i]), Quantity: fixed.One}, int64(i), int64(i))
	}
	sig, got := e.Process(envelope.TickPayload{SymbolID: 1, Price: fixed.FromFloat64(150.0), Quantity: fixed.One}, 79, 79)
	if !got {
		t.Fatal("expected a signal on a sharp deviation from a tight window")
	}
	if sig.Direction != envelope.SideSell {
		t.Errorf("expected mean-reversion SELL on upward spike, got %v", sig.Direction)
	}
	if sig.Confidence.Gt(fixed.FromFloat64(3.0)) {
		t.Errorf("confidence %s exceeds the winsorization clamp", sig.Confidence.String())
	}
}

func TestEngine_WinsorizationClampsConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxZScore = fixed.FromFloat64(1.0)
	e := New(cfg)

	for i := 0; i < 70; i++ {
		e.Process(envelope.TickPayload{SymbolID: 2, Price: fixed.FromFloat64(100.0), Quantity: fixed.One}, int64(i), int64(i))
	}
	sig, got := e.Process(envelope.TickPayload{SymbolID: 2, Price: fixed.FromFloat64(500.0), Quantity: fixed.One}, 70, 70)
	if got && sig.Confidence.Gt(cfg.MaxZScore) {
		t.Errorf("confidence %s exceeds configured max z-score %s", sig.Confidence.String(), cfg.MaxZScore.String())
	}
	if e.Metrics().OutliersClipped == 0 {
		t.Error("expected at least one winsorization clip to be counted")
	}
}

func TestEngine_SlotIsolationAcrossSymbols(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 70; i++ {
		e.Process(envelope.TickPayload{SymbolID: 10, Price: fixed.FromFloat64(100.0), Quantity: fixed.One}, int64(i), int64(i))
	}
	// A fresh symbol must not inherit symbol 10's statistics.
	_, got := e.Process(envelope.TickPayload{SymbolID: 11, Price: fixed.FromFloat64(9999.0), Quantity: fixed.One}, 0, 0)
	if got {
		t.Error("a single tick on a cold symbol should never itself emit a signal (stdDev is zero on first observation)")
	}
}

func TestEngine_EffectiveWindowNotReadyForColdSymbol(t *testing.T) {
	e := New(DefaultConfig())
	if _, ready := e.EffectiveWindow(42); ready {
		t.Error("expected an untouched symbol slot to report not ready")
	}
	e.Process(envelope.TickPayload{SymbolID: 42, Price: fixed.FromFloat64(100.0), Quantity: fixed.One}, 0, 0)
	if _, ready := e.EffectiveWindow(42); ready {
		t.Error("expected a single tick to stay below AdaptiveMinWindow")
	}
}

func TestEngine_EffectiveWindowShrinksUnderVolatilitySpike(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 64; i++ {
		e.Process(envelope.TickPayload{SymbolID: 7, Price: fixed.FromFloat64(100.0), Quantity: fixed.One}, int64(i), int64(i))
	}
	calm, ready := e.EffectiveWindow(7)
	if !ready {
		t.Fatal("expected the window to be warmed up past AdaptiveMinWindow")
	}

	prices := []float64{200, 50, 300, 20, 400, 10, 500, 5, 600, 1}
	for i, p := range prices {
		e.Process(envelope.TickPayload{SymbolID: 7, Price: fixed.FromFloat64(p), Quantity: fixed.One}, int64(64+i), int64(64+i))
	}
	volatile, _ := e.EffectiveWindow(7)
	if volatile > calm {
		t.Errorf("effective window grew from %d to %d under a volatility spike; want it to shrink or hold", calm, volatile)
	}
}

func TestEngine_MetricsNeverDecrease(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 100; i++ {
		e.Process(envelope.TickPayload{SymbolID: 3, Price: fixed.FromFloat64(100.0 + float64(i%5)), Quantity: fixed.One}, int64(i), int64(i))
	}
	if e.Metrics().TicksProcessed != 100 {
		t.Errorf("TicksProcessed = %d; want 100", e.Metrics().TicksProcessed)
	}
}
