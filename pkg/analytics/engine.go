// Package analytics implements the per-symbol statistics, regime detection,
// winsorization, and signal gating stage of the pipeline: CONNECTOR feeds
// ticks in, this stage emits Signal envelopes toward the risk gate.
package analytics

import (
	"time"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

// Config parameterizes the analytics engine. Zero-value fields fall back to
// the package defaults in DefaultConfig.
type Config struct {
	SymbolSlots      uint32  // power of two, size of the per-symbol table
	TickWindowSize   uint32  // power of two, e.g. 256
	RollingWindow    uint32  // power of two, e.g. 64
	EWMAHalfLife     float64 // ticks, default 50
	VolHalfLife      float64 // ticks, for the regime detector's fast track
	VolOfVolHalfLife float64 // ticks, for the regime detector's slow track
	RegimeMultiplier fixed.Point
	LowVolThreshold  fixed.Point
	HighVolThreshold fixed.Point
	MaxZScore        fixed.Point // winsorization clamp, default 3.0
	SignalThreshold  fixed.Point // default 0.5

	AdaptiveMinWindow uint32      // floor for the volatility-scaled lookback, default 16
	AdaptiveVolScale  fixed.Point // reactivity of the adaptive window to vol-of-baseline ratio
}

// DefaultConfig returns the parameterization named throughout the component
// design: 50-tick EWMA half-life, 64-tick rolling window, 3-sigma
// winsorization, 0.5-sigma signal gate, 2x regime-change multiplier.
func DefaultConfig() Config {
	return Config{
		SymbolSlots:      1024,
		TickWindowSize:   256,
		RollingWindow:    64,
		EWMAHalfLife:     50,
		VolHalfLife:      20,
		VolOfVolHalfLife: 200,
		RegimeMultiplier: fixed.FromFloat64(2.0),
		LowVolThreshold:  fixed.FromFloat64(0.0001),
		HighVolThreshold: fixed.FromFloat64(0.01),
		MaxZScore:        fixed.FromFloat64(3.0),
		SignalThreshold:  fixed.FromFloat64(0.5),

		AdaptiveMinWindow: 16,
		AdaptiveVolScale:  fixed.One,
	}
}

// symbolState is the per-symbol analytics state, one slot per symbol id
// (masked into the table), cache-line aligned in spirit by virtue of being a
// fixed-layout struct stored by value in a preallocated slice.
type symbolState struct {
	inUse bool

	tickWindow ring
	rolling    *rollingStats
	ewma       *ewmaStats
	regime     *regimeDetector
	adaptive   *adaptiveWindow

	lastUpdateNanos int64
	messageCount    uint64
}

// Metrics counts suppression and processing events, read-only externally.
type Metrics struct {
	TicksProcessed   uint64
	SignalsEmitted   uint64
	OutliersClipped  uint64
	EWMAOutliers     uint64
	GatedByRegime    uint64
}

// Engine is the per-process analytics stage. It owns a fixed-size table of
// symbolState slots indexed by symbol_id & (slots-1); the validator upstream
// of this stage is responsible for keeping symbol ids within that range.
type Engine struct {
	cfg    Config
	mask   uint32
	slots  []symbolState
	metric Metrics
}

// New builds an Engine. cfg.SymbolSlots, TickWindowSize, and RollingWindow
// must be powers of two; zero values are replaced with DefaultConfig's.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SymbolSlots == 0 {
		cfg.SymbolSlots = def.SymbolSlots
	}
	if cfg.TickWindowSize == 0 {
		cfg.TickWindowSize = def.TickWindowSize
	}
	if cfg.RollingWindow == 0 {
		cfg.RollingWindow = def.RollingWindow
	}
	if cfg.EWMAHalfLife == 0 {
		cfg.EWMAHalfLife = def.EWMAHalfLife
	}
	if cfg.VolHalfLife == 0 {
		cfg.VolHalfLife = def.VolHalfLife
	}
	if cfg.VolOfVolHalfLife == 0 {
		cfg.VolOfVolHalfLife = def.VolOfVolHalfLife
	}
	if cfg.RegimeMultiplier.IsZero() {
		cfg.RegimeMultiplier = def.RegimeMultiplier
	}
	if cfg.LowVolThreshold.IsZero() {
		cfg.LowVolThreshold = def.LowVolThreshold
	}
	if cfg.HighVolThreshold.IsZero() {
		cfg.HighVolThreshold = def.HighVolThreshold
	}
	if cfg.MaxZScore.IsZero() {
		cfg.MaxZScore = def.MaxZScore
	}
	if cfg.SignalThreshold.IsZero() {
		cfg.SignalThreshold = def.SignalThreshold
	}
	if cfg.AdaptiveMinWindow == 0 {
		cfg.AdaptiveMinWindow = def.AdaptiveMinWindow
	}
	if cfg.AdaptiveVolScale.IsZero() {
		cfg.AdaptiveVolScale = def.AdaptiveVolScale
	}
	if cfg.SymbolSlots&(cfg.SymbolSlots-1) != 0 {
		panic("analytics: SymbolSlots must be a power of two")
	}

	return &Engine{
		cfg:   cfg,
		mask:  cfg.SymbolSlots - 1,
		slots: make([]symbolState, cfg.SymbolSlots),
	}
}

func (e *Engine) slotFor(symbolID uint32) *symbolState {
	s := &e.slots[symbolID&e.mask]
	if !s.inUse {
		s.tickWindow = newRing(e.cfg.TickWindowSize)
		s.rolling = newRollingStats(e.cfg.RollingWindow)
		s.ewma = newEWMAStats(e.cfg.EWMAHalfLife)
		s.regime = newRegimeDetector(e.cfg.VolHalfLife, e.cfg.VolOfVolHalfLife, e.cfg.RegimeMultiplier, e.cfg.LowVolThreshold, e.cfg.HighVolThreshold)
		s.adaptive = newAdaptiveWindow(e.cfg.RollingWindow, e.cfg.AdaptiveMinWindow, e.cfg.AdaptiveVolScale)
		s.inUse = true
	}
	return s
}

// clampZ winsorizes z to +/- maxZ, reporting whether a clip occurred.
func clampZ(z, maxZ fixed.Point) (fixed.Point, bool) {
	if z.Gt(maxZ) {
		return maxZ, true
	}
	if z.Lt(maxZ.Neg()) {
		return maxZ.Neg(), true
	}
	return z, false
}

// zScore computes (x - mean) / stdDev, returning zero when stdDev is zero
// avoids a division-by-zero panic on a cold or degenerate window.
func zScore(x, mean, stdDev fixed.Point) fixed.Point {
	if stdDev.IsZero() {
		return fixed.Zero
	}
	return x.Sub(mean).Div(stdDev)
}

// Process runs the full per-tick algorithm in the order the component
// design lays out: update state, compute rolling and EWMA z-scores with
// winsorization, update the regime detector, then evaluate the signal gate.
// It returns the emitted signal and whether one was actually produced (a
// zero-value, false result means the tick was silently suppressed, not an
// error: analytics never fails).
func (e *Engine) Process(tick envelope.TickPayload, nowNanos int64, msgNanos int64) (envelope.SignalPayload, bool) {
	s := e.slotFor(tick.SymbolID)

	s.tickWindow.push(tick.Price)
	s.rolling.push(tick.Price)
	s.ewma.push(tick.Price)
	s.adaptive.push(tick.Price)
	s.lastUpdateNanos = nowNanos
	s.messageCount++
	e.metric.TicksProcessed++

	zRolling := zScore(tick.Price, s.rolling.mean, s.rolling.stdDev)
	zRolling, clipped := clampZ(zRolling, e.cfg.MaxZScore)
	if clipped {
		e.metric.OutliersClipped++
	}

	zEWMA := zScore(tick.Price, s.ewma.mean, s.ewma.stdDev)
	zEWMA, clippedEWMA := clampZ(zEWMA, e.cfg.MaxZScore)
	if clippedEWMA {
		e.metric.EWMAOutliers++
	}
	_ = zEWMA

	regime := s.regime.update(s.rolling.stdDev)

	threshold := e.cfg.SignalThreshold
	if zRolling.Abs().Lte(threshold) || regime == RegimeChange {
		if zRolling.Abs().Gt(threshold) && regime == RegimeChange {
			e.metric.GatedByRegime++
		}
		return envelope.SignalPayload{}, false
	}

	direction := envelope.SideFlat
	switch zRolling.Sign() {
	case 1:
		direction = envelope.SideSell // mean reversion: price above mean, expect reversion down
	case -1:
		direction = envelope.SideBuy
	}

	sig := envelope.SignalPayload{
		SymbolID:   tick.SymbolID,
		Direction:  direction,
		Confidence: zRolling.Abs(),
		Strategy:   envelope.StrategyMeanReversion,
	}
	e.metric.SignalsEmitted++
	return sig, true
}

// Metrics returns a snapshot of the engine's suppression/processing
// counters.
func (e *Engine) Metrics() Metrics {
	return e.metric
}

// EffectiveWindow reports the current volatility-scaled lookback for a
// symbol and whether it has warmed up past AdaptiveMinWindow samples. A
// shrinking effective window means recent ticks are being weighted more
// heavily because current variance has risen above its slow baseline.
func (e *Engine) EffectiveWindow(symbolID uint32) (window uint32, ready bool) {
	s := &e.slots[symbolID&e.mask]
	if !s.inUse {
		return 0, false
	}
	return s.adaptive.effectiveWindow(), s.adaptive.ready()
}

// NowNanos is a small helper for callers that want the wall clock without
// importing time directly; kept here since every caller of Process needs it
// at the same call site.
func NowNanos() int64 {
	return time.Now().UnixNano()
}
