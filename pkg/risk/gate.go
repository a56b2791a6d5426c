// Package risk implements the multi-limit risk gate: a constant-time,
// allocation-free check chain that turns an approved Signal into an
// OrderRequest, with a circuit breaker that can halt the gate entirely.
package risk

import (
	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

// Config holds the gate's fixed limits.
type Config struct {
	SymbolSlots        uint32
	MaxPositionPerSym  fixed.Point
	MaxOrderSize       fixed.Point
	MaxTotalExposure   fixed.Point
	MaxDailyLoss       fixed.Point
}

// DefaultConfig returns conservative placeholder limits; production
// deployments are expected to override every field from configuration.
func DefaultConfig() Config {
	return Config{
		SymbolSlots:       1024,
		MaxPositionPerSym: fixed.FromInt(1_000_000),
		MaxOrderSize:      fixed.FromInt(100_000),
		MaxTotalExposure:  fixed.FromInt(5_000_000),
		MaxDailyLoss:      fixed.FromInt(50_000),
	}
}

// RejectReason enumerates why a signal failed the gate.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectBreakerTripped
	RejectPositionLimit
	RejectOrderSizeLimit
	RejectTotalExposure
	RejectDailyLoss
)

func (r RejectReason) String() string {
	switch r {
	case RejectBreakerTripped:
		return "breaker-tripped"
	case RejectPositionLimit:
		return "position-limit"
	case RejectOrderSizeLimit:
		return "order-size-limit"
	case RejectTotalExposure:
		return "total-exposure"
	case RejectDailyLoss:
		return "daily-loss"
	default:
		return "none"
	}
}

// Metrics counts the gate's decisions.
type Metrics struct {
	Approved  uint64
	Rejected  uint64
	Rejects   [6]uint64 // indexed by RejectReason
}

// Gate is the risk stage. It owns the position table and the circuit
// breaker; OrderID is supplied by the caller (the execution engine's
// generator) rather than minted here, since order id issuance is explicitly
// an execution-engine responsibility in the component design.
type Gate struct {
	cfg      Config
	breaker  Breaker
	table    *positionTable
	dailyPnL fixed.Point
	metric   Metrics
}

// New builds a Gate.
func New(cfg Config) *Gate {
	if cfg.SymbolSlots == 0 {
		cfg.SymbolSlots = DefaultConfig().SymbolSlots
	}
	return &Gate{
		cfg:   cfg,
		table: newPositionTable(cfg.SymbolSlots),
	}
}

// Breaker exposes the gate's circuit breaker so the heartbeat path can trip
// it asynchronously (e.g. on a daily-loss breach) without holding a lock.
func (g *Gate) Breaker() *Breaker {
	return &g.breaker
}

// SetDailyPnL records the session's running daily PnL, read by the
// daily-loss check. The caller (execution/fill reconciliation) owns the
// authoritative PnL computation; the gate only gates on it.
func (g *Gate) SetDailyPnL(pnl fixed.Point) {
	g.dailyPnL = pnl
	if g.dailyPnL.Lte(g.cfg.MaxDailyLoss.Neg()) {
		g.breaker.Trip(ReasonDailyLossBreach)
	}
}

// nextOrderID is supplied by the execution stage via Evaluate's caller.
// Evaluate itself never mints an id.

// Evaluate runs the full per-signal algorithm: breaker check first and
// short-circuiting, then the four remaining predicates evaluated as a single
// conjunction, then (on approval) the conservative position update before
// returning the order to publish. orderID must already have been minted by
// the execution engine's generator.
func (g *Gate) Evaluate(sig envelope.SignalPayload, orderID uint64, nowNanos int64) (envelope.OrderRequestPayload, RejectReason) {
	if g.breaker.Tripped() {
		g.reject(RejectBreakerTripped)
		return envelope.OrderRequestPayload{}, RejectBreakerTripped
	}

	orderValue := sig.Confidence.MulInt(int64(sig.Direction))

	pos := g.table.get(sig.SymbolID)
	newPosition := pos.Quantity.Add(orderValue)

	okPosition := newPosition.Abs().Lte(g.cfg.MaxPositionPerSym)
	okOrderSize := orderValue.Abs().Lte(g.cfg.MaxOrderSize)
	exposure := g.table.totalExposure()
	okExposure := exposure.Add(orderValue.Abs()).Lte(g.cfg.MaxTotalExposure)
	okDailyLoss := g.dailyPnL.Gt(g.cfg.MaxDailyLoss.Neg())

	// Evaluated as a single conjunction rather than an early-return chain
	// of ifs, matching the branchless intent the component design calls
	// for; the reason reported on rejection is the first failing check in
	// priority order so operators get a stable, specific diagnosis.
	approved := okPosition && okOrderSize && okExposure && okDailyLoss
	if !approved {
		switch {
		case !okPosition:
			g.reject(RejectPositionLimit)
			return envelope.OrderRequestPayload{}, RejectPositionLimit
		case !okOrderSize:
			g.reject(RejectOrderSizeLimit)
			return envelope.OrderRequestPayload{}, RejectOrderSizeLimit
		case !okExposure:
			g.reject(RejectTotalExposure)
			return envelope.OrderRequestPayload{}, RejectTotalExposure
		default:
			g.reject(RejectDailyLoss)
			return envelope.OrderRequestPayload{}, RejectDailyLoss
		}
	}

	order := envelope.OrderRequestPayload{
		OrderID:     orderID,
		SymbolID:    sig.SymbolID,
		Price:       fixed.Zero,
		Quantity:    sig.Confidence,
		Side:        sig.Direction,
		Type:        envelope.OrderTypeMarket,
		TimeInForce: envelope.TimeInForceIOC,
	}

	g.table.applyDelta(sig.SymbolID, orderValue, nowNanos)
	g.metric.Approved++

	return order, RejectNone
}

// Reverse undoes a previously applied position delta, used when the
// execution engine later learns an order the gate had already reflected was
// rejected by the exchange.
func (g *Gate) Reverse(symbolID uint32, orderValue fixed.Point, nowNanos int64) {
	g.table.reverse(symbolID, orderValue, nowNanos)
}

func (g *Gate) reject(reason RejectReason) {
	g.metric.Rejected++
	g.metric.Rejects[reason]++
}

// Metrics returns a snapshot of approval/rejection counters.
func (g *Gate) Metrics() Metrics {
	return g.metric
}

// Position returns a copy of a symbol's current position state, for
// observability and reconciliation.
func (g *Gate) Position(symbolID uint32) (quantity, avgEntry, unrealized, realized fixed.Point) {
	p := g.table.get(symbolID)
	return p.Quantity, p.AvgEntryPrice, p.UnrealizedPnL, p.RealizedPnL
}
