// Package envelope defines the fixed-size tagged record that moves between
// pipeline stages over the SPSC queues in pkg/queue. Every envelope is
// copied by value and holds no slices; its only reference-typed field is the
// immutable string OrderAckPayload.AckID. Ownership transfers by value.
package envelope

import "github.com/peter-kozarec/sage/pkg/fixed"

// Kind tags which payload variant an Envelope carries.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTick
	KindSignal
	KindOrderRequest
	KindOrderAck
	KindFill
	KindCancel
	KindRiskAlert
	KindHeartbeat
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "TICK"
	case KindSignal:
		return "SIGNAL"
	case KindOrderRequest:
		return "ORDER_REQUEST"
	case KindOrderAck:
		return "ORDER_ACK"
	case KindFill:
		return "FILL"
	case KindCancel:
		return "CANCEL"
	case KindRiskAlert:
		return "RISK_ALERT"
	case KindHeartbeat:
		return "HEARTBEAT"
	case KindShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// payloadSize is the semantic payload budget quoted by the wire layout: a
// 64-byte cache-line envelope minus an 8-byte timestamp, 8-byte sequence id,
// and 1-byte kind plus 7 bytes reserved leaves 40 bytes for the payload
// union. Go cannot overlay incompatible struct layouts in one field the way
// a C union does, so Envelope instead carries one field per variant; exactly
// one is meaningful per Kind, keeping the struct trivially copyable and
// allocation-free while preserving a field-for-field contract across stages.
const payloadSize = 40

// Envelope is the message passed between every pipeline stage.
type Envelope struct {
	ReceiptNanos int64
	Seq          uint64
	Kind         Kind

	Tick     TickPayload
	Signal   SignalPayload
	Order    OrderRequestPayload
	Ack      OrderAckPayload
	Fill     FillPayload
	Cancel   CancelPayload
	Risk     RiskAlertPayload
	Heartbeat HeartbeatPayload
}

// Side is the direction of an order or signal.
type Side int8

const (
	SideSell Side = -1
	SideFlat Side = 0
	SideBuy  Side = 1
)

// TickFlags are bitwise flags describing what a Tick represents.
type TickFlags uint8

const (
	TickFlagBid TickFlags = 1 << iota
	TickFlagAsk
	TickFlagTrade
)

// TickPayload is the market-data variant.
type TickPayload struct {
	Price      fixed.Point
	Quantity   fixed.Point
	SymbolID   uint32
	ExchangeID uint16
	Flags      TickFlags
}

// SignalPayload is the analytics-engine output variant.
type SignalPayload struct {
	SymbolID   uint32
	Direction  Side
	Confidence fixed.Point // |z-score|, capped at the analytics MaxZScore
	Strategy   StrategyTag
}

// StrategyTag identifies which analytics strategy produced a signal.
type StrategyTag uint8

const (
	StrategyUnknown StrategyTag = iota
	StrategyMeanReversion
	StrategyMomentum
)

// OrderType distinguishes market vs limit orders.
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

// TimeInForce is the order lifetime policy.
type TimeInForce uint8

const (
	TimeInForceDay TimeInForce = iota
	TimeInForceIOC
)

// OrderRequestPayload is the risk-gate output variant.
type OrderRequestPayload struct {
	OrderID     uint64
	SymbolID    uint32
	Price       fixed.Point
	Quantity    fixed.Point
	Side        Side
	Type        OrderType
	TimeInForce TimeInForce
}

// OrderAckPayload carries an exchange acknowledgment.
type OrderAckPayload struct {
	OrderID uint64
	AckID   string
}

// FillPayload carries an exchange fill.
type FillPayload struct {
	OrderID  uint64
	SymbolID uint32
	Price    fixed.Point
	Quantity fixed.Point
}

// CancelPayload carries a cancel request or confirmation.
type CancelPayload struct {
	OrderID uint64
}

// Severity classifies a RiskAlert.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

// RiskAlertPayload is emitted when the risk gate's state crosses a
// noteworthy threshold (e.g. a breaker trip).
type RiskAlertPayload struct {
	TimestampNanos int64
	Exposure       fixed.Point
	DailyPnL       fixed.Point
	Severity       Severity
}

// ComponentStatus is a heartbeat's self-reported health.
type ComponentStatus uint8

const (
	StatusOK ComponentStatus = iota
	StatusDegraded
	StatusFailing
)

// HeartbeatPayload is emitted periodically by every stage.
type HeartbeatPayload struct {
	MonotonicSeq uint64
	ComponentID  uint16
	Status       ComponentStatus
}
