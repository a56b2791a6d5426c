package execution

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

// ExchangeEventKind tags which variant an ExchangeEvent carries: everything
// that can arrive asynchronously from the exchange side.
type ExchangeEventKind uint8

const (
	ExchangeEventAck ExchangeEventKind = iota
	ExchangeEventFill
	ExchangeEventReject
	ExchangeEventCancel
	ExchangeEventError
)

// ExchangeEvent is the sum type the Dispatcher routes. Exactly one payload
// field is meaningful per Kind.
type ExchangeEvent struct {
	Kind         ExchangeEventKind
	Ack          envelope.OrderAckPayload
	Fill         envelope.FillPayload
	Cancel       envelope.CancelPayload
	RejectReason string
	ErrorMessage string
	OrderID      uint64
}

// AckHandler, FillHandler, etc. are per-event handler fields registered on
// Dispatcher, one per kind in this package's event set.
type (
	AckHandler    func(envelope.OrderAckPayload)
	FillHandler   func(envelope.FillPayload)
	RejectHandler func(orderID uint64, reason string)
	CancelHandler func(envelope.CancelPayload)
	ErrorHandler  func(orderID uint64, message string)
)

// Dispatcher routes asynchronous exchange events to registered handlers over
// a non-blocking channel: Post never blocks the calling (transport)
// goroutine, and dispatch happens on the consumer's own loop.
type Dispatcher struct {
	events chan ExchangeEvent
	log    *zap.Logger

	OnAck    AckHandler
	OnFill   FillHandler
	OnReject RejectHandler
	OnCancel CancelHandler
	OnError  ErrorHandler

	postCount     uint64
	postFails     uint64
	dispatchCount uint64
}

// NewDispatcher builds a Dispatcher with the given channel capacity.
func NewDispatcher(capacity int, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		events: make(chan ExchangeEvent, capacity),
		log:    log,
	}
}

// Post enqueues an event without blocking. Returns false if the channel is
// full, counted as a post failure.
func (d *Dispatcher) Post(ev ExchangeEvent) bool {
	select {
	case d.events <- ev:
		d.postCount++
		return true
	default:
		d.postFails++
		return false
	}
}

// Run dispatches events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.dispatchCount++
			d.dispatch(ev)
		}
	}
}

func (d *Dispatcher) dispatch(ev ExchangeEvent) {
	switch ev.Kind {
	case ExchangeEventAck:
		if d.OnAck != nil {
			d.OnAck(ev.Ack)
		}
	case ExchangeEventFill:
		if d.OnFill != nil {
			d.OnFill(ev.Fill)
		}
	case ExchangeEventReject:
		if d.OnReject != nil {
			d.OnReject(ev.OrderID, ev.RejectReason)
		}
	case ExchangeEventCancel:
		if d.OnCancel != nil {
			d.OnCancel(ev.Cancel)
		}
	case ExchangeEventError:
		if d.OnError != nil {
			d.OnError(ev.OrderID, ev.ErrorMessage)
		}
	default:
		d.log.Warn("unhandled exchange event kind", zap.Uint8("kind", uint8(ev.Kind)))
	}
}

// Stats is a point-in-time snapshot of dispatcher throughput, returned as
// data instead of logged directly so callers choose their own reporting
// cadence.
type Stats struct {
	PostCount     uint64
	PostFails     uint64
	DispatchCount uint64
}

func (d *Dispatcher) Stats() Stats {
	return Stats{PostCount: d.postCount, PostFails: d.postFails, DispatchCount: d.dispatchCount}
}

// Transport abstracts the wire connection to the exchange. Send must not
// block past the caller's context; returning false counts as a send failure
// logged as an ERROR audit record.
type Transport interface {
	Send(ctx context.Context, payload []byte) bool
}

// HeartbeatInterval is the default cadence for this engine's own outbound
// heartbeats to the exchange, distinct from the pipeline's internal
// heartbeat envelopes.
const HeartbeatInterval = time.Second
