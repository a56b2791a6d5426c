// Package execution implements the final pipeline stage: it takes approved
// OrderRequest envelopes from the risk gate, mints an order id, writes the
// ORDER audit record, encodes the wire message, sends it over the configured
// Transport, and logs SENT or ERROR. Asynchronous exchange responses flow
// back through a Dispatcher into ACK/FILL/REJECT audit records.
package execution

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

// SymbolName resolves a symbol id to its display name for the audit log and
// wire message. The execution engine has no symbol directory of its own; it
// is handed one by the caller (the same table the connector and analytics
// stage share).
type SymbolName func(symbolID uint32) string

// Engine is the execution stage.
type Engine struct {
	ids        *IDGenerator
	audit      *AuditLog
	transport  Transport
	dispatcher *Dispatcher
	symbolName SymbolName
	log        *zap.Logger

	wireBuf [512]byte

	sentCount  uint64
	errorCount uint64
}

// NewEngine builds an execution Engine. symbolName may be nil, in which case
// audit records name a symbol "SYM" followed by its numeric id (e.g. SYM1).
func NewEngine(audit *AuditLog, transport Transport, dispatcher *Dispatcher, symbolName SymbolName, log *zap.Logger) *Engine {
	if symbolName == nil {
		symbolName = func(id uint32) string { return fmt.Sprintf("SYM%d", id) }
	}
	return &Engine{
		ids:        NewIDGenerator(),
		audit:      audit,
		transport:  transport,
		dispatcher: dispatcher,
		symbolName: symbolName,
		log:        log,
	}
}

// Submit runs the per-request flow from the component design: mint an id,
// log ORDER before any wire action, encode, send, then log SENT or ERROR.
// The minted order id is returned so the caller (the risk gate's reversal
// path) can correlate a later REJECT back to its position delta. If order
// already carries a non-zero OrderID (minted earlier via NextOrderID, as the
// risk gate requires), that id is reused rather than minting a second one.
func (e *Engine) Submit(ctx context.Context, order envelope.OrderRequestPayload, nowNanos int64) uint64 {
	orderID := order.OrderID
	if orderID == 0 {
		orderID = e.ids.Next()
	}
	symbol := e.symbolName(order.SymbolID)
	side := "BUY"
	if order.Side == envelope.SideSell {
		side = "SELL"
	}

	if err := e.audit.Order(orderID, symbol, side, order.Price, order.Quantity); err != nil {
		e.log.Error("audit ORDER write failed", zap.Error(err), zap.Uint64("order_id", orderID))
	}

	msg := EncodeNewOrder(e.wireBuf[:0], orderID, symbol, order, nowNanos)

	if !e.transport.Send(ctx, msg) {
		atomic.AddUint64(&e.errorCount, 1)
		_ = e.audit.Error(orderID, "transport send failed")
		return orderID
	}

	atomic.AddUint64(&e.sentCount, 1)
	if err := e.audit.Sent(orderID); err != nil {
		e.log.Error("audit SENT write failed", zap.Error(err), zap.Uint64("order_id", orderID))
	}
	return orderID
}

// Cancel sends a cancel request for a previously submitted order.
func (e *Engine) Cancel(ctx context.Context, origOrderID uint64, symbolID uint32, nowNanos int64) uint64 {
	cancelID := e.ids.Next()
	symbol := e.symbolName(symbolID)

	msg := EncodeCancel(e.wireBuf[:0], cancelID, origOrderID, symbol, nowNanos)
	if !e.transport.Send(ctx, msg) {
		atomic.AddUint64(&e.errorCount, 1)
		_ = e.audit.Error(origOrderID, "cancel transport send failed")
	}
	return cancelID
}

// BindDispatcher wires the engine's audit log into the dispatcher's handler
// set, so every asynchronous exchange event gets logged with no caller
// bookkeeping required.
func (e *Engine) BindDispatcher() {
	e.dispatcher.OnAck = func(ack envelope.OrderAckPayload) {
		if err := e.audit.Ack(ack.OrderID, ack.AckID); err != nil {
			e.log.Error("audit ACK write failed", zap.Error(err))
		}
	}
	e.dispatcher.OnFill = func(fill envelope.FillPayload) {
		symbol := e.symbolName(fill.SymbolID)
		if err := e.audit.Fill(fill.OrderID, symbol, fill.Price, fill.Quantity); err != nil {
			e.log.Error("audit FILL write failed", zap.Error(err))
		}
	}
	e.dispatcher.OnReject = func(orderID uint64, reason string) {
		if err := e.audit.Reject(orderID, reason); err != nil {
			e.log.Error("audit REJECT write failed", zap.Error(err))
		}
	}
	e.dispatcher.OnError = func(orderID uint64, message string) {
		if err := e.audit.Error(orderID, message); err != nil {
			e.log.Error("audit ERROR write failed", zap.Error(err))
		}
	}
}

// SentCount and ErrorCount expose send-path counters for the heartbeat path.
func (e *Engine) SentCount() uint64  { return atomic.LoadUint64(&e.sentCount) }
func (e *Engine) ErrorCount() uint64 { return atomic.LoadUint64(&e.errorCount) }

// NextOrderID mints the next order id without submitting anything. The risk
// gate needs a minted id before it can evaluate a signal (Evaluate writes
// the id into the order it returns), but id issuance stays exclusively the
// execution engine's responsibility.
func (e *Engine) NextOrderID() uint64 {
	return e.ids.Next()
}
