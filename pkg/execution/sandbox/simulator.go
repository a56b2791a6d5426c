// Package sandbox implements an in-process stand-in for a live exchange
// connection. A full forex position lifecycle (stop loss/take profit,
// multi-day swaps, commissions, equity/balance curves) has no counterpart
// in a flat, immediately-filled IOC market order, so Simulator keeps only
// what such an order needs -- remembering the last tick per symbol and
// filling a market order against it -- and nothing more.
package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/execution"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

type tickSides struct {
	bid, ask fixed.Point
	haveBid  bool
	haveAsk  bool
}

// Simulator is an execution.Transport that always reports wire delivery as
// successful, and separately fills submitted orders against the last tick
// it has observed for their symbol, posting Ack then Fill through a
// Dispatcher the way a real exchange's decoded event stream would.
type Simulator struct {
	mu         sync.Mutex
	lastTick   map[uint32]tickSides
	dispatcher *execution.Dispatcher
	ackSeq     uint64
}

// NewSimulator builds a Simulator posting exchange events to dispatcher.
func NewSimulator(dispatcher *execution.Dispatcher) *Simulator {
	return &Simulator{
		lastTick:   make(map[uint32]tickSides),
		dispatcher: dispatcher,
	}
}

// OnTick records the latest bid/ask observed for a symbol.
func (s *Simulator) OnTick(tick envelope.TickPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sides := s.lastTick[tick.SymbolID]
	if tick.Flags&envelope.TickFlagBid != 0 {
		sides.bid = tick.Price
		sides.haveBid = true
	}
	if tick.Flags&envelope.TickFlagAsk != 0 {
		sides.ask = tick.Price
		sides.haveAsk = true
	}
	s.lastTick[tick.SymbolID] = sides
}

// Send implements execution.Transport. The sandbox has nothing to decode
// the FIX-style payload into (that belongs to a real exchange connection,
// out of scope here), so it only reports delivery success; the actual fill
// happens in Fill, driven by the order struct the pipeline already has in
// hand rather than by re-parsing the wire bytes.
func (s *Simulator) Send(_ context.Context, _ []byte) bool {
	return true
}

// Fill immediately fills order against the simulator's last known price for
// its symbol -- the ask side for a buy, the bid side for a sell -- posting
// an Ack followed by a Fill event. It returns false without posting
// anything if no tick has been observed yet for the symbol.
func (s *Simulator) Fill(orderID uint64, order envelope.OrderRequestPayload) bool {
	s.mu.Lock()
	sides, ok := s.lastTick[order.SymbolID]
	s.mu.Unlock()
	if !ok || (order.Side == envelope.SideBuy && !sides.haveAsk) || (order.Side == envelope.SideSell && !sides.haveBid) {
		return false
	}

	fillPrice := sides.ask
	if order.Side == envelope.SideSell {
		fillPrice = sides.bid
	}

	s.mu.Lock()
	s.ackSeq++
	ackID := fmt.Sprintf("SBX-%d", s.ackSeq)
	s.mu.Unlock()

	s.dispatcher.Post(execution.ExchangeEvent{
		Kind: execution.ExchangeEventAck,
		Ack:  envelope.OrderAckPayload{OrderID: orderID, AckID: ackID},
	})
	s.dispatcher.Post(execution.ExchangeEvent{
		Kind: execution.ExchangeEventFill,
		Fill: envelope.FillPayload{OrderID: orderID, SymbolID: order.SymbolID, Price: fillPrice, Quantity: order.Quantity},
	})
	return true
}
