// Package wsfeed demonstrates the transport boundary pkg/connector.Source is
// supposed to honor when the upstream feed is a remote websocket endpoint,
// the way pkg/exchange/ctrader demonstrates a transport boundary for order
// routing. Decoding the wire format into a domain tick is intentionally
// out of scope: the feed is expected to emit one JSON object per text
// message carrying exactly the fields below.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

// wireTick is the minimal JSON shape expected per message.
type wireTick struct {
	SymbolID   uint32  `json:"symbol_id"`
	ExchangeID uint16  `json:"exchange_id"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Side       string  `json:"side"` // "bid", "ask", or "trade"
}

// Feed reads line-delimited JSON tick messages off a websocket connection
// and satisfies connector.Source.
type Feed struct {
	conn *websocket.Conn
	log  *zap.Logger

	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	url            string
}

// Dial connects to url and returns a ready Feed.
func Dial(url string, log *zap.Logger) (*Feed, error) {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("wsfeed: dial: %w", err)
	}
	return &Feed{
		conn:           conn,
		log:            log,
		reconnectDelay: time.Second,
		dialer:         dialer,
		url:            url,
	}, nil
}

// Next blocks until one tick message arrives, reconnecting once on a
// recoverable read error by logging and backing off, rather than tearing
// down the whole feed.
func (f *Feed) Next(ctx context.Context) (envelope.Envelope, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return envelope.Envelope{}, false, err
		}

		_, raw, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return envelope.Envelope{}, false, fmt.Errorf("wsfeed: connection closed: %w", err)
			}
			f.log.Warn("wsfeed read failed, reconnecting", zap.Error(err))
			if rerr := f.reconnect(); rerr != nil {
				return envelope.Envelope{}, false, rerr
			}
			continue
		}

		var wt wireTick
		if err := json.Unmarshal(raw, &wt); err != nil {
			f.log.Warn("wsfeed malformed message, dropping", zap.Error(err))
			continue
		}
		if wt.Price <= 0 || wt.Quantity <= 0 {
			f.log.Warn("wsfeed message violates contract, dropping",
				zap.Float64("price", wt.Price), zap.Float64("quantity", wt.Quantity))
			continue
		}

		return envelope.Envelope{
			ReceiptNanos: time.Now().UnixNano(),
			Kind:         envelope.KindTick,
			Tick: envelope.TickPayload{
				Price:      fixed.FromFloat64(wt.Price),
				Quantity:   fixed.FromFloat64(wt.Quantity),
				SymbolID:   wt.SymbolID,
				ExchangeID: wt.ExchangeID,
				Flags:      sideFlags(wt.Side),
			},
		}, true, nil
	}
}

func sideFlags(side string) envelope.TickFlags {
	switch side {
	case "bid":
		return envelope.TickFlagBid
	case "ask":
		return envelope.TickFlagAsk
	default:
		return envelope.TickFlagTrade
	}
}

func (f *Feed) reconnect() error {
	time.Sleep(f.reconnectDelay)
	conn, _, err := f.dialer.Dial(f.url, nil)
	if err != nil {
		return fmt.Errorf("wsfeed: reconnect: %w", err)
	}
	_ = f.conn.Close()
	f.conn = conn
	return nil
}

// Close tears down the underlying connection.
func (f *Feed) Close() error {
	return f.conn.Close()
}
