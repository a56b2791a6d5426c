package execution

import (
	"strconv"
	"time"

	"github.com/peter-kozarec/sage/pkg/envelope"
)

// soh is the tag=value field separator used by the canonical text protocol
// for financial order entry (FIX): a single byte with code 0x01.
const soh = byte(0x01)

// MsgTypeNewOrder and MsgTypeCancel are the two message types this engine
// emits.
const (
	MsgTypeNewOrder = "D"
	MsgTypeCancel   = "F"
)

const beginString = "FIX.4.4"

// EncodeNewOrder renders an OrderRequestPayload as a tag=value wire message.
// dst is used as scratch space for the body only; the returned message is a
// new slice allocated by finalize on every call, not dst. BodyLength is the
// length of the encoded body and the checksum covers every byte before it
// (header and body), so the message is built in two passes: body first,
// then header + checksum.
func EncodeNewOrder(dst []byte, clOrdID uint64, symbol string, order envelope.OrderRequestPayload, transactTimeNanos int64) []byte {
	body := dst[:0]
	body = appendField(body, "35", MsgTypeNewOrder)
	body = appendField(body, "11", strconv.FormatUint(clOrdID, 10))
	body = appendField(body, "55", symbol)
	body = appendField(body, "54", sideTag(order.Side))
	body = appendField(body, "60", formatTransactTime(transactTimeNanos))
	body = appendField(body, "38", order.Quantity.StringFixed(8))
	body = appendField(body, "40", ordTypeTag(order.Type))
	if order.Type == envelope.OrderTypeLimit {
		body = appendField(body, "44", order.Price.StringFixed(8))
	}
	body = appendField(body, "59", tifTag(order.TimeInForce))

	return finalize(body)
}

// EncodeCancel renders a cancel request for orderID.
func EncodeCancel(dst []byte, clOrdID, origOrderID uint64, symbol string, transactTimeNanos int64) []byte {
	body := dst[:0]
	body = appendField(body, "35", MsgTypeCancel)
	body = appendField(body, "11", strconv.FormatUint(clOrdID, 10))
	body = appendField(body, "41", strconv.FormatUint(origOrderID, 10))
	body = appendField(body, "55", symbol)
	body = appendField(body, "60", formatTransactTime(transactTimeNanos))

	return finalize(body)
}

func appendField(dst []byte, tag, value string) []byte {
	dst = append(dst, tag...)
	dst = append(dst, '=')
	dst = append(dst, value...)
	dst = append(dst, soh)
	return dst
}

// finalize prepends BeginString and a placeholder BodyLength, fixes up the
// BodyLength once the body's length is known, then appends the checksum
// field computed over every preceding byte.
func finalize(body []byte) []byte {
	bodyLenStr := zeroPad3(len(body))

	header := make([]byte, 0, len(body)+32)
	header = appendField(header, "8", beginString)
	header = appendField(header, "9", bodyLenStr)

	msg := append(header, body...)

	sum := 0
	for _, b := range msg {
		sum += int(b)
	}
	checksum := sum % 256

	msg = appendField(msg, "10", zeroPad3(checksum))
	return msg
}

func zeroPad3(v int) string {
	s := strconv.Itoa(v)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func sideTag(side envelope.Side) string {
	if side == envelope.SideBuy {
		return "1"
	}
	return "2"
}

func ordTypeTag(t envelope.OrderType) string {
	if t == envelope.OrderTypeLimit {
		return "2"
	}
	return "1"
}

func tifTag(tif envelope.TimeInForce) string {
	if tif == envelope.TimeInForceIOC {
		return "3"
	}
	return "0"
}

func formatTransactTime(nanos int64) string {
	const layout = "20060102-15:04:05.000"
	return time.Unix(0, nanos).UTC().Format(layout)
}
