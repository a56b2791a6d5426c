package execution

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

// lineBufferSize bounds every audit record; a record that would overflow it
// is truncated with a trailing marker rather than silently growing the
// buffer, since the hot path must not allocate.
const lineBufferSize = 256

const truncMarker = "[TRUNC]\n"

// flushEvery triggers an implicit flush every N appended records.
const flushEvery = 100

// Event is the lifecycle stage of an order recorded by the audit log.
type Event uint8

const (
	EventOrder Event = iota
	EventSent
	EventAck
	EventFill
	EventReject
	EventError
)

func (e Event) String() string {
	switch e {
	case EventOrder:
		return "ORDER"
	case EventSent:
		return "SENT"
	case EventAck:
		return "ACK"
	case EventFill:
		return "FILL"
	case EventReject:
		return "REJECT"
	case EventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AuditLog is the ordered, append-only lifecycle log. flush pushes the
// buffered writer's contents into the kernel (cheap, visible to other
// readers of the file, not durable on power loss); sync additionally asks
// the kernel to persist to stable storage. The hot order-issuing thread
// appends while a low-priority housekeeping goroutine calls Sync on a
// timer, so every append/flush/sync takes a short-held mutex.
type AuditLog struct {
	mu          sync.Mutex
	f           *os.File
	w           *bufio.Writer
	writeCount  uint64
	truncations uint64
	line        [lineBufferSize]byte
}

// auditHeader is emitted once, at file creation, so a reader scanning the
// raw file can tell the record layout without consulting this package.
const auditHeader = "# SAGE Audit Log\n" +
	"# Format: TIMESTAMP|EVENT|ORDER_ID|SYMBOL|SIDE|PRICE|QTY\n" +
	"# Events: ORDER (intent), SENT (transmitted), ACK, REJECT, FILL, ERROR\n"

// OpenAuditLog opens (creating if needed, appending if present) the audit
// log file at path. A fresh (zero-length) file gets the header block
// written before any event record; a file that already has content is
// assumed to already carry it and is appended to as-is.
func OpenAuditLog(path string) (*AuditLog, error) {
	info, statErr := os.Stat(path)
	needsHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("execution: open audit log: %w", err)
	}

	a := &AuditLog{f: f, w: bufio.NewWriterSize(f, lineBufferSize*flushEvery)}
	if needsHeader {
		if _, err := a.w.WriteString(auditHeader); err != nil {
			return nil, fmt.Errorf("execution: write audit header: %w", err)
		}
		if err := a.w.Flush(); err != nil {
			return nil, fmt.Errorf("execution: flush audit header: %w", err)
		}
	}
	return a, nil
}

func nowISO8601() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// append formats one record, writes it, and applies the durability policy:
// an implicit flush every flushEvery entries, plus an immediate flush when
// forceFlush is set (REJECT records always force-flush).
func (a *AuditLog) append(orderID uint64, ev Event, fields string, forceFlush bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	line := a.line[:0]
	line = append(line, nowISO8601()...)
	line = append(line, '|')
	line = append(line, ev.String()...)
	line = append(line, '|')
	line = fmt.Appendf(line, "%d", orderID)
	if fields != "" {
		line = append(line, '|')
		line = append(line, fields...)
	}
	line = append(line, '\n')

	if len(line) > lineBufferSize {
		a.truncations++
		line = line[:lineBufferSize-len(truncMarker)]
		line = append(line, truncMarker...)
	}

	if _, err := a.w.Write(line); err != nil {
		return fmt.Errorf("execution: audit write: %w", err)
	}
	a.writeCount++

	if forceFlush || a.writeCount%flushEvery == 0 {
		if err := a.w.Flush(); err != nil {
			return fmt.Errorf("execution: audit flush: %w", err)
		}
	}
	return nil
}

// Order logs the ORDER event, which must be written before any wire action.
func (a *AuditLog) Order(orderID uint64, symbol string, side string, price, quantity fixed.Point) error {
	fields := fmt.Sprintf("%s|%s|%s|%s", symbol, side, price.StringFixed(8), quantity.StringFixed(8))
	return a.append(orderID, EventOrder, fields, false)
}

// Sent logs that bytes left the process for this order. Does not imply
// exchange receipt.
func (a *AuditLog) Sent(orderID uint64) error {
	return a.append(orderID, EventSent, "", false)
}

// Ack logs an exchange acknowledgment, with an optional exchange-assigned id.
func (a *AuditLog) Ack(orderID uint64, ackID string) error {
	return a.append(orderID, EventAck, ackID, false)
}

// Fill logs an exchange fill.
func (a *AuditLog) Fill(orderID uint64, symbol string, price, quantity fixed.Point) error {
	fields := fmt.Sprintf("%s|%s|%s", symbol, price.StringFixed(8), quantity.StringFixed(8))
	return a.append(orderID, EventFill, fields, false)
}

// Reject logs a rejection, truncating reason to 63 characters. REJECT is
// always force-flushed per the durability policy, to aid debugging.
func (a *AuditLog) Reject(orderID uint64, reason string) error {
	if len(reason) > 63 {
		reason = reason[:63]
	}
	return a.append(orderID, EventReject, reason, true)
}

// Error logs a non-fatal error, truncating message to 63 characters.
func (a *AuditLog) Error(orderID uint64, message string) error {
	if len(message) > 63 {
		message = message[:63]
	}
	return a.append(orderID, EventError, message, false)
}

// Sync flushes the buffered writer, then requests the kernel persist the
// file to stable storage. Intended to be called periodically by a dedicated
// low-priority goroutine (default every 50ms) and once more on graceful
// shutdown.
func (a *AuditLog) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("execution: audit flush: %w", err)
	}
	return a.f.Sync()
}

// Truncations returns the count of records that overflowed the line buffer.
func (a *AuditLog) Truncations() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.truncations
}

// Close syncs and releases the underlying file handle.
func (a *AuditLog) Close() error {
	if err := a.Sync(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}

// RunSyncLoop periodically calls Sync until stop is closed. Intended to run
// on its own goroutine, a dedicated low-priority
// sync thread.
func (a *AuditLog) RunSyncLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = a.Sync()
		}
	}
}
