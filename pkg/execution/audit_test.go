package execution

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

func openTestAudit(t *testing.T) *AuditLog {
	t.Helper()
	dir := t.TempDir()
	log, err := OpenAuditLog(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("OpenAuditLog: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestAuditLog_OrderPrecedesSent(t *testing.T) {
	log := openTestAudit(t)

	if err := log.Order(1, "EURUSD", "BUY", fixed.Zero, fixed.FromInt(1)); err != nil {
		t.Fatalf("Order: %v", err)
	}
	if err := log.Sent(1); err != nil {
		t.Fatalf("Sent: %v", err)
	}
	if err := log.Ack(1, "ack-123"); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	lines := readAuditLines(t, log)
	if len(lines) != 3 {
		t.Fatalf("expected 3 records, got %d: %v", len(lines), lines)
	}

	orderIdx, sentIdx, ackIdx := -1, -1, -1
	for i, l := range lines {
		switch {
		case strings.Contains(l, "|ORDER|"):
			orderIdx = i
		case strings.Contains(l, "|SENT|"):
			sentIdx = i
		case strings.Contains(l, "|ACK|"):
			ackIdx = i
		}
	}
	if orderIdx == -1 || sentIdx == -1 || ackIdx == -1 {
		t.Fatalf("missing expected record kinds: %v", lines)
	}
	if !(orderIdx < sentIdx && sentIdx < ackIdx) {
		t.Errorf("lifecycle ordering violated: ORDER@%d SENT@%d ACK@%d", orderIdx, sentIdx, ackIdx)
	}
}

func TestAuditLog_TimestampISO8601Z(t *testing.T) {
	log := openTestAudit(t)
	if err := log.Sent(1); err != nil {
		t.Fatalf("Sent: %v", err)
	}
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	lines := readAuditLines(t, log)
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(lines), lines)
	}
	ts := strings.SplitN(lines[0], "|", 2)[0]
	if !strings.HasSuffix(ts, "Z") {
		t.Errorf("timestamp %q does not end in Z", ts)
	}
	if len(ts) != len("2006-01-02T15:04:05Z") {
		t.Errorf("timestamp %q has unexpected length", ts)
	}
}

func TestAuditLog_RejectReasonTruncated(t *testing.T) {
	log := openTestAudit(t)
	longReason := strings.Repeat("x", 200)
	if err := log.Reject(1, longReason); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	// Reject force-flushes, so no explicit Sync needed before reading,
	// but Sync once more for determinism against the OS page cache.
	_ = log.Sync()

	lines := readAuditLines(t, log)
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(lines), lines)
	}
	parts := strings.SplitN(lines[0], "|", 4)
	if len(parts) != 4 {
		t.Fatalf("unexpected record shape: %q", lines[0])
	}
	if len(parts[3]) > 63 {
		t.Errorf("reject reason not truncated: %d bytes", len(parts[3]))
	}
}

func TestAuditLog_Truncations(t *testing.T) {
	log := openTestAudit(t)
	if log.Truncations() != 0 {
		t.Errorf("expected zero truncations initially, got %d", log.Truncations())
	}
}
