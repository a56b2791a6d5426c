package execution

import (
	"os"
	"strings"
	"testing"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

// An order that is sent, acknowledged, and filled must leave ORDER, SENT,
// ACK, FILL records in that order, each carrying the fields a downstream
// reconciliation reader needs.
func TestAuditLog_LifecycleHappyPathRecordsEveryStage(t *testing.T) {
	log := openTestAudit(t)

	if err := log.Order(12345, "42", "BUY", fixed.FromFloat64(50000), fixed.FromFloat64(0.1)); err != nil {
		t.Fatalf("Order: %v", err)
	}
	if err := log.Sent(12345); err != nil {
		t.Fatalf("Sent: %v", err)
	}
	if err := log.Ack(12345, "EX123"); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := log.Fill(12345, "42", fixed.FromFloat64(45001.5), fixed.FromFloat64(0.5)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	lines := readAuditLines(t, log)
	if len(lines) != 4 {
		t.Fatalf("expected 4 records, got %d: %v", len(lines), lines)
	}

	wantSuffix := []string{
		"|ORDER|12345|42|BUY|50000.00000000|0.10000000",
		"|SENT|12345",
		"|ACK|12345|EX123",
		"|FILL|12345|42|45001.50000000|0.50000000",
	}
	for i, want := range wantSuffix {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q; want suffix %q", i, lines[i], want)
		}
	}
}

// A rejected then errored order must leave REJECT and ERROR records with
// their reasons intact, and REJECT must be visible without an explicit Sync
// since it force-flushes.
func TestAuditLog_RejectThenErrorPathFlushesImmediately(t *testing.T) {
	log := openTestAudit(t)

	if err := log.Order(54321, "7", "SELL", fixed.Zero, fixed.FromInt(1)); err != nil {
		t.Fatalf("Order: %v", err)
	}
	if err := log.Reject(54321, "INSUFFICIENT_FUNDS"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	data, err := os.ReadFile(log.f.Name())
	if err != nil {
		t.Fatalf("read audit file before any Sync: %v", err)
	}
	if !strings.Contains(string(data), "REJECT|54321|INSUFFICIENT_FUNDS") {
		t.Fatalf("REJECT record not visible without Sync: %q", data)
	}

	if err := log.Error(54321, "CONNECTION_LOST"); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	lines := readAuditLines(t, log)
	var sawOrder, sawReject, sawError bool
	for _, l := range lines {
		switch {
		case strings.Contains(l, "ORDER|54321"):
			sawOrder = true
		case strings.Contains(l, "REJECT|54321|INSUFFICIENT_FUNDS"):
			sawReject = true
		case strings.Contains(l, "ERROR|54321|CONNECTION_LOST"):
			sawError = true
		}
	}
	if !sawOrder || !sawReject || !sawError {
		t.Fatalf("missing expected record kinds: %v", lines)
	}
}

// A record that would overflow the fixed line buffer is truncated with a
// trailing marker and increments the truncation counter, rather than
// growing the buffer or corrupting the following record.
func TestAuditLog_OversizedRecordTruncatesWithMarker(t *testing.T) {
	log := openTestAudit(t)

	overlongSymbol := strings.Repeat("X", lineBufferSize)
	if err := log.Order(2, overlongSymbol, "BUY", fixed.FromInt(1), fixed.FromInt(1)); err != nil {
		t.Fatalf("Order: %v", err)
	}
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	lines := readAuditLines(t, log)
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(lines), lines)
	}
	if len(lines[0])+1 > lineBufferSize { // +1 for the trailing newline append strips
		t.Errorf("record length %d exceeds line buffer size %d", len(lines[0])+1, lineBufferSize)
	}
	wantMarker := strings.TrimSuffix(truncMarker, "\n")
	if !strings.HasSuffix(lines[0], wantMarker) {
		t.Errorf("expected truncation marker %q at end of record: %q", wantMarker, lines[0])
	}
	if log.Truncations() != 1 {
		t.Errorf("Truncations() = %d; want 1", log.Truncations())
	}
}

// After a simulated restart, a reader scanning the raw audit file can
// partition order ids into complete (ORDER+SENT+ACK all present),
// needs-exchange-query (ORDER+SENT but no terminal event), and
// definitely-unsent (ORDER only, no SENT).
func TestAuditLog_RestartReconciliationPartitionsOrderIDs(t *testing.T) {
	log := openTestAudit(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected audit error: %v", err)
		}
	}
	must(log.Order(1, "A", "BUY", fixed.Zero, fixed.FromInt(1)))
	must(log.Sent(1))
	must(log.Ack(1, "ex-1"))
	must(log.Order(2, "A", "BUY", fixed.Zero, fixed.FromInt(1)))
	must(log.Sent(2))
	must(log.Order(3, "A", "BUY", fixed.Zero, fixed.FromInt(1)))
	must(log.Sync())

	lines := readAuditLines(t, log)

	sent := map[string]bool{}
	acked := map[string]bool{}
	ordered := map[string]bool{}
	for _, l := range lines {
		parts := strings.Split(l, "|")
		if len(parts) < 3 {
			continue
		}
		event, orderID := parts[1], parts[2]
		switch event {
		case "ORDER":
			ordered[orderID] = true
		case "SENT":
			sent[orderID] = true
		case "ACK":
			acked[orderID] = true
		}
	}

	complete := map[string]bool{}
	needsQuery := map[string]bool{}
	unsent := map[string]bool{}
	for id := range ordered {
		switch {
		case acked[id]:
			complete[id] = true
		case sent[id]:
			needsQuery[id] = true
		default:
			unsent[id] = true
		}
	}

	if !complete["1"] || len(complete) != 1 {
		t.Errorf("complete = %v; want {1}", complete)
	}
	if !needsQuery["2"] || len(needsQuery) != 1 {
		t.Errorf("needsQuery = %v; want {2}", needsQuery)
	}
	if !unsent["3"] || len(unsent) != 1 {
		t.Errorf("unsent = %v; want {3}", unsent)
	}
}

// readAuditLines reads the raw audit file and returns its event records,
// skipping the "# ..." header block emitted at file creation.
func readAuditLines(t *testing.T, log *AuditLog) []string {
	t.Helper()
	data, err := os.ReadFile(log.f.Name())
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(l, "#") {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
