package envelope

import (
	"testing"

	"github.com/peter-kozarec/sage/pkg/fixed"
)

func TestEnvelope_CopyByValue(t *testing.T) {
	e := Envelope{
		Seq:  1,
		Kind: KindTick,
		Tick: TickPayload{
			Price:    fixed.FromInt(100),
			Quantity: fixed.FromInt(1),
			SymbolID: 7,
			Flags:    TickFlagBid,
		},
	}

	cp := e
	cp.Tick.SymbolID = 99

	if e.Tick.SymbolID != 7 {
		t.Error("copy mutated the original envelope; Envelope is not trivially copyable")
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindTick:         "TICK",
		KindSignal:       "SIGNAL",
		KindOrderRequest: "ORDER_REQUEST",
		KindShutdown:     "SHUTDOWN",
		Kind(255):        "UNKNOWN",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %s; want %s", k, got, want)
		}
	}
}
