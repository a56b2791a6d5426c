package risk

import "github.com/peter-kozarec/sage/pkg/fixed"

// positionEntry is one symbol slot of the position table, an array-indexed
// table so lookup, update, and aggregate exposure computation are all
// O(1) / O(slots) instead of a linear scan.
type positionEntry struct {
	inUse bool

	Quantity        fixed.Point
	AvgEntryPrice   fixed.Point
	UnrealizedPnL   fixed.Point
	RealizedPnL     fixed.Point
	LastUpdateNanos int64
	TradeCount      uint64
}

// positionTable is mutated only by the risk thread. Gate computes total
// exposure from it on demand and keeps daily PnL in a plain field; neither
// is published through atomics.
type positionTable struct {
	mask  uint32
	slots []positionEntry
}

func newPositionTable(symbolSlots uint32) *positionTable {
	if symbolSlots == 0 || symbolSlots&(symbolSlots-1) != 0 {
		panic("risk: symbol slots must be a power of two")
	}
	return &positionTable{
		mask:  symbolSlots - 1,
		slots: make([]positionEntry, symbolSlots),
	}
}

func (t *positionTable) get(symbolID uint32) *positionEntry {
	return &t.slots[symbolID&t.mask]
}

// applyDelta adjusts a symbol's position by orderValue (signed), the
// conservative pre-publish update the risk gate performs before an order
// leaves the process.
func (t *positionTable) applyDelta(symbolID uint32, orderValue fixed.Point, nowNanos int64) {
	p := t.get(symbolID)
	p.inUse = true
	p.Quantity = p.Quantity.Add(orderValue)
	p.LastUpdateNanos = nowNanos
	p.TradeCount++
}

// reverse undoes a previously applied delta, used when the exchange rejects
// an order the gate had already reflected in the position table.
func (t *positionTable) reverse(symbolID uint32, orderValue fixed.Point, nowNanos int64) {
	p := t.get(symbolID)
	p.Quantity = p.Quantity.Sub(orderValue)
	p.LastUpdateNanos = nowNanos
}

// totalExposure sums |quantity| across every in-use slot. Linear in the
// number of symbol slots, which is small and fixed, so still effectively
// O(1) relative to tick volume.
func (t *positionTable) totalExposure() fixed.Point {
	total := fixed.Zero
	for i := range t.slots {
		if t.slots[i].inUse {
			total = total.Add(t.slots[i].Quantity.Abs())
		}
	}
	return total
}
