package compiler

import (
	"slices"

	"github.com/quelaag/evsc/internal/ir"
)

// DefaultPoolSize is the number of condition-group registers the target VM
// provides per polarity (AND slots +1..+7, OR slots -1..-7).
const DefaultPoolSize = 7

// allocator hands out condition-group registers for one event. Allocation
// follows program order; release usually follows stack discipline but
// arbitrary-order release is supported for branches consumed early.
//
// Determinism: free lists stay sorted by magnitude and acquire always
// takes the smallest free ID, so identical trees always receive identical
// slot assignments.
type allocator struct {
	pool    int
	freeAND []ir.SlotID
	freeOR  []ir.SlotID

	liveAND, liveOR           int
	highWaterAND, highWaterOR int
}

func newAllocator(pool int) *allocator {
	a := &allocator{pool: pool}
	for i := 1; i <= pool; i++ {
		a.freeAND = append(a.freeAND, ir.SlotID(i))
		a.freeOR = append(a.freeOR, ir.SlotID(-i))
	}
	return a
}

// acquire takes the lowest-magnitude free slot of the given polarity.
// Returns false when the pool is exhausted.
func (a *allocator) acquire(kind ir.GroupKind) (ir.SlotID, bool) {
	switch kind {
	case ir.GroupAND:
		if len(a.freeAND) == 0 {
			return 0, false
		}
		s := a.freeAND[0]
		a.freeAND = a.freeAND[1:]
		a.liveAND++
		if a.liveAND > a.highWaterAND {
			a.highWaterAND = a.liveAND
		}
		return s, true
	case ir.GroupOR:
		if len(a.freeOR) == 0 {
			return 0, false
		}
		s := a.freeOR[0]
		a.freeOR = a.freeOR[1:]
		a.liveOR++
		if a.liveOR > a.highWaterOR {
			a.highWaterOR = a.liveOR
		}
		return s, true
	default:
		return 0, false
	}
}

// release returns a slot to its pool. Releasing MainSlot or a slot that is
// already free is a programming error in the linearizer and panics.
func (a *allocator) release(slot ir.SlotID) {
	switch slot.Kind() {
	case ir.GroupAND:
		if slices.Contains(a.freeAND, slot) {
			panic("allocator: double release of AND slot")
		}
		a.freeAND = insertSorted(a.freeAND, slot, false)
		a.liveAND--
	case ir.GroupOR:
		if slices.Contains(a.freeOR, slot) {
			panic("allocator: double release of OR slot")
		}
		a.freeOR = insertSorted(a.freeOR, slot, true)
		a.liveOR--
	default:
		panic("allocator: release of main slot")
	}
}

// insertSorted keeps free lists ordered by magnitude (descending raw value
// for OR slots, since -1 has the smallest magnitude).
func insertSorted(free []ir.SlotID, slot ir.SlotID, descending bool) []ir.SlotID {
	i, _ := slices.BinarySearchFunc(free, slot, func(a, b ir.SlotID) int {
		if descending {
			return int(b) - int(a)
		}
		return int(a) - int(b)
	})
	return slices.Insert(free, i, slot)
}
