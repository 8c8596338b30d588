package engine

// slotTable tracks which notification occupies which popup slot.
// Slot indices are dense in [0, max). A zero id marks a free slot;
// live notification ids are never zero.
type slotTable struct {
	ids []uint32
}

func newSlotTable(max int) *slotTable {
	if max < 1 {
		max = 1
	}
	return &slotTable{ids: make([]uint32, max)}
}

// assign places id into the lowest free slot and returns its index.
// Returns false when every slot is occupied.
func (t *slotTable) assign(id uint32) (int, bool) {
	for i, occupant := range t.ids {
		if occupant == 0 {
			t.ids[i] = id
			return i, true
		}
	}
	return -1, false
}

// release frees the slot occupied by id and returns its index,
// or -1 when id occupies no slot.
func (t *slotTable) release(id uint32) int {
	for i, occupant := range t.ids {
		if occupant == id {
			t.ids[i] = 0
			return i
		}
	}
	return -1
}

// slotOf returns the slot index occupied by id, or -1.
func (t *slotTable) slotOf(id uint32) int {
	for i, occupant := range t.ids {
		if occupant == id {
			return i
		}
	}
	return -1
}

// occupied returns the number of occupied slots.
func (t *slotTable) occupied() int {
	n := 0
	for _, occupant := range t.ids {
		if occupant != 0 {
			n++
		}
	}
	return n
}
