package engine

import (
	"github.com/xnotid/xnotid/internal/model"
)

// center is the notification center backlog: immutable snapshots of
// archived notifications, ordered FIFO by archive time. Promotion takes
// from the front; there is no urgency-based reordering, which keeps the
// order observably first-in-first-out.
type center struct {
	entries []model.CenterEntry
}

func newCenter() *center {
	return &center{}
}

func (c *center) append(entry model.CenterEntry) {
	c.entries = append(c.entries, entry)
}

// remove deletes the entry for id, preserving order.
func (c *center) remove(id uint32) bool {
	for i, entry := range c.entries {
		if entry.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns a copy of the backlog for handing to a renderer.
func (c *center) snapshot() []model.CenterEntry {
	out := make([]model.CenterEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// clear empties the backlog and returns the removed entries.
func (c *center) clear() []model.CenterEntry {
	removed := c.entries
	c.entries = nil
	return removed
}

func (c *center) len() int {
	return len(c.entries)
}
