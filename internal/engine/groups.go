package engine

import (
	"github.com/xnotid/xnotid/internal/model"
)

// Group membership mirrors the live record set: ids sharing a non-empty
// x-group key collapse together on rendering surfaces. Loop-owned, like
// everything else the handlers touch.

func (e *Engine) addToGroup(rec *model.Notification) {
	if rec.Group == "" {
		return
	}
	e.groups[rec.Group] = append(e.groups[rec.Group], rec.ID)
}

func (e *Engine) dropFromGroup(key string, id uint32) {
	if key == "" {
		return
	}
	members := e.groups[key]
	for i, member := range members {
		if member == id {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(e.groups, key)
		return
	}
	e.groups[key] = members
}

// groupSize returns the number of live records sharing rec's group,
// rec itself included. Ungrouped records answer zero.
func (e *Engine) groupSize(rec *model.Notification) int {
	if rec.Group == "" {
		return 0
	}
	return len(e.groups[rec.Group])
}
