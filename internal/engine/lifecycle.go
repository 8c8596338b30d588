package engine

import (
	"time"

	"github.com/xnotid/xnotid/internal/card"
	"github.com/xnotid/xnotid/internal/journal"
	"github.com/xnotid/xnotid/internal/model"
)

// handleNotify is the create-or-replace entry point. Runs on the loop.
func (e *Engine) handleNotify(req Request) uint32 {
	parsed, err := card.Parse(req.Body)
	if err != nil {
		// Malformed cards fall back to plain-text rendering; the sending
		// client is not told.
		e.logger.Warn("malformed card in notification body",
			"app", req.AppName,
			"summary", req.Summary,
			"error", err,
		)
		parsed = nil
	}

	if req.ReplacesID != 0 {
		if rec, ok := e.records[req.ReplacesID]; ok {
			e.replaceRecord(rec, req, parsed)
			return rec.ID
		}
		// Dead or never-seen id: behave as create with a fresh id.
	}

	rec := &model.Notification{
		ID:        e.allocateID(),
		UID:       model.NewUID(),
		State:     model.StateQueued,
		CreatedAt: e.now(),
	}
	applyRequest(rec, req, parsed)
	e.records[rec.ID] = rec
	e.addToGroup(rec)

	e.logger.Debug("notification created",
		"id", rec.ID,
		"app", rec.AppName,
		"summary", rec.Summary,
		"urgency", rec.Urgency.String(),
	)
	e.record(journal.EventReceived, rec, "")

	e.admit(rec)
	return rec.ID
}

// replaceRecord mutates a live record in place: fresh content, re-parsed
// card, reset timer. A visible record keeps its slot.
func (e *Engine) replaceRecord(rec *model.Notification, req Request, parsed *card.Card) {
	oldGroup := rec.Group
	applyRequest(rec, req, parsed)
	if rec.Group != oldGroup {
		e.dropFromGroup(oldGroup, rec.ID)
		e.addToGroup(rec)
	}

	e.logger.Debug("notification replaced", "id", rec.ID, "summary", rec.Summary)
	e.record(journal.EventReceived, rec, "")

	e.sched.disarm(rec.ID)

	switch rec.State {
	case model.StateVisible:
		slot := e.slots.slotOf(rec.ID)
		e.renderer.UpdatePopup(rec.Clone(), slot)
		e.sched.arm(rec.ID, e.timeoutFor(rec))
	case model.StateArchived:
		e.removeCenterEntry(rec.ID)
		rec.State = model.StateQueued
		e.admit(rec)
	default:
		rec.State = model.StateQueued
		e.admit(rec)
	}
}

// applyRequest copies request content onto the record. The record's
// identity (ID, UID, CreatedAt, State) is left alone.
func applyRequest(rec *model.Notification, req Request, parsed *card.Card) {
	rec.AppName = req.AppName
	rec.Icon = req.Icon
	rec.Summary = req.Summary
	rec.Body = req.Body
	rec.Urgency = req.Urgency
	rec.Actions = req.Actions
	rec.Hints = req.Hints
	rec.ExpireTimeout = req.ExpireTimeout
	rec.Transient = req.Transient
	rec.DesktopEntry = req.DesktopEntry
	rec.Category = req.Category
	rec.Group = req.Group
	rec.Image = req.Image
	rec.SoundFile = req.SoundFile
	rec.SuppressSound = req.SuppressSound
	rec.Progress = req.Progress
	rec.Card = parsed
	rec.AcknowledgeToDismiss = req.AcknowledgeToDismiss || parsed != nil
}

// admit decides placement for a queued record: a free popup slot when
// one exists, otherwise the notification center. Archived records carry
// no timer; time pressure only starts once shown.
func (e *Engine) admit(rec *model.Notification) {
	if e.deferredByDnD(rec) {
		e.logger.Debug("notification deferred by do not disturb", "id", rec.ID)
		e.archive(rec)
		return
	}

	if slot, ok := e.slots.assign(rec.ID); ok {
		e.makeVisible(rec, slot)
		return
	}

	e.archive(rec)
}

// archive moves a record to the notification center. Transient records
// have nowhere to wait and are closed instead.
func (e *Engine) archive(rec *model.Notification) {
	if rec.Transient {
		e.closeRecord(rec.ID, model.CloseReasonExpired)
		return
	}

	rec.State = model.StateArchived
	entry := rec.Snapshot(e.now())
	entry.GroupSize = e.groupSize(rec)
	e.center.append(entry)
	e.logger.Debug("notification archived", "id", rec.ID, "backlog", e.center.len())
	e.refreshCenter()
}

// makeVisible assigns the record to a slot, emits the popup intent and
// arms its timeout.
func (e *Engine) makeVisible(rec *model.Notification, slot int) {
	rec.State = model.StateVisible
	e.renderer.ShowPopup(rec.Clone(), slot)
	e.sched.arm(rec.ID, e.timeoutFor(rec))

	e.logger.Debug("notification visible",
		"id", rec.ID,
		"slot", slot,
		"timeout", e.timeoutFor(rec).String(),
	)

	if e.onShown != nil {
		e.onShown(rec.Clone())
	}
}

// closeRecord removes a record and emits the close event. Unknown ids
// are a tolerated no-op: sending clients race with dismissal.
func (e *Engine) closeRecord(id uint32, reason model.CloseReason) {
	rec, ok := e.records[id]
	if !ok {
		return
	}

	e.sched.disarm(id)

	freedSlot := -1
	if rec.State == model.StateVisible {
		freedSlot = e.slots.release(id)
		if freedSlot >= 0 {
			e.renderer.RemovePopup(freedSlot)
		}
	}
	if rec.State == model.StateArchived {
		e.removeCenterEntry(id)
	}

	rec.State = model.StateClosed
	delete(e.records, id)
	e.dropFromGroup(rec.Group, id)

	e.logger.Debug("notification closed", "id", id, "reason", reason.String())
	e.record(closeEvent(reason), rec, "")

	if e.sink != nil {
		e.sink.NotificationClosed(id, reason)
	}

	if freedSlot >= 0 {
		e.promote()
	}
}

// closeEvent maps a close reason to its journal event.
func closeEvent(reason model.CloseReason) journal.Event {
	switch reason {
	case model.CloseReasonExpired:
		return journal.EventExpired
	case model.CloseReasonDismissed:
		return journal.EventDismissed
	default:
		return journal.EventClosed
	}
}

// promote moves the oldest promotable archived record into a free slot.
// Selection is FIFO by archive time; urgency never reorders records that
// are eligible to show. Do Not Disturb keeps holding back whatever
// admission would have held back, so a freed slot does not leak deferred
// records onto the screen.
func (e *Engine) promote() {
	for _, entry := range e.center.snapshot() {
		rec, live := e.records[entry.ID]
		if !live || rec.State != model.StateArchived {
			// A center entry without a live archived record should not
			// happen; drop it rather than wedge promotion.
			e.removeCenterEntry(entry.ID)
			continue
		}
		if e.deferredByDnD(rec) {
			continue
		}

		slot, free := e.slots.assign(rec.ID)
		if !free {
			return
		}

		e.removeCenterEntry(rec.ID)
		e.logger.Debug("notification promoted from center", "id", rec.ID, "slot", slot)
		e.makeVisible(rec, slot)
		return
	}
}

// deferredByDnD reports whether Do Not Disturb keeps rec off the popup
// slots. The same rule gates admission and promotion.
func (e *Engine) deferredByDnD(rec *model.Notification) bool {
	return e.dnd && !(rec.Urgency == model.UrgencyCritical && e.cfg.DnD.CriticalBypass)
}

// fillSlots promotes archived records until slots are full or the
// backlog is empty. Used when leaving Do Not Disturb.
func (e *Engine) fillSlots() {
	for e.slots.occupied() < len(e.slots.ids) && e.center.len() > 0 {
		before := e.center.len()
		e.promote()
		if e.center.len() == before {
			return
		}
	}
}

// handleAction records an action invocation. Runs on the loop.
func (e *Engine) handleAction(id uint32, actionKey string) {
	rec, ok := e.records[id]
	if !ok {
		return
	}

	e.logger.Debug("action invoked", "id", id, "action", actionKey)
	e.record(journal.EventAction, rec, actionKey)

	if e.sink != nil {
		e.sink.ActionInvoked(id, actionKey)
	}

	if rec.AcknowledgeToDismiss {
		e.closeRecord(id, model.CloseReasonDismissed)
	}
}

// handleExpire processes a timer fire. A stale generation or a record
// that is no longer visible means the timer raced a close or a
// replacement; those fires are dropped without logging, they are
// expected under normal operation.
func (e *Engine) handleExpire(id uint32, gen uint64) {
	if !e.sched.current(id, gen) {
		return
	}
	e.sched.clear(id)

	rec, ok := e.records[id]
	if !ok || rec.State != model.StateVisible {
		return
	}

	e.closeRecord(id, model.CloseReasonExpired)
}

// handleAcknowledge removes one center entry and its archived record.
// Center removals skip the close event entirely.
func (e *Engine) handleAcknowledge(id uint32) {
	rec, ok := e.records[id]
	if !ok || rec.State != model.StateArchived {
		return
	}

	e.removeCenterEntry(id)
	delete(e.records, id)
	e.dropFromGroup(rec.Group, id)
	e.record(journal.EventAcknowledged, rec, "")
	e.logger.Debug("center entry acknowledged", "id", id)
}

// handleClearCenter empties the backlog and deletes the archived records.
func (e *Engine) handleClearCenter() {
	removed := e.center.clear()
	for _, entry := range removed {
		if rec, ok := e.records[entry.ID]; ok && rec.State == model.StateArchived {
			delete(e.records, entry.ID)
			e.dropFromGroup(rec.Group, entry.ID)
			e.record(journal.EventCleared, rec, "")
		}
	}
	e.logger.Debug("center cleared", "removed", len(removed))
	e.refreshCenter()
}

// removeCenterEntry drops the center entry for id and refreshes the
// rendered center when something was removed.
func (e *Engine) removeCenterEntry(id uint32) {
	if e.center.remove(id) {
		e.refreshCenter()
	}
}

// refreshCenter re-emits the center contents when it is visible.
func (e *Engine) refreshCenter() {
	if e.centerVisible {
		e.renderer.ShowCenter(e.center.snapshot())
	}
}

// timeoutFor resolves a record's effective timeout. An explicit positive
// request wins; negative means never; zero falls back to the configured
// per-urgency default, where a configured zero also means never.
// Acknowledge-to-dismiss records stay until the user acts on them.
func (e *Engine) timeoutFor(rec *model.Notification) time.Duration {
	switch {
	case rec.AcknowledgeToDismiss:
		return 0
	case rec.ExpireTimeout > 0:
		return time.Duration(rec.ExpireTimeout) * time.Millisecond
	case rec.ExpireTimeout < 0:
		return 0
	default:
		return e.cfg.TimeoutFor(rec.Urgency)
	}
}

// allocateID returns the next free identifier. IDs increase
// monotonically and skip ids still in use, wrapping past the uint32
// range back to 1; zero is never a valid identifier.
func (e *Engine) allocateID() uint32 {
	for {
		e.nextID++
		if e.nextID == 0 {
			e.nextID = 1
		}
		if _, live := e.records[e.nextID]; !live {
			return e.nextID
		}
	}
}
