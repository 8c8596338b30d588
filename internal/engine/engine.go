// Package engine implements the notification management core: the
// canonical notification store, the admission-controlled popup slots,
// per-urgency timeout scheduling, and the notification center backlog.
//
// All mutable state is owned by a single loop goroutine. Protocol
// handlers and timer callbacks are event sources that hand work off
// through one command channel, so a replacement update can never race a
// concurrent expiry mid-mutation.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xnotid/xnotid/internal/config"
	"github.com/xnotid/xnotid/internal/journal"
	"github.com/xnotid/xnotid/internal/model"
	"github.com/xnotid/xnotid/internal/render"
)

// Request carries the parameters of a create-or-replace notification
// call, already lifted out of transport encoding.
type Request struct {
	ReplacesID uint32
	AppName    string
	Icon       string
	Summary    string
	Body       string
	Actions    []model.Action
	Urgency    model.Urgency
	// ExpireTimeout in milliseconds: zero = configured default for the
	// urgency, negative = never expire.
	ExpireTimeout int32
	Hints         map[string]string

	Transient            bool
	AcknowledgeToDismiss bool
	DesktopEntry         string
	Category             string
	Group                string
	Image                model.Image
	SoundFile            string
	SuppressSound        bool
	Progress             int
}

// Sink receives the outbound protocol events. Implementations must not
// block: they are invoked from the engine loop.
type Sink interface {
	NotificationClosed(id uint32, reason model.CloseReason)
	ActionInvoked(id uint32, actionKey string)
}

// Status is a point-in-time view of engine state.
type Status struct {
	Visible       int
	Archived      int
	DnD           bool
	CenterVisible bool
}

// Engine is the notification management core. Construct with New, start
// with Run, and stop by cancelling the Run context.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer render.Renderer

	sink    Sink
	journal *journal.Writer
	onShown func(n model.Notification)

	cmds chan func()
	done chan struct{}

	// Loop-owned state. Never touched outside the Run goroutine.
	records       map[uint32]*model.Notification
	groups        map[string][]uint32
	slots         *slotTable
	center        *center
	sched         *scheduler
	nextID        uint32
	dnd           bool
	centerVisible bool
}

// New creates an Engine. The renderer is required; sink, journal and
// shown callback are optional and set before Run.
func New(cfg *config.Config, renderer render.Renderer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		renderer: renderer,
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
		records:  make(map[uint32]*model.Notification),
		groups:   make(map[string][]uint32),
		slots:    newSlotTable(cfg.Display.MaxVisible),
		center:   newCenter(),
		dnd:      cfg.DnD.Enabled,
	}
	e.sched = newScheduler(func(id uint32, gen uint64) {
		e.post(func() { e.handleExpire(id, gen) })
	})
	return e
}

// SetSink sets the outbound event sink.
func (e *Engine) SetSink(sink Sink) {
	e.sink = sink
}

// SetJournal sets the lifecycle event journal.
func (e *Engine) SetJournal(w *journal.Writer) {
	e.journal = w
}

// SetShownCallback sets the callback invoked whenever a notification
// becomes visible (initial admission or promotion from the center).
func (e *Engine) SetShownCallback(fn func(n model.Notification)) {
	e.onShown = fn
}

// Run drains the command queue until ctx is cancelled. It must be
// running before any other method is called.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine started",
		"max_visible", e.cfg.Display.MaxVisible,
		"dnd", e.dnd,
	)

	defer close(e.done)
	for {
		select {
		case fn := <-e.cmds:
			fn()
		case <-ctx.Done():
			e.sched.stopAll()
			e.logger.Info("engine stopped")
			return
		}
	}
}

// post enqueues work for the loop without waiting for it.
func (e *Engine) post(fn func()) {
	select {
	case e.cmds <- fn:
	case <-e.done:
	}
}

// call enqueues work and waits for the loop to execute it. After
// shutdown it returns without running fn.
func (e *Engine) call(fn func()) {
	ready := make(chan struct{})
	e.post(func() {
		fn()
		close(ready)
	})
	select {
	case <-ready:
	case <-e.done:
	}
}

// Notify creates a notification, or replaces a live one when the request
// carries its identifier. Returns the record's identifier.
func (e *Engine) Notify(req Request) uint32 {
	var id uint32
	e.call(func() { id = e.handleNotify(req) })
	return id
}

// Close removes a notification with the given reason. Closing an unknown
// or already-closed identifier is a silent no-op.
func (e *Engine) Close(id uint32, reason model.CloseReason) {
	e.call(func() { e.closeRecord(id, reason) })
}

// RecordAction records a user action on a notification. Records with
// acknowledge-to-dismiss semantics are also closed as dismissed.
// Unknown identifiers are a silent no-op.
func (e *Engine) RecordAction(id uint32, actionKey string) {
	e.call(func() { e.handleAction(id, actionKey) })
}

// ToggleCenter flips the notification center visibility and returns the
// new state.
func (e *Engine) ToggleCenter() bool {
	var visible bool
	e.call(func() {
		e.centerVisible = !e.centerVisible
		if e.centerVisible {
			e.renderer.ShowCenter(e.center.snapshot())
		} else {
			e.renderer.HideCenter()
		}
		visible = e.centerVisible
	})
	return visible
}

// ToggleDnD flips Do Not Disturb and returns the new state. Leaving DnD
// fills any free popup slots from the center backlog.
func (e *Engine) ToggleDnD() bool {
	var enabled bool
	e.call(func() {
		e.dnd = !e.dnd
		e.logger.Info("do not disturb toggled", "enabled", e.dnd)
		if !e.dnd {
			e.fillSlots()
		}
		enabled = e.dnd
	})
	return enabled
}

// Acknowledge removes a single entry from the notification center. The
// archived record is deleted without a close event.
func (e *Engine) Acknowledge(id uint32) {
	e.call(func() { e.handleAcknowledge(id) })
}

// ClearCenter empties the notification center backlog, deleting the
// archived records without close events.
func (e *Engine) ClearCenter() {
	e.call(func() { e.handleClearCenter() })
}

// CenterEntries returns a snapshot of the center backlog.
func (e *Engine) CenterEntries() []model.CenterEntry {
	var entries []model.CenterEntry
	e.call(func() { entries = e.center.snapshot() })
	return entries
}

// Status returns a point-in-time view of engine state.
func (e *Engine) Status() Status {
	var st Status
	e.call(func() {
		st = Status{
			Visible:       e.slots.occupied(),
			Archived:      e.center.len(),
			DnD:           e.dnd,
			CenterVisible: e.centerVisible,
		}
	})
	return st
}

// record appends a journal event, logging failures without surfacing
// them: journaling is best-effort.
func (e *Engine) record(event journal.Event, n *model.Notification, actionKey string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(event, n, actionKey); err != nil {
		e.logger.Warn("failed to journal event", "event", string(event), "id", n.ID, "error", err)
	}
}

func (e *Engine) now() time.Time {
	return time.Now()
}
