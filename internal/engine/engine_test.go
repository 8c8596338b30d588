package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnotid/xnotid/internal/card"
	"github.com/xnotid/xnotid/internal/config"
	"github.com/xnotid/xnotid/internal/model"
)

type closedEvent struct {
	ID     uint32
	Reason model.CloseReason
}

type actionEvent struct {
	ID  uint32
	Key string
}

// recorderSink captures emitted signals in order.
type recorderSink struct {
	mu      sync.Mutex
	closed  []closedEvent
	actions []actionEvent
	order   []string
}

func (s *recorderSink) NotificationClosed(id uint32, reason model.CloseReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, closedEvent{ID: id, Reason: reason})
	s.order = append(s.order, fmt.Sprintf("closed:%d:%d", id, reason))
}

func (s *recorderSink) ActionInvoked(id uint32, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, actionEvent{ID: id, Key: key})
	s.order = append(s.order, fmt.Sprintf("action:%d:%s", id, key))
}

func (s *recorderSink) closedEvents() []closedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]closedEvent, len(s.closed))
	copy(out, s.closed)
	return out
}

func (s *recorderSink) actionEvents() []actionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]actionEvent, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *recorderSink) signalOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// recorderRenderer tracks slot contents.
type recorderRenderer struct {
	mu     sync.Mutex
	slots  map[int]model.Notification
	center []model.CenterEntry
	shown  int
}

func newRecorderRenderer() *recorderRenderer {
	return &recorderRenderer{slots: make(map[int]model.Notification)}
}

func (r *recorderRenderer) ShowPopup(n model.Notification, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slot] = n
	r.shown++
}

func (r *recorderRenderer) UpdatePopup(n model.Notification, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slot] = n
}

func (r *recorderRenderer) RemovePopup(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, slot)
}

func (r *recorderRenderer) ShowCenter(entries []model.CenterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.center = entries
}

func (r *recorderRenderer) HideCenter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.center = nil
}

func (r *recorderRenderer) Capabilities() []string { return nil }

func (r *recorderRenderer) slotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *recorderRenderer) slotNotification(slot int) (model.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.slots[slot]
	return n, ok
}

func newTestEngine(t *testing.T, mutate func(*config.Config)) (*Engine, *recorderRenderer, *recorderSink) {
	t.Helper()

	cfg := config.Default()
	cfg.Display.MaxVisible = 3
	if mutate != nil {
		mutate(cfg)
	}

	renderer := newRecorderRenderer()
	sink := &recorderSink{}

	eng := New(cfg, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	eng.SetSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(cancel)

	return eng, renderer, sink
}

func plainRequest(summary string) Request {
	return Request{
		AppName: "test-app",
		Summary: summary,
		Body:    "body of " + summary,
		Urgency: model.UrgencyNormal,
	}
}

func TestNotifyAssignsIncreasingIDs(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)

	id1 := eng.Notify(plainRequest("first"))
	id2 := eng.Notify(plainRequest("second"))

	assert.NotZero(t, id1)
	assert.Greater(t, id2, id1)
}

func TestVisibleBoundedByMaxVisible(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 2
	})

	for i := 0; i < 5; i++ {
		eng.Notify(plainRequest(fmt.Sprintf("n%d", i)))
	}

	st := eng.Status()
	assert.Equal(t, 2, st.Visible)
	assert.Equal(t, 3, st.Archived)
	assert.Equal(t, 2, renderer.slotCount())
}

func TestPromotionIsFIFOIgnoringUrgency(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	visible := eng.Notify(plainRequest("visible"))

	lowReq := plainRequest("waiting-low")
	lowReq.Urgency = model.UrgencyLow
	waitingLow := eng.Notify(lowReq)

	critReq := plainRequest("waiting-critical")
	critReq.Urgency = model.UrgencyCritical
	eng.Notify(critReq)

	eng.Close(visible, model.CloseReasonDismissed)

	// The low-urgency record arrived first and must be promoted first.
	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, waitingLow, n.ID)
	assert.Equal(t, "waiting-low", n.Summary)
}

func TestReplaceKeepsIDAndSlot(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	id := eng.Notify(plainRequest("original"))
	before, ok := renderer.slotNotification(0)
	require.True(t, ok)

	req := plainRequest("updated")
	req.ReplacesID = id
	got := eng.Notify(req)

	assert.Equal(t, id, got)

	after, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, "updated", after.Summary)
	assert.Equal(t, before.UID, after.UID)
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestReplaceDeadIDCreatesNew(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)

	req := plainRequest("fresh")
	req.ReplacesID = 9999
	id := eng.Notify(req)

	assert.NotZero(t, id)
	assert.NotEqual(t, uint32(9999), id)
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestCloseUnknownIDIsSilent(t *testing.T) {
	eng, _, sink := newTestEngine(t, nil)

	eng.Close(42, model.CloseReasonClosed)

	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 0, eng.Status().Visible)
}

func TestCloseEmitsReason(t *testing.T) {
	eng, _, sink := newTestEngine(t, nil)

	id := eng.Notify(plainRequest("closable"))
	eng.Close(id, model.CloseReasonClosed)

	events := sink.closedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, model.CloseReasonClosed, events[0].Reason)
	assert.Equal(t, 0, eng.Status().Visible)
}

func TestExplicitTimeoutExpires(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		// Configured default is long so only the explicit value can fire.
		cfg.Timeouts.Critical = config.Duration(time.Hour)
	})

	req := plainRequest("short-lived")
	req.Urgency = model.UrgencyCritical
	req.ExpireTimeout = 30
	id := eng.Notify(req)

	assert.Eventually(t, func() bool {
		events := sink.closedEvents()
		return len(events) == 1 &&
			events[0].ID == id &&
			events[0].Reason == model.CloseReasonExpired
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNegativeTimeoutNeverExpires(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Timeouts.Normal = config.Duration(20 * time.Millisecond)
	})

	req := plainRequest("sticky")
	req.ExpireTimeout = -1
	eng.Notify(req)

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestZeroTimeoutUsesConfiguredDefault(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Timeouts.Normal = config.Duration(30 * time.Millisecond)
	})

	id := eng.Notify(plainRequest("defaulted"))

	assert.Eventually(t, func() bool {
		events := sink.closedEvents()
		return len(events) == 1 &&
			events[0].ID == id &&
			events[0].Reason == model.CloseReasonExpired
	}, 2*time.Second, 10*time.Millisecond)
}

func TestZeroConfiguredTimeoutMeansNever(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Timeouts.Critical = 0
	})

	req := plainRequest("pinned")
	req.Urgency = model.UrgencyCritical
	eng.Notify(req)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestReplaceResetsTimer(t *testing.T) {
	eng, _, sink := newTestEngine(t, nil)

	req := plainRequest("ticking")
	req.ExpireTimeout = 40
	id := eng.Notify(req)

	time.Sleep(25 * time.Millisecond)

	replace := plainRequest("rewound")
	replace.ReplacesID = id
	replace.ExpireTimeout = 200
	eng.Notify(replace)

	// The original timer would have fired by now; the replacement must
	// still be visible.
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestPromotionAfterCloseSignalsInOrder(t *testing.T) {
	eng, renderer, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	first := eng.Notify(plainRequest("first"))
	second := eng.Notify(plainRequest("second"))
	assert.Equal(t, 1, eng.Status().Archived)

	eng.Close(first, model.CloseReasonClosed)

	events := sink.closedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, first, events[0].ID)
	assert.Equal(t, model.CloseReasonClosed, events[0].Reason)

	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, second, n.ID)
	assert.Equal(t, 0, eng.Status().Archived)
}

func TestMalformedCardFallsBackToPlain(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	req := plainRequest("bad-card")
	req.Body = `{"xnotid_card":"v1","type":"multiple_choice","question":"q","choices":[]}`
	id := eng.Notify(req)

	require.NotZero(t, id)
	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Nil(t, n.Card)
	assert.Equal(t, req.Body, n.Body)
}

func TestCardNotificationRequiresAcknowledge(t *testing.T) {
	eng, renderer, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Timeouts.Normal = config.Duration(30 * time.Millisecond)
	})

	permission := &card.Card{Type: card.TypePermission, Question: "Share location?"}
	body, err := permission.EncodeBody()
	require.NoError(t, err)

	req := plainRequest("permission")
	req.Body = body
	eng.Notify(req)

	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	require.NotNil(t, n.Card)
	assert.True(t, n.AcknowledgeToDismiss)

	// Acknowledge-to-dismiss records ignore the timeout.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestPermissionAllowInvokesThenDismisses(t *testing.T) {
	eng, _, sink := newTestEngine(t, nil)

	permission := &card.Card{Type: card.TypePermission, Question: "Allow camera?"}
	body, err := permission.EncodeBody()
	require.NoError(t, err)

	req := plainRequest("permission")
	req.Body = body
	id := eng.Notify(req)

	eng.RecordAction(id, "allow")

	actions := sink.actionEvents()
	require.Len(t, actions, 1)
	assert.Equal(t, "allow", actions[0].Key)

	closed := sink.closedEvents()
	require.Len(t, closed, 1)
	assert.Equal(t, model.CloseReasonDismissed, closed[0].Reason)

	order := sink.signalOrder()
	require.Len(t, order, 2)
	assert.Equal(t, fmt.Sprintf("action:%d:allow", id), order[0])
	assert.Equal(t, fmt.Sprintf("closed:%d:%d", id, model.CloseReasonDismissed), order[1])
}

func TestActionOnPlainNotificationDoesNotDismiss(t *testing.T) {
	eng, _, sink := newTestEngine(t, nil)

	req := plainRequest("actionable")
	req.Actions = []model.Action{{Key: "open", Label: "Open"}}
	id := eng.Notify(req)

	eng.RecordAction(id, "open")

	require.Len(t, sink.actionEvents(), 1)
	assert.Empty(t, sink.closedEvents())
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestTransientOverflowIsDropped(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.Notify(plainRequest("occupier"))

	req := plainRequest("fleeting")
	req.Transient = true
	id := eng.Notify(req)

	events := sink.closedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, model.CloseReasonExpired, events[0].Reason)
	assert.Equal(t, 0, eng.Status().Archived)
}

func TestDnDDefersToCenter(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	assert.True(t, eng.ToggleDnD())

	eng.Notify(plainRequest("quiet"))

	st := eng.Status()
	assert.Equal(t, 0, st.Visible)
	assert.Equal(t, 1, st.Archived)
	assert.Equal(t, 0, renderer.slotCount())
}

func TestDnDCriticalBypass(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	eng.ToggleDnD()

	req := plainRequest("urgent")
	req.Urgency = model.UrgencyCritical
	eng.Notify(req)

	assert.Equal(t, 1, eng.Status().Visible)
	assert.Equal(t, 1, renderer.slotCount())
}

func TestDnDOffPromotesDeferred(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)

	eng.ToggleDnD()
	eng.Notify(plainRequest("a"))
	eng.Notify(plainRequest("b"))
	require.Equal(t, 2, eng.Status().Archived)

	assert.False(t, eng.ToggleDnD())

	st := eng.Status()
	assert.Equal(t, 2, st.Visible)
	assert.Equal(t, 0, st.Archived)
}

func TestAcknowledgeRemovesSilently(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.Notify(plainRequest("visible"))
	archived := eng.Notify(plainRequest("waiting"))
	require.Equal(t, 1, eng.Status().Archived)

	eng.Acknowledge(archived)

	assert.Equal(t, 0, eng.Status().Archived)
	assert.Empty(t, sink.closedEvents())
}

func TestAcknowledgeVisibleIsNoOp(t *testing.T) {
	eng, _, _ := newTestEngine(t, nil)

	id := eng.Notify(plainRequest("shown"))
	eng.Acknowledge(id)

	assert.Equal(t, 1, eng.Status().Visible)
}

func TestClearCenterIsSilent(t *testing.T) {
	eng, _, sink := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	visible := eng.Notify(plainRequest("visible"))
	eng.Notify(plainRequest("w1"))
	eng.Notify(plainRequest("w2"))
	require.Equal(t, 2, eng.Status().Archived)

	eng.ClearCenter()

	assert.Equal(t, 0, eng.Status().Archived)
	assert.Empty(t, sink.closedEvents())

	// Cleared records are gone: closing the old visible one must not
	// promote anything.
	eng.Close(visible, model.CloseReasonDismissed)
	assert.Equal(t, 0, eng.Status().Visible)
}

func TestToggleCenterRendersEntries(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.Notify(plainRequest("visible"))
	eng.Notify(plainRequest("waiting"))

	assert.True(t, eng.ToggleCenter())

	renderer.mu.Lock()
	center := renderer.center
	renderer.mu.Unlock()
	require.Len(t, center, 1)
	assert.Equal(t, "waiting", center[0].Summary)

	assert.False(t, eng.ToggleCenter())
}

func TestCenterEntriesSnapshot(t *testing.T) {
	eng, _, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.Notify(plainRequest("visible"))
	eng.Notify(plainRequest("first-wait"))
	eng.Notify(plainRequest("second-wait"))

	entries := eng.CenterEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first-wait", entries[0].Summary)
	assert.Equal(t, "second-wait", entries[1].Summary)
}

func TestSlotReuseIsLowestFree(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	a := eng.Notify(plainRequest("a"))
	eng.Notify(plainRequest("b"))
	eng.Notify(plainRequest("c"))

	eng.Close(a, model.CloseReasonDismissed)
	d := eng.Notify(plainRequest("d"))

	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, d, n.ID)
}

func TestDnDBlocksPromotionOnSlotFree(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.ToggleDnD()

	critReq := plainRequest("urgent")
	critReq.Urgency = model.UrgencyCritical
	crit := eng.Notify(critReq)
	require.Equal(t, 1, eng.Status().Visible)

	eng.Notify(plainRequest("deferred"))
	require.Equal(t, 1, eng.Status().Archived)

	eng.Close(crit, model.CloseReasonDismissed)

	// The freed slot stays empty: Do Not Disturb still holds the
	// deferred record back.
	st := eng.Status()
	assert.Equal(t, 0, st.Visible)
	assert.Equal(t, 1, st.Archived)
	assert.Equal(t, 0, renderer.slotCount())

	// Leaving DnD releases it.
	eng.ToggleDnD()
	assert.Equal(t, 1, eng.Status().Visible)
}

func TestDnDPromotionSkipsToCritical(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.ToggleDnD()

	firstReq := plainRequest("first-critical")
	firstReq.Urgency = model.UrgencyCritical
	first := eng.Notify(firstReq)

	eng.Notify(plainRequest("deferred-normal"))

	waitingReq := plainRequest("waiting-critical")
	waitingReq.Urgency = model.UrgencyCritical
	waiting := eng.Notify(waitingReq)
	require.Equal(t, 2, eng.Status().Archived)

	eng.Close(first, model.CloseReasonDismissed)

	// The bypass-eligible critical is promoted past the deferred
	// normal record.
	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, waiting, n.ID)
	assert.Equal(t, 1, eng.Status().Archived)
}

func TestGroupedEntriesCarryMembership(t *testing.T) {
	eng, _, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	grouped := func(summary string) Request {
		req := plainRequest(summary)
		req.Group = "chat"
		return req
	}

	a := eng.Notify(grouped("chat-1"))
	eng.Notify(grouped("chat-2"))
	eng.Notify(grouped("chat-3"))

	entries := eng.CenterEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "chat", entries[0].Group)
	assert.Equal(t, 2, entries[0].GroupSize)
	assert.Equal(t, "chat", entries[1].Group)
	assert.Equal(t, 3, entries[1].GroupSize)

	// Closing a member shrinks the group for later archives.
	eng.Close(a, model.CloseReasonDismissed)
	eng.Notify(grouped("chat-4"))

	entries = eng.CenterEntries()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "chat-4", last.Summary)
	assert.Equal(t, 3, last.GroupSize)
}

func TestUngroupedEntriesHaveNoGroup(t *testing.T) {
	eng, _, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Display.MaxVisible = 1
	})

	eng.Notify(plainRequest("visible"))
	eng.Notify(plainRequest("waiting"))

	entries := eng.CenterEntries()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Group)
	assert.Zero(t, entries[0].GroupSize)
}

func TestHintFieldsReachRenderer(t *testing.T) {
	eng, renderer, _ := newTestEngine(t, nil)

	req := plainRequest("rich")
	req.Category = "email.arrived"
	req.Group = "inbox"
	req.Image = model.Image{Kind: model.ImagePath, Path: "/tmp/avatar.png"}
	eng.Notify(req)

	n, ok := renderer.slotNotification(0)
	require.True(t, ok)
	assert.Equal(t, "email.arrived", n.Category)
	assert.Equal(t, "inbox", n.Group)
	assert.Equal(t, model.ImagePath, n.Image.Kind)
	assert.Equal(t, "/tmp/avatar.png", n.Image.Path)
}
