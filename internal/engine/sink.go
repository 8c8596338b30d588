package engine

import (
	"log/slog"

	"github.com/xnotid/xnotid/internal/model"
)

// asyncSink decouples signal emission from the engine loop. Events are
// queued and relayed in order on a dedicated goroutine, so a slow bus
// write cannot stall notification processing. A full queue drops the
// event instead of blocking.
type asyncSink struct {
	inner  Sink
	logger *slog.Logger
	queue  chan func()
}

// NewAsyncSink wraps inner so its methods run on a relay goroutine,
// satisfying the Sink contract for implementations that may block. The
// relay lives for the process lifetime.
func NewAsyncSink(inner Sink, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &asyncSink{
		inner:  inner,
		logger: logger,
		queue:  make(chan func(), 256),
	}
	go s.relay()
	return s
}

func (s *asyncSink) relay() {
	for fn := range s.queue {
		fn()
	}
}

func (s *asyncSink) enqueue(kind string, fn func()) {
	select {
	case s.queue <- fn:
	default:
		s.logger.Warn("signal queue full, dropping event", "kind", kind)
	}
}

func (s *asyncSink) NotificationClosed(id uint32, reason model.CloseReason) {
	s.enqueue("closed", func() { s.inner.NotificationClosed(id, reason) })
}

func (s *asyncSink) ActionInvoked(id uint32, actionKey string) {
	s.enqueue("action", func() { s.inner.ActionInvoked(id, actionKey) })
}
