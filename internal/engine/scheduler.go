package engine

import (
	"time"
)

// scheduler owns the per-notification expiry timers. Its maps are only
// touched from the engine loop; timer callbacks hand off through fire,
// which posts back onto the same loop. A fire that loses the race with
// disarm or re-arm is detected by its generation number and dropped:
// disarm is advisory, the loop-side check is authoritative.
type scheduler struct {
	fire   func(id uint32, gen uint64)
	timers map[uint32]*armedTimer
	gen    uint64
}

type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

func newScheduler(fire func(id uint32, gen uint64)) *scheduler {
	return &scheduler{
		fire:   fire,
		timers: make(map[uint32]*armedTimer),
	}
}

// arm schedules a one-shot expiry for id after d. An already-armed timer
// is disarmed first: only one timer is ever outstanding per id. A
// non-positive duration arms nothing (never expires).
func (s *scheduler) arm(id uint32, d time.Duration) {
	s.disarm(id)
	if d <= 0 {
		return
	}

	s.gen++
	gen := s.gen
	s.timers[id] = &armedTimer{
		gen:   gen,
		timer: time.AfterFunc(d, func() { s.fire(id, gen) }),
	}
}

// disarm cancels any outstanding timer for id. The timer may already be
// firing; current rejects its generation when it arrives.
func (s *scheduler) disarm(id uint32) {
	if at, ok := s.timers[id]; ok {
		at.timer.Stop()
		delete(s.timers, id)
	}
}

// current reports whether gen is the live generation for id. A stale
// fire (disarmed or superseded by a re-arm) answers false.
func (s *scheduler) current(id uint32, gen uint64) bool {
	at, ok := s.timers[id]
	return ok && at.gen == gen
}

// clear drops the bookkeeping for id after its fire has been accepted.
func (s *scheduler) clear(id uint32) {
	delete(s.timers, id)
}

// stopAll cancels every outstanding timer.
func (s *scheduler) stopAll() {
	for id, at := range s.timers {
		at.timer.Stop()
		delete(s.timers, id)
	}
}
