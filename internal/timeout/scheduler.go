// Package timeout schedules notification expiry. Timers fire into a channel
// drained by the event loop; the loop claims each firing before acting on it,
// so a timer cancelled or superseded after firing can never reach the store.
package timeout

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Expiry identifies a fired timer. The generation ties it to the exact Arm
// call that created it.
type Expiry struct {
	ID  uint32
	gen uint64
}

type armed struct {
	gen   uint64
	timer *time.Timer
}

// Scheduler owns the armed timer set, keyed by notification id. Every active
// notification has at most one armed timer.
type Scheduler struct {
	mu     sync.Mutex
	gen    uint64
	timers map[uint32]*armed
	fired  chan Expiry
	log    zerolog.Logger
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[uint32]*armed),
		fired:  make(chan Expiry, 16),
		log:    log,
	}
}

// Arm schedules a one-shot expiry for id after d, superseding any previous
// timer for the same id. A zero or negative duration means the notification
// never expires and no timer is created.
func (s *Scheduler) Arm(id uint32, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
	if d <= 0 {
		return
	}
	s.gen++
	g := s.gen
	s.timers[id] = &armed{
		gen:   g,
		timer: time.AfterFunc(d, func() { s.fired <- Expiry{ID: id, gen: g} }),
	}
}

// Cancel removes a pending timer if present; no-op otherwise.
func (s *Scheduler) Cancel(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id uint32) {
	if a, ok := s.timers[id]; ok {
		a.timer.Stop()
		delete(s.timers, id)
	}
}

// Expired delivers fired timers to the event loop.
func (s *Scheduler) Expired() <-chan Expiry { return s.fired }

// Claim validates a fired expiry against the current timer state and removes
// it. It returns false when the timer was cancelled or re-armed after firing;
// such stale expiries must be dropped.
func (s *Scheduler) Claim(e Expiry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.timers[e.ID]
	if !ok || a.gen != e.gen {
		return false
	}
	delete(s.timers, e.ID)
	return true
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
}
