// Package store owns the active notification table and the bounded history
// ring. It is the single mutation point for lifecycle transitions and is only
// ever driven by the daemon event loop; methods are not safe for concurrent
// use.
package store

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
)

// HistoryEntry is a frozen snapshot of a notification at close time.
type HistoryEntry struct {
	Notification *notification.Notification
	Reason       notification.CloseReason
	ClosedAt     time.Time
}

// AdmitResult reports the outcome of an admission. The event loop translates
// it into timer arming, signals and a render refresh.
type AdmitResult struct {
	Notification *notification.Notification

	// Replaced is the superseded instance when the admission reused a live
	// id; it has already been moved to history with reason "replaced".
	Replaced *notification.Notification

	// Timeout is the effective expiry duration; zero means never expire.
	Timeout time.Duration
}

// Store is the authoritative in-memory notification table.
type Store struct {
	cfg     *config.Config
	active  map[uint32]*notification.Notification
	order   []uint32 // admission order; replacement keeps its position
	history *ring
	nextID  uint32
	log     zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Store {
	return &Store{
		cfg:     cfg,
		active:  make(map[uint32]*notification.Notification),
		history: newRing(cfg.HistorySize),
		log:     log,
	}
}

// SetConfig swaps the policy table, resizing the history ring if its
// configured capacity changed.
func (s *Store) SetConfig(cfg *config.Config) {
	if s.cfg.HistorySize != cfg.HistorySize {
		s.history = s.history.resize(cfg.HistorySize)
	}
	s.cfg = cfg
}

// Admit inserts n into the active table. An id of zero allocates a fresh
// monotonic id; a nonzero id referencing a live notification replaces it in
// place, atomically superseding the old instance. The caller observes no
// intermediate state: by the time Admit returns, the old instance is in
// history and the new one is active under the same id.
func (s *Store) Admit(n *notification.Notification) AdmitResult {
	var replaced *notification.Notification
	switch {
	case n.ID == 0:
		s.nextID++
		n.ID = s.nextID
		s.order = append(s.order, n.ID)
	default:
		if old, ok := s.active[n.ID]; ok {
			replaced = old
			s.record(HistoryEntry{
				Notification: old,
				Reason:       notification.ReasonReplaced,
				ClosedAt:     time.Now(),
			})
		} else {
			// replaces_id referencing a dead id: honor the requested id and
			// keep the allocator ahead of it.
			s.order = append(s.order, n.ID)
		}
		if n.ID > s.nextID {
			s.nextID = n.ID
		}
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	s.active[n.ID] = n
	s.log.Debug().
		Uint32("id", n.ID).
		Bool("replaced", replaced != nil).
		Int("active", len(s.active)).
		Msg("admitted")
	return AdmitResult{
		Notification: n,
		Replaced:     replaced,
		Timeout:      s.effectiveTimeout(n),
	}
}

// record pushes a close record, logging when the ring drops its oldest entry.
func (s *Store) record(e HistoryEntry) {
	if evicted, ok := s.history.push(e); ok {
		s.log.Debug().Uint32("id", evicted.Notification.ID).Msg("history full, oldest entry evicted")
	}
}

// effectiveTimeout resolves the expiry duration from the requested timeout
// and the urgency policy. An explicit client timeout always wins; the
// auto-clear estimate only applies when the client deferred to the server
// default.
func (s *Store) effectiveTimeout(n *notification.Notification) time.Duration {
	switch {
	case n.RequestedTimeout > 0:
		return time.Duration(n.RequestedTimeout) * time.Millisecond
	case n.RequestedTimeout == 0:
		return 0
	}
	pol := s.cfg.Policy(n.Urgency)
	if pol.AutoClear {
		est := notification.EstimateReadTime(n.Summary + " " + n.Body)
		if pol.Timeout > 0 && est > pol.Timeout {
			est = pol.Timeout
		}
		return est
	}
	return pol.Timeout
}

// Close removes id from the active table and records it in history. Closing
// an unknown or already closed id is a no-op returning nil.
func (s *Store) Close(id uint32, reason notification.CloseReason) *HistoryEntry {
	n, ok := s.active[id]
	if !ok {
		return nil
	}
	delete(s.active, id)
	s.removeFromOrder(id)
	e := HistoryEntry{Notification: n, Reason: reason, ClosedAt: time.Now()}
	s.record(e)
	s.log.Debug().
		Uint32("id", id).
		Stringer("reason", reason).
		Int("active", len(s.active)).
		Msg("closed")
	return &e
}

// CloseAll closes every active notification in ascending id order.
func (s *Store) CloseAll(reason notification.CloseReason) []*HistoryEntry {
	ids := make([]uint32, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entries := make([]*HistoryEntry, 0, len(ids))
	for _, id := range ids {
		if e := s.Close(id, reason); e != nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Latest returns the most recently admitted still-active notification, or
// nil when nothing is active.
func (s *Store) Latest() *notification.Notification {
	if len(s.order) == 0 {
		return nil
	}
	return s.active[s.order[len(s.order)-1]]
}

// Get returns the active notification with the given id, or nil.
func (s *Store) Get(id uint32) *notification.Notification {
	return s.active[id]
}

// Active returns the active notifications in admission order.
func (s *Store) Active() []*notification.Notification {
	out := make([]*notification.Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.active[id])
	}
	return out
}

// Len returns the number of active notifications.
func (s *Store) Len() int { return len(s.active) }

// UnreadCount returns the number of active notifications that have not been
// shown yet.
func (s *Store) UnreadCount() int {
	unread := 0
	for _, n := range s.active {
		if !n.Read {
			unread++
		}
	}
	return unread
}

// MarkRead flags an active notification as shown.
func (s *Store) MarkRead(id uint32) {
	if n, ok := s.active[id]; ok {
		n.Read = true
	}
}

// LastHistory returns the most recently closed notification, or nil.
func (s *Store) LastHistory() *HistoryEntry {
	return s.history.last()
}

// History returns the retained close records, oldest first.
func (s *Store) History() []HistoryEntry {
	return s.history.snapshot()
}

func (s *Store) removeFromOrder(id uint32) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
