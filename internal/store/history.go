package store

// ring is a fixed-capacity circular buffer of close records. Pushing beyond
// capacity evicts the oldest entry in O(1).
type ring struct {
	entries []HistoryEntry
	head    int
	count   int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{entries: make([]HistoryEntry, capacity)}
}

// push appends e, returning the oldest entry when it had to be evicted to
// make room.
func (r *ring) push(e HistoryEntry) (HistoryEntry, bool) {
	idx := (r.head + r.count) % len(r.entries)
	if r.count < len(r.entries) {
		r.entries[idx] = e
		r.count++
		return HistoryEntry{}, false
	}
	evicted := r.entries[idx]
	r.entries[idx] = e
	r.head = (r.head + 1) % len(r.entries)
	return evicted, true
}

func (r *ring) last() *HistoryEntry {
	if r.count == 0 {
		return nil
	}
	idx := (r.head + r.count - 1) % len(r.entries)
	return &r.entries[idx]
}

func (r *ring) snapshot() []HistoryEntry {
	out := make([]HistoryEntry, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(r.head+i)%len(r.entries)])
	}
	return out
}

// resize returns a ring with the new capacity holding the newest entries
// that still fit, oldest first.
func (r *ring) resize(capacity int) *ring {
	nr := newRing(capacity)
	entries := r.snapshot()
	if len(entries) > len(nr.entries) {
		entries = entries[len(entries)-len(nr.entries):]
	}
	for _, e := range entries {
		nr.push(e)
	}
	return nr
}
