package stream

import (
	"sync"
	"time"
)

// Tracker keeps the rolling statistics current by recomputing them on every
// buffer mutation. It is the only holder of derived stats; nothing else
// caches them.
type Tracker struct {
	buffer *Buffer
	now    func() time.Time

	mu     sync.Mutex
	latest Stats
}

// NewTracker attaches a tracker to the buffer's mutation hook. The now
// function defaults to time.Now and exists for tests.
func NewTracker(buffer *Buffer, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{buffer: buffer, now: now}
	buffer.OnMutate(t.refresh)
	return t
}

func (t *Tracker) refresh() {
	stats := ComputeStats(t.buffer.Snapshot(), t.now())
	t.mu.Lock()
	t.latest = stats
	t.mu.Unlock()
}

// Current returns the stats as of the last buffer mutation.
func (t *Tracker) Current() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}
