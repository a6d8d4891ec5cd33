package stream

import (
	"sync"
)

// DefaultCapacity is the retained window size used when a Buffer is created
// without an explicit capacity.
const DefaultCapacity = 100

// Buffer retains the most recent events in arrival order, newest first.
// Appends beyond capacity silently drop the oldest entry. Both the live
// connection and external injectors write through the same Append; the
// buffer does not distinguish origins.
type Buffer struct {
	mu       sync.Mutex
	ring     []Event
	head     int // index of the newest entry
	size     int
	capacity int
	onMutate func()
}

// NewBuffer creates a buffer holding at most capacity events. A capacity
// of zero or less falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		ring:     make([]Event, capacity),
		head:     -1,
		capacity: capacity,
	}
}

// OnMutate registers a callback invoked after every Append and Clear, with
// the buffer lock released. Used to drive statistics recomputation. Only one
// callback is supported; later registrations replace earlier ones.
func (b *Buffer) OnMutate(fn func()) {
	b.mu.Lock()
	b.onMutate = fn
	b.mu.Unlock()
}

// Append inserts an event as the newest entry, evicting the oldest when the
// buffer is full.
func (b *Buffer) Append(ev Event) {
	b.mu.Lock()
	b.head = (b.head + 1) % b.capacity
	b.ring[b.head] = ev
	if b.size < b.capacity {
		b.size++
	}
	fn := b.onMutate
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Clear resets the buffer to empty.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.head = -1
	b.size = 0
	clear(b.ring)
	fn := b.onMutate
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Len returns the number of retained events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Capacity returns the fixed retention window size.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Snapshot returns the retained events newest first. The returned slice is
// a copy; callers may hold it across further mutations.
func (b *Buffer) Snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, b.size)
	for i := 0; i < b.size; i++ {
		idx := b.head - i
		if idx < 0 {
			idx += b.capacity
		}
		out[i] = b.ring[idx]
	}
	return out
}
