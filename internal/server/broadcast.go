package server

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

// Broadcaster fans events out to all connected stream clients.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []chan stream.Event
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe returns a channel that will receive published events and a
// function to unsubscribe.
func (b *Broadcaster) Subscribe() (chan stream.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan stream.Event, 10) // Buffered channel to prevent blocking
	b.subscribers = append(b.subscribers, ch)

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.subscribers {
			if sub == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, unsubscribe
}

// Publish sends an event to all subscribers.
func (b *Broadcaster) Publish(ev stream.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		// Non-blocking send to avoid blocking the publisher.
		select {
		case ch <- ev:
		default:
			slog.Warn("subscriber channel full, dropping event")
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
