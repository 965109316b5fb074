package supabase

import (
	"sync"

	"crm/internal/domain/service"
)

const subscriberBuffer = 16

// EventBroadcaster fans auth state changes out to in-process subscribers.
// The auth client publishes on every sign-in, sign-out and refresh; session
// resyncers and the SSE endpoint subscribe.
type EventBroadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan service.AuthEvent
	closed bool
}

// NewEventBroadcaster creates an empty broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{subs: make(map[uint64]chan service.AuthEvent)}
}

// Subscribe registers a listener. The unsubscribe function is idempotent and
// must be called on teardown; an abandoned subscription would otherwise make
// Publish drop events for everyone stuck behind its full buffer.
func (b *EventBroadcaster) Subscribe() (<-chan service.AuthEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan service.AuthEvent, subscriberBuffer)
	if b.closed {
		close(ch)

		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}

	return ch, unsubscribe
}

// Publish delivers the event to every live subscriber. A subscriber that has
// fallen behind its buffer misses the event rather than blocking the
// publisher; the next explicit re-sync reconciles it anyway.
func (b *EventBroadcaster) Publish(event service.AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Close tears down all subscriptions. Subsequent Subscribe calls return a
// closed channel.
func (b *EventBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub)
	}
}
