package pubsub

import (
	"context"
	"log/slog"
	"sync"
)

const bufferSize = 64

// Broker fans events out to all current subscribers. Publishing never
// blocks; events for subscribers with full buffers are dropped.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[chan Event[T]]struct{}
	done     chan struct{}
	shutdown sync.Once
}

// NewBroker creates a broker ready for use.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe returns a channel of events. The subscription is removed
// and the channel closed when ctx is done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], bufferSize)

	select {
	case <-b.done:
		close(ch)
		return ch
	default:
	}

	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()

	return ch
}

// Publish sends the event to every subscriber without blocking.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for ch := range b.subs {
		select {
		case ch <- Event[T]{Type: t, Payload: payload}:
		default:
			slog.Warn("Dropped event for slow subscriber", "event", t)
		}
	}
}

// Shutdown closes all subscriptions. The broker cannot be reused.
func (b *Broker[T]) Shutdown() {
	b.shutdown.Do(func() {
		close(b.done)
		b.mu.Lock()
		defer b.mu.Unlock()
		for ch := range b.subs {
			delete(b.subs, ch)
			close(ch)
		}
	})
}

// SubscriberCount reports the number of active subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
