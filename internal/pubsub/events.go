// Package pubsub provides a generic publish/subscribe broker for
// broadcasting typed events to multiple subscribers.
package pubsub

import "context"

// EventType identifies the kind of event.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is a typed event with a payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber is implemented by types that can be subscribed to.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher is implemented by types that publish events.
type Publisher[T any] interface {
	Publish(EventType, T)
}
