// Package pubsub provides typed publish/subscribe brokers used to fan out
// session and turn changes to the interface and to persistence.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event.
type EventType string

// Standard event types.
const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventProgress  EventType = "progress"
)

// Event is a typed event with metadata.
type Event[T any] struct { //nolint:govet // fieldalignment: preserving logical field order
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Publisher is the publishing half of a broker.
type Publisher[T any] interface {
	Publish(EventType, T)
	PublishAsync(EventType, T)
}

// Subscriber is the subscribing half of a broker.
type Subscriber[T any] interface {
	Subscribe(context.Context, ...SubscribeOption) <-chan Event[T]
}

// PubSub combines Publisher and Subscriber.
type PubSub[T any] interface {
	Publisher[T]
	Subscriber[T]
}
