// Package eventbus carries run lifecycle events between the engine and its observers.
package eventbus

import (
	"context"

	"github.com/dukex/clawtomations/pkg/events"
)

// Event is any payload declared in pkg/events.
type Event interface {
	GetType() events.EventType
}

// EventPublisher is what the engine needs. The key is the run ID.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches decoded events by type. Handlers receive a pointer to the
// concrete event, e.g. *events.RunStarted.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
