// Package events is a small in-process publish/subscribe bus. Publishers name
// an event; subscribers register by that name.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Scoped events belong to one audience, such as a single desk session.
// Fan-out layers use Scope to pick recipients.
type Scoped interface {
	Event
	Scope() string
}

// BaseEvent carries the timestamp every event needs. Embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events by name.
type Bus interface {
	// Publish hands the event to every subscriber and returns immediately.
	Publish(ctx context.Context, event Event)
	// PublishSync runs the subscribers in order and returns the first error.
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers handler under eventName. Calling the returned
	// func removes it.
	Subscribe(eventName string, handler Handler) (unsubscribe func())
}
