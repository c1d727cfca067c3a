package events

import (
	"context"
	"sync"

	"inquiry_desk/platform/logger"
)

type subscription struct {
	id      uint64
	handler Handler
}

// InMemoryBus dispatches events to handlers in the same process.
type InMemoryBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
	log    *logger.Logger
	wg     sync.WaitGroup
}

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		subs: make(map[string][]subscription),
		log:  log,
	}
}

// Subscribe implements Bus.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[eventName] = append(b.subs[eventName], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[eventName]
		for i, s := range current {
			if s.id == id {
				b.subs[eventName] = append(current[:i:i], current[i+1:]...)
				break
			}
		}
		if len(b.subs[eventName]) == 0 {
			delete(b.subs, eventName)
		}
	}
}

// Publish implements Bus. Handler errors are logged.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.handlers(event.EventName())
	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}(h)
	}
}

// PublishSync implements Bus.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var firstErr error
	for _, h := range b.handlers(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until every asynchronously published event has been handled.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) handlers(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[name]
	out := make([]Handler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

var _ Bus = (*InMemoryBus)(nil)
