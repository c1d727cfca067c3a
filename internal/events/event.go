// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"inquiry_desk/platform/events"
	"inquiry_desk/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	Scoped      = events.Scoped
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Inquiry Domain Events
// =============================================================================

// InquiriesMutated is published after a mutation settles with at least one
// successful item. Failed lists ids whose individual call was rejected.
type InquiriesMutated struct {
	BaseEvent
	SessionID string  `json:"sessionId"`
	Operation string  `json:"operation"`
	IDs       []int64 `json:"ids"`
	Failed    []int64 `json:"failed,omitempty"`
}

func (e InquiriesMutated) EventName() string { return "inquiries.mutated" }
func (e InquiriesMutated) Scope() string { return e.SessionID }

// CacheInvalidated is published when query cache entries are marked stale.
type CacheInvalidated struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	Param     string `json:"param,omitempty"`
}

func (e CacheInvalidated) EventName() string { return "cache.invalidated" }
func (e CacheInvalidated) Scope() string { return e.SessionID }

// NoticeRaised is published when a controller queues a user-visible notice.
type NoticeRaised struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

func (e NoticeRaised) EventName() string { return "session.notice" }
func (e NoticeRaised) Scope() string { return e.SessionID }
