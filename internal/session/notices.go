package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"inquiry_desk/internal/events"
)

const maxNotices = 50

// Notice is one toast message.
type Notice struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notices queues toasts for a session until the browser drains them, and
// announces each one on the bus for live streams. The oldest notice is
// dropped once the queue is full.
type Notices struct {
	sessionID string
	bus       events.Bus
	now       func() time.Time

	mu    sync.Mutex
	queue []Notice
}

func newNotices(sessionID string, bus events.Bus, now func() time.Time) *Notices {
	return &Notices{sessionID: sessionID, bus: bus, now: now}
}

// Notify implements console.Notifier.
func (n *Notices) Notify(level, message string) {
	notice := Notice{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: n.now()}

	n.mu.Lock()
	n.queue = append(n.queue, notice)
	if len(n.queue) > maxNotices {
		n.queue = n.queue[len(n.queue)-maxNotices:]
	}
	n.mu.Unlock()

	if n.bus != nil {
		n.bus.Publish(context.Background(), events.NoticeRaised{
			BaseEvent: events.NewBaseEvent(),
			SessionID: n.sessionID,
			Level:     level,
			Message:   message,
		})
	}
}

// Drain returns and removes every queued notice.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Len reports how many notices are queued.
func (n *Notices) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}
