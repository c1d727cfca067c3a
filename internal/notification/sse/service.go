// Package sse provides Server-Sent Events support for real-time notifications.
package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"inquiry_desk/internal/events"
	"inquiry_desk/platform/logger"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventInquiriesMutated EventType = "inquiries_mutated"
	EventCacheInvalidated EventType = "cache_invalidated"
	EventNotice           EventType = "notice"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	sessionID string
	events    chan Event
}

// Service fans bus events out to the SSE connections of the session they
// belong to.
type Service struct {
	mu        sync.RWMutex
	clients   map[string][]*client // sessionID -> clients
	heartbeat time.Duration
	log       *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients:   make(map[string][]*client),
		heartbeat: 25 * time.Second,
		log:       log,
	}
}

// Subscribe forwards session-scoped bus events to connected clients. The
// returned function removes the subscriptions.
func (s *Service) Subscribe(bus events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(events.InquiriesMutated{}.EventName(), events.HandlerFunc(s.handle)),
		bus.Subscribe(events.CacheInvalidated{}.EventName(), events.HandlerFunc(s.handle)),
		bus.Subscribe(events.NoticeRaised{}.EventName(), events.HandlerFunc(s.handle)),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *Service) handle(_ context.Context, e events.Event) error {
	scoped, ok := e.(events.Scoped)
	if !ok || scoped.Scope() == "" {
		return nil
	}
	switch ev := e.(type) {
	case events.InquiriesMutated:
		s.Publish(scoped.Scope(), Event{Type: EventInquiriesMutated, Data: ev})
	case events.CacheInvalidated:
		s.Publish(scoped.Scope(), Event{Type: EventCacheInvalidated, Data: ev})
	case events.NoticeRaised:
		s.Publish(scoped.Scope(), Event{Type: EventNotice, Message: ev.Message, Data: ev})
	}
	return nil
}

// addClient registers a new client connection
func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.sessionID] = append(s.clients[c.sessionID], c)
}

// removeClient unregisters a client connection
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.sessionID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.sessionID] = append(clients[:i:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.sessionID]) == 0 {
		delete(s.clients, c.sessionID)
	}
}

// Publish sends an event to every connection of a session. A client whose
// buffer is full misses the event.
func (s *Service) Publish(sessionID string, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[sessionID] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full", "session_id", sessionID, "event", event.Type)
		}
	}
}

// Clients reports the number of open connections for a session.
func (s *Service) Clients(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[sessionID])
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getSessionID func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := getSessionID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{sessionID: sessionID, events: make(chan Event, 32)}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"sessionId": sessionID})
		c.Writer.Flush()
		s.log.Debug("sse client connected", "session_id", sessionID)

		heartbeat := time.NewTicker(s.heartbeat)
		defer heartbeat.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Debug("sse client disconnected", "session_id", sessionID)
				return
			case <-heartbeat.C:
				c.SSEvent("ping", "")
				c.Writer.Flush()
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					s.log.Error("sse marshal failed", "error", err)
					continue
				}
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[string][]*client)
}
