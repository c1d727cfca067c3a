// Package session scopes the desk's state to one signed-in browser. A session
// owns the query cache namespace, the mutation coordinator, the page
// controllers and the stats poller; nothing is shared between sessions except
// the snapshot store and the event bus.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"inquiry_desk/internal/events"
	"inquiry_desk/internal/inquiries/client"
	"inquiry_desk/internal/inquiries/console"
	"inquiry_desk/internal/inquiries/mutation"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/config"
	"inquiry_desk/platform/logger"
)

// Config combines the settings a session needs.
type Config interface {
	config.APIClientConfig
	config.CacheConfig
	config.MutationConfig
	config.SessionConfig
	config.ContactConfig
}

// API is the marketplace client as seen by one session.
type API interface {
	console.Reader
	mutation.API
}

// APIFactory builds the client for an access token.
type APIFactory func(token string) API

// Session is the application context of one browser.
type Session struct {
	ID         string
	Claims     Claims
	List       *console.ListController
	Detail     *console.DetailController
	Comparison *Comparison
	Notices    *Notices

	cache       *querycache.Cache
	poller      *querycache.Poller
	unsubscribe func()

	mu       sync.Mutex
	lastSeen time.Time
}

// Cache exposes the session's query cache.
func (s *Session) Cache() *querycache.Cache { return s.cache }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager creates, looks up and ends sessions.
type Manager struct {
	cfg    Config
	store  querycache.Store
	bus    events.Bus
	newAPI APIFactory
	now    func() time.Time
	log    *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option customises a Manager.
type Option func(*Manager)

// WithAPIFactory replaces the HTTP client used per session.
func WithAPIFactory(f APIFactory) Option {
	return func(m *Manager) { m.newAPI = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager. store is shared by every session; each
// session writes under its own namespace.
func NewManager(cfg Config, store querycache.Store, bus events.Bus, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		store:    store,
		bus:      bus,
		now:      time.Now,
		log:      log,
		sessions: make(map[string]*Session),
	}
	m.newAPI = func(token string) API { return client.New(cfg, token, log) }
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session for accessToken and starts its stats poller. ctx is
// only used for the first tick; the poller outlives it.
func (m *Manager) Start(ctx context.Context, accessToken string) (*Session, error) {
	claims, verified, err := ParseClaims(accessToken, m.cfg.GetJWTVerifySecret(), m.now())
	if err != nil {
		return nil, err
	}
	if !verified {
		m.log.Warn("access token signature not verified; JWT_VERIFY_SECRET is empty", "user_id", claims.UserID)
	}

	id := uuid.NewString()
	log := m.log.WithSessionID(id)
	api := m.newAPI(accessToken)

	cache := querycache.New(m.store, querycache.Options{
		Namespace:  querycache.Namespace(id),
		StaleAfter: m.cfg.GetCacheStaleAfter(),
		Now:        m.now,
	}, log)
	notices := newNotices(id, m.bus, m.now)
	coordinator := mutation.New(api, cache, m.bus, m.cfg, id, log)

	deps := console.Deps{
		Reader:   api,
		Mutator:  coordinator,
		Cache:    cache,
		Notifier: notices,
		Region:   m.cfg.GetPhoneRegion(),
		Now:      m.now,
		Log:      log,
	}
	s := &Session{
		ID:         id,
		Claims:     claims,
		List:       console.NewListController(deps),
		Detail:     console.NewDetailController(deps),
		Comparison: &Comparison{},
		Notices:    notices,
		cache:      cache,
		lastSeen:   m.now(),
	}
	if m.bus != nil {
		s.unsubscribe = cache.OnInvalidate(func(ctx context.Context, kind querycache.Kind, param string) {
			m.bus.Publish(ctx, events.CacheInvalidated{
				BaseEvent: events.NewBaseEvent(),
				SessionID: id,
				Kind:      string(kind),
				Param:     param,
			})
		})
	}
	s.poller = querycache.NewPoller("dashboard-stats", m.cfg.GetStatsRefreshInterval(), s.List.RefreshStats, log)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.poller.Start(ctx)
	log.SessionEvent("started", id, claims.UserID)
	return s, nil
}

// Get returns a live session and marks it used. Unknown and idle-expired
// sessions are reported as unauthorized.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.Unauthorized("session not found")
	}

	now := m.now()
	if m.expired(s, now) {
		_ = m.End(ctx, id)
		return nil, apperr.Unauthorized("session expired")
	}
	s.touch(now)
	return s, nil
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	if !s.Claims.ExpiresAt.IsZero() && !now.Before(s.Claims.ExpiresAt) {
		return true
	}
	idle := m.cfg.GetSessionIdleTimeout()
	return idle > 0 && now.Sub(s.idleSince()) > idle
}

// End stops the session's poller, purges its cache namespace and forgets it.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apperr.NotFound("session not found")
	}

	s.poller.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if err := s.cache.Purge(ctx); err != nil {
		m.log.Warn("purge session cache failed", "session_id", id, "error", err)
	}
	m.log.SessionEvent("ended", id, s.Claims.UserID)
	return nil
}

// Sweep ends every idle or token-expired session and reports how many.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if m.expired(s, now) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range stale {
		if m.End(ctx, id) == nil {
			ended++
		}
	}
	return ended
}

// Janitor returns a poller that sweeps idle sessions every interval.
func (m *Manager) Janitor(interval time.Duration) *querycache.Poller {
	return querycache.NewPoller("session-janitor", interval, func(ctx context.Context) error {
		if n := m.Sweep(ctx); n > 0 {
			m.log.Info("idle sessions ended", "count", n)
		}
		return nil
	}, m.log)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.End(ctx, id)
	}
}
