// Package querycache is the keyed snapshot cache behind the inquiry desk. It
// collapses concurrent loads, serves stale data while revalidating, and makes
// sure an older response never overwrites a newer one.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"inquiry_desk/platform/logger"
)

const (
	defaultStaleAfter = 30 * time.Second
	defaultRetention  = time.Hour
	keyPrefix         = "inquiry_desk:"
)

// ErrSuperseded accompanies a value whose request was overtaken by a newer
// one for the same key. The value was not cached and should not be shown.
var ErrSuperseded = errors.New("response superseded by a newer request")

// EntryState is the per-key loading state exposed to views.
type EntryState struct {
	Loading   bool
	Stale     bool
	UpdatedAt time.Time
	Err       error
}

// Listener is told about every invalidation. param is empty when the whole
// kind was invalidated.
type Listener func(ctx context.Context, kind Kind, param string)

type entry struct {
	issued    uint64
	gen       uint64
	loading   int
	stale     bool
	updatedAt time.Time
	err       error
}

type snapshot struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
}

type flight struct {
	value      any
	superseded bool
}

// Options tunes a Cache.
type Options struct {
	// Namespace prefixes every store key, usually one per session.
	Namespace  string
	StaleAfter time.Duration
	// Retention is how long the store keeps a snapshot after its last write.
	Retention time.Duration
	Now       func() time.Time
}

// Cache tracks entry metadata in memory and keeps encoded snapshots in a Store.
type Cache struct {
	mu           sync.Mutex
	entries      map[Key]*entry
	listeners    map[uint64]Listener
	nextListener uint64

	store      Store
	ns         string
	staleAfter time.Duration
	retention  time.Duration
	now        func() time.Time
	group      singleflight.Group
	log        *logger.Logger
}

// Namespace returns the store prefix for a session.
func Namespace(sessionID string) string {
	return keyPrefix + sessionID + ":"
}

// New creates a cache over store.
func New(store Store, opts Options, log *logger.Logger) *Cache {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Namespace == "" {
		opts.Namespace = keyPrefix
	}
	return &Cache{
		entries:    make(map[Key]*entry),
		listeners:  make(map[uint64]Listener),
		store:      store,
		ns:         opts.Namespace,
		staleAfter: opts.StaleAfter,
		retention:  opts.Retention,
		now:        opts.Now,
		log:        log,
	}
}

// Get returns the cached snapshot for key when it is fresh, and otherwise
// loads it. Concurrent loads of the same key collapse into one call.
func Get[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, c, key, true); ok {
		return v, nil
	}
	return fetch(ctx, c, key, load)
}

// Refresh loads key even if a fresh snapshot exists.
func Refresh[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	return fetch(ctx, c, key, load)
}

// Peek returns the last snapshot for key whether or not it is stale.
func Peek[T any](ctx context.Context, c *Cache, key Key) (T, EntryState, bool) {
	v, ok := lookup[T](ctx, c, key, false)
	return v, c.State(key), ok
}

func lookup[T any](ctx context.Context, c *Cache, key Key, freshOnly bool) (T, bool) {
	var zero T
	if freshOnly && !c.isFresh(key) {
		return zero, false
	}
	raw, err := c.store.Get(ctx, c.storeKey(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn("snapshot read failed", "key", key.String(), "error", err)
		}
		return zero, false
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(snap.Data, &v); err != nil {
		c.log.Warn("snapshot decode failed", "key", key.String(), "error", err)
		return zero, false
	}
	return v, true
}

func fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	gen := c.generation(key)
	flightKey := key.String() + "#" + strconv.FormatUint(gen, 10)

	res, err, _ := c.group.Do(flightKey, func() (any, error) {
		seq, startGen := c.begin(key)
		v, err := load(ctx)
		if err != nil {
			c.fail(key, seq, err)
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			c.fail(key, seq, err)
			return nil, err
		}
		return flight{value: v, superseded: !c.commit(ctx, key, seq, startGen, raw)}, nil
	})
	if err != nil {
		return zero, err
	}
	f := res.(flight)
	v, _ := f.value.(T)
	if f.superseded {
		return v, ErrSuperseded
	}
	return v, nil
}

// entry must be called with c.mu held.
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry(key).gen
}

func (c *Cache) begin(key Key) (seq, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.issued++
	e.loading++
	return e.issued, e.gen
}

func (c *Cache) fail(key Key, seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.loading--
	if seq == e.issued {
		e.err = err
	}
}

// commit stores raw if seq is still the latest request for key. The store
// write happens under the lock so a superseded writer cannot land after a
// newer one. A response whose key was invalidated while it was in flight is
// kept but stays stale.
func (c *Cache) commit(ctx context.Context, key Key, seq, startGen uint64, raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	e.loading--
	if seq != e.issued {
		return false
	}

	now := c.now()
	buf, err := json.Marshal(snapshot{UpdatedAt: now, Data: raw})
	if err == nil {
		err = c.store.Set(ctx, c.storeKey(key), buf, c.retention)
	}
	if err != nil {
		c.log.Warn("snapshot write failed", "key", key.String(), "error", err)
	}

	e.updatedAt = now
	e.err = nil
	e.stale = e.gen != startGen
	return true
}

func (c *Cache) isFresh(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale || e.updatedAt.IsZero() {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.staleAfter
}

// State reports the loading state of key.
func (c *Cache) State(key Key) EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return EntryState{Stale: true}
	}
	stale := e.stale || e.updatedAt.IsZero() || c.now().Sub(e.updatedAt) >= c.staleAfter
	return EntryState{
		Loading:   e.loading > 0,
		Stale:     stale,
		UpdatedAt: e.updatedAt,
		Err:       e.err,
	}
}

// Invalidate marks every entry of kind stale, or only those whose param is
// listed. The next Get reloads them without joining a load that started
// before the invalidation. It returns the number of entries affected.
func (c *Cache) Invalidate(ctx context.Context, kind Kind, params ...string) int {
	c.mu.Lock()
	n := 0
	for key, e := range c.entries {
		if key.Kind != kind {
			continue
		}
		if len(params) > 0 && !slices.Contains(params, key.Param) {
			continue
		}
		e.stale = true
		e.gen++
		n++
	}
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	c.log.CacheInvalidated(string(kind), strings.Join(params, ","), n)

	if len(params) == 0 {
		params = []string{""}
	}
	for _, l := range listeners {
		for _, p := range params {
			l(ctx, kind, p)
		}
	}
	return n
}

// OnInvalidate registers l and returns a function that removes it.
func (c *Cache) OnInvalidate(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Purge drops every entry and deletes the namespace from the store.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
	return c.store.DeletePrefix(ctx, c.ns)
}

func (c *Cache) storeKey(key Key) string {
	return c.ns + key.String()
}
