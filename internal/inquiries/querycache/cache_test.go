package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	c := New(store, Options{Namespace: Namespace("s1"), StaleAfter: 30 * time.Second, Now: clock.Now}, logger.Nop())
	return c, clock
}

func countingLoader(calls *int32, value domain.DashboardStats) func(context.Context) (domain.DashboardStats, error) {
	return func(context.Context) (domain.DashboardStats, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestGet_ServesFreshSnapshotWithoutReloading(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32

	first, err := Get(ctx, c, StatsKey(), countingLoader(&calls, domain.DashboardStats{TotalInquiries: 12}))
	require.NoError(t, err)
	second, err := Get(ctx, c, StatsKey(), countingLoader(&calls, domain.DashboardStats{TotalInquiries: 99}))
	require.NoError(t, err)

	assert.Equal(t, 12, first.TotalInquiries)
	assert.Equal(t, 12, second.TotalInquiries)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_ReloadsAfterStaleAfter(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()
	var calls int32

	_, err := Get(ctx, c, StatsKey(), countingLoader(&calls, domain.DashboardStats{TotalInquiries: 1}))
	require.NoError(t, err)
	clock.Advance(31 * time.Second)
	assert.True(t, c.State(StatsKey()).Stale)

	got, err := Get(ctx, c, StatsKey(), countingLoader(&calls, domain.DashboardStats{TotalInquiries: 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalInquiries)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInvalidate_KeepsStaleValueForPeekAndReloadsOnGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32

	_, err := Get(ctx, c, DetailKey(4), func(context.Context) (domain.Inquiry, error) {
		atomic.AddInt32(&calls, 1)
		return domain.Inquiry{ID: 4, Status: domain.StatusPending}, nil
	})
	require.NoError(t, err)

	n := c.Invalidate(ctx, KindDetail, IDParam(4))
	assert.Equal(t, 1, n)

	stale, state, ok := Peek[domain.Inquiry](ctx, c, DetailKey(4))
	require.True(t, ok)
	assert.True(t, state.Stale)
	assert.Equal(t, domain.StatusPending, stale.Status)

	fresh, err := Get(ctx, c, DetailKey(4), func(context.Context) (domain.Inquiry, error) {
		atomic.AddInt32(&calls, 1)
		return domain.Inquiry{ID: 4, Status: domain.StatusContacted}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusContacted, fresh.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.False(t, c.State(DetailKey(4)).Stale)
}

func TestInvalidate_OnlyMatchingParams(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		_, err := Get(ctx, c, DetailKey(id), func(context.Context) (domain.Inquiry, error) {
			return domain.Inquiry{ID: id}, nil
		})
		require.NoError(t, err)
	}

	c.Invalidate(ctx, KindDetail, IDParam(2))

	assert.False(t, c.State(DetailKey(1)).Stale)
	assert.True(t, c.State(DetailKey(2)).Stale)
}

func TestGet_SupersededResponseDoesNotOverwriteNewer(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := StatsKey()

	started := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		stats domain.DashboardStats
		err   error
	}
	slow := make(chan result, 1)

	go func() {
		v, err := Get(ctx, c, key, func(context.Context) (domain.DashboardStats, error) {
			close(started)
			<-release
			return domain.DashboardStats{TotalInquiries: 1}, nil
		})
		slow <- result{v, err}
	}()
	<-started

	// A mutation lands while the first request is still in flight.
	c.Invalidate(ctx, KindStats)

	newer, err := Get(ctx, c, key, func(context.Context) (domain.DashboardStats, error) {
		return domain.DashboardStats{TotalInquiries: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, newer.TotalInquiries)

	close(release)
	old := <-slow
	assert.ErrorIs(t, old.err, ErrSuperseded)

	cached, _, ok := Peek[domain.DashboardStats](ctx, c, key)
	require.True(t, ok)
	assert.Equal(t, 2, cached.TotalInquiries)
}

func TestGet_ResponseInvalidatedInFlightStaysStale(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := StatsKey()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Get(ctx, c, key, func(context.Context) (domain.DashboardStats, error) {
			close(started)
			<-release
			return domain.DashboardStats{TotalInquiries: 1}, nil
		})
		done <- err
	}()
	<-started
	c.Invalidate(ctx, KindStats)
	close(release)

	require.NoError(t, <-done)
	assert.True(t, c.State(key).Stale, "a response that predates the invalidation must not count as fresh")
}

func TestGet_CollapsesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	load := func(context.Context) (domain.DashboardStats, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return domain.DashboardStats{TotalInquiries: 5}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Get(ctx, c, StatsKey(), load)
			assert.NoError(t, err)
			assert.Equal(t, 5, v.TotalInquiries)
		}()
	}
	require.Eventually(t, func() bool { return c.State(StatsKey()).Loading }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_ErrorSurfacesWithoutRetry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32
	boom := apperr.Unavailable(apperr.GenericMessage, errors.New("connection refused"))

	_, err := Get(ctx, c, StatsKey(), func(context.Context) (domain.DashboardStats, error) {
		atomic.AddInt32(&calls, 1)
		return domain.DashboardStats{}, boom
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	state := c.State(StatsKey())
	assert.Equal(t, boom, state.Err)
	assert.False(t, state.Loading)
}

func TestOnInvalidate_NotifiesAndUnsubscribes(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var got []string
	unsubscribe := c.OnInvalidate(func(_ context.Context, kind Kind, param string) {
		got = append(got, string(kind)+"|"+param)
	})

	c.Invalidate(ctx, KindList)
	c.Invalidate(ctx, KindDetail, "3", "4")
	unsubscribe()
	c.Invalidate(ctx, KindStats)

	assert.Equal(t, []string{"inquiries-list|", "inquiry-detail|3", "inquiry-detail|4"}, got)
}

func TestPurge_DropsNamespace(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()
	a := New(store, Options{Namespace: Namespace("a")}, logger.Nop())
	b := New(store, Options{Namespace: Namespace("b")}, logger.Nop())

	for _, c := range []*Cache{a, b} {
		_, err := Get(ctx, c, StatsKey(), func(context.Context) (domain.DashboardStats, error) {
			return domain.DashboardStats{TotalInquiries: 1}, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, store.Len())

	require.NoError(t, a.Purge(ctx))

	_, _, ok := Peek[domain.DashboardStats](ctx, a, StatsKey())
	assert.False(t, ok)
	_, _, ok = Peek[domain.DashboardStats](ctx, b, StatsKey())
	assert.True(t, ok)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-1", "4.5", "12abc"} {
		_, err := ParseID(raw)
		require.Error(t, err, "raw %q", raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "raw %q", raw)
	}
}
