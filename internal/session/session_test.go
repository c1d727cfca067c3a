package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry_desk/internal/events"
	"inquiry_desk/internal/inquiries/client"
	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/logger"
)

type testConfig struct {
	secret string
	idle   time.Duration
}

func (testConfig) GetAPIBaseURL() string                  { return "http://marketplace.invalid/api" }
func (testConfig) GetAPITimeout() time.Duration           { return time.Second }
func (testConfig) GetCacheDriver() string                 { return "memory" }
func (testConfig) GetCacheStaleAfter() time.Duration      { return time.Minute }
func (testConfig) GetStatsRefreshInterval() time.Duration { return time.Hour }
func (testConfig) GetRedisURL() string                    { return "" }
func (testConfig) GetBulkConcurrency() int                { return 2 }
func (testConfig) GetBulkRatePerSecond() float64          { return 1000 }
func (c testConfig) GetSessionIdleTimeout() time.Duration { return c.idle }
func (c testConfig) GetJWTVerifySecret() string           { return c.secret }
func (testConfig) GetPhoneRegion() string                 { return "ET" }

type fakeAPI struct{}

func (fakeAPI) ListInquiries(context.Context, filter.APIFilters) (domain.Page, error) {
	return domain.Page{Results: []domain.Inquiry{{ID: 1, FullName: "Lead", Status: domain.StatusPending}}, Count: 1}, nil
}
func (fakeAPI) DashboardStats(context.Context) (domain.DashboardStats, error) {
	return domain.DashboardStats{TotalInquiries: 1}, nil
}
func (fakeAPI) GetInquiry(_ context.Context, id int64) (domain.Inquiry, error) {
	return domain.Inquiry{ID: id, FullName: "Lead"}, nil
}
func (fakeAPI) GetActivity(context.Context, int64) ([]domain.ActivityEvent, error) { return nil, nil }
func (fakeAPI) UpdateStatus(context.Context, int64, client.StatusPayload) error    { return nil }
func (fakeAPI) AssignToMe(context.Context, int64) error                            { return nil }
func (fakeAPI) ScheduleViewing(context.Context, int64, client.ViewingPayload) error {
	return nil
}
func (fakeAPI) BulkUpdate(context.Context, client.BulkPayload) error { return nil }
func (fakeAPI) Export(context.Context, filter.APIFilters) (domain.ExportJob, error) {
	return domain.ExportJob{JobID: "j"}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var epoch = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func accessClaims(userID any) jwt.MapClaims {
	return jwt.MapClaims{
		"token_type": "access",
		"user_id":    userID,
		"email":      "agent@example.com",
		"exp":        epoch.Add(time.Hour).Unix(),
	}
}

func newTestManager(t *testing.T, cfg testConfig) (*Manager, *querycache.MemoryStore, *events.InMemoryBus, *clock) {
	t.Helper()
	store := querycache.NewMemoryStore(0)
	bus := events.NewInMemoryBus(logger.Nop())
	clk := &clock{now: epoch}
	m := NewManager(cfg, store, bus, logger.Nop(),
		WithAPIFactory(func(string) API { return fakeAPI{} }),
		WithClock(clk.Now),
	)
	t.Cleanup(func() {
		m.Close(context.Background())
		_ = store.Close()
	})
	return m, store, bus, clk
}

func TestParseClaims_Unverified(t *testing.T) {
	token := sign(t, "whatever", accessClaims(42))

	claims, verified, err := ParseClaims("Bearer "+token, "", epoch)
	require.NoError(t, err)
	assert.False(t, verified)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "agent@example.com", claims.Email)
	assert.Equal(t, epoch.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestParseClaims_VerifiedWithSecret(t *testing.T) {
	token := sign(t, "s3cret", accessClaims("7"))

	claims, verified, err := ParseClaims(token, "s3cret", epoch)
	require.NoError(t, err)
	assert.True(t, verified)
	assert.Equal(t, int64(7), claims.UserID)

	_, _, err = ParseClaims(token, "other", epoch)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestParseClaims_Rejections(t *testing.T) {
	refresh := accessClaims(1)
	refresh["token_type"] = "refresh"
	noUser := accessClaims(1)
	delete(noUser, "user_id")

	cases := map[string]string{
		"empty":   "",
		"garbage": "not-a-jwt",
		"refresh": sign(t, "k", refresh),
		"no user": sign(t, "k", noUser),
		"expired": sign(t, "k", accessClaims(1)),
	}
	for name, token := range cases {
		now := epoch
		if name == "expired" {
			now = epoch.Add(2 * time.Hour)
		}
		_, _, err := ParseClaims(token, "", now)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized), name)
	}
}

func TestManager_StartGetEnd(t *testing.T) {
	m, store, _, _ := newTestManager(t, testConfig{})
	ctx := context.Background()

	s, err := m.Start(ctx, sign(t, "k", accessClaims(42)))
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, int64(42), s.Claims.UserID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, s.List.Reload(ctx))
	assert.Positive(t, store.Len())

	require.NoError(t, m.End(ctx, s.ID))
	assert.Equal(t, 0, store.Len(), "session cache namespace is purged")
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(ctx, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.True(t, apperr.Is(m.End(ctx, s.ID), apperr.KindNotFound))
}

func TestManager_SessionsDoNotShareCache(t *testing.T) {
	m, _, _, _ := newTestManager(t, testConfig{})
	ctx := context.Background()

	a, err := m.Start(ctx, sign(t, "k", accessClaims(1)))
	require.NoError(t, err)
	b, err := m.Start(ctx, sign(t, "k", accessClaims(2)))
	require.NoError(t, err)

	require.NoError(t, a.List.Reload(ctx))
	_, _, ok := querycache.Peek[domain.Page](ctx, b.Cache(), querycache.ListKey(filter.Build(filter.Default(), epoch)))
	assert.False(t, ok)
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	m, _, _, clk := newTestManager(t, testConfig{idle: 10 * time.Minute})
	ctx := context.Background()

	s, err := m.Start(ctx, sign(t, "k", accessClaims(1)))
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	_, err = m.Get(ctx, s.ID)
	require.NoError(t, err, "use refreshes the idle clock")

	clk.Advance(9 * time.Minute)
	assert.Equal(t, 0, m.Sweep(ctx))

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Equal(t, 0, m.Len())
}

func TestManager_TokenExpiryEndsSession(t *testing.T) {
	m, _, _, clk := newTestManager(t, testConfig{})
	ctx := context.Background()

	s, err := m.Start(ctx, sign(t, "k", accessClaims(1)))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = m.Get(ctx, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, 0, m.Len())
}

func TestManager_PublishesInvalidationsAndNotices(t *testing.T) {
	m, _, bus, _ := newTestManager(t, testConfig{})
	ctx := context.Background()

	var mu sync.Mutex
	var kinds []string
	var notices []string
	bus.Subscribe(events.CacheInvalidated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, e.(events.CacheInvalidated).Kind)
		return nil
	}))
	bus.Subscribe(events.NoticeRaised{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, e.(events.NoticeRaised).Message)
		return nil
	}))

	s, err := m.Start(ctx, sign(t, "k", accessClaims(1)))
	require.NoError(t, err)
	require.NoError(t, s.List.AssignToMe(ctx, 1))
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, kinds, string(querycache.KindList))
	assert.Contains(t, kinds, string(querycache.KindStats))
	assert.Contains(t, kinds, string(querycache.KindDetail))
	assert.Equal(t, []string{"Inquiry assigned to you"}, notices)

	drained := s.Notices.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "success", drained[0].Level)
	assert.Empty(t, s.Notices.Drain())
}

func TestNotices_DropOldest(t *testing.T) {
	n := newNotices("s", nil, func() time.Time { return epoch })
	for i := 0; i < maxNotices+5; i++ {
		n.Notify("info", "n")
	}
	assert.Equal(t, maxNotices, n.Len())
}

func TestComparison_LimitAndOrder(t *testing.T) {
	var c Comparison
	for _, id := range []int64{5, 3, 9, 3, 1} {
		require.NoError(t, c.Add(id))
	}
	assert.Equal(t, []int64{5, 3, 9, 1}, c.IDs())

	err := c.Add(12)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	c.Remove(3)
	require.NoError(t, c.Add(12))
	assert.Equal(t, []int64{5, 9, 1, 12}, c.IDs())

	assert.True(t, apperr.Is(c.Add(0), apperr.KindValidation))
	c.Clear()
	assert.Empty(t, c.IDs())
}
