package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/platform/logger"
)

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_SetGetExpire(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "inquiry_desk:s1:dashboard-stats", []byte(`{"a":1}`), time.Minute))

	got, err := store.Get(ctx, "inquiry_desk:s1:dashboard-stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "inquiry_desk:s1:dashboard-stats")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	for _, k := range []string{"inquiry_desk:s1:a", "inquiry_desk:s1:b", "inquiry_desk:s2:a"} {
		require.NoError(t, store.Set(ctx, k, []byte("x"), time.Minute))
	}

	require.NoError(t, store.DeletePrefix(ctx, "inquiry_desk:s1:"))

	assert.False(t, mr.Exists("inquiry_desk:s1:a"))
	assert.False(t, mr.Exists("inquiry_desk:s1:b"))
	assert.True(t, mr.Exists("inquiry_desk:s2:a"))
}

func TestRedisStore_BacksCache(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()
	c := New(store, Options{Namespace: Namespace("s9")}, logger.Nop())

	_, err := Get(ctx, c, DetailKey(8), func(context.Context) (domain.Inquiry, error) {
		return domain.Inquiry{ID: 8, Message: "Is the Bole apartment still available?"}, nil
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("inquiry_desk:s9:inquiry-detail:8"))

	got, _, ok := Peek[domain.Inquiry](ctx, c, DetailKey(8))
	require.True(t, ok)
	assert.Equal(t, "Is the Bole apartment still available?", got.Message)

	require.NoError(t, c.Purge(ctx))
	assert.False(t, mr.Exists("inquiry_desk:s9:inquiry-detail:8"))
}

func TestNewRedisStore_RejectsEmptyURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "")
	assert.Error(t, err)
}
