package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/docflow/review-service/internal/document"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*RedisStatsCache, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStatsCache(client, "", 30*time.Second), m
}

func TestRedisStatsCache_SetGetExpire(t *testing.T) {
	c, m := newCache(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "A1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(0), gen)

	want := document.Stats{Total: 3, Approved: 2, Rejected: 1}
	require.NoError(t, c.Set(ctx, "A1", gen, want))
	require.True(t, m.Exists("review:stats:A1:v0"))

	got, _, ok, err := c.Get(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	m.FastForward(31 * time.Second)
	_, _, ok, err = c.Get(ctx, "A1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStatsCache_InvalidateRetiresAggregate(t *testing.T) {
	c, m := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "", 0, document.Stats{Total: 10, Approved: 10}))
	require.NoError(t, c.Set(ctx, "A1", 0, document.Stats{Total: 1, Approved: 1}))
	require.NoError(t, c.Set(ctx, "A2", 0, document.Stats{Total: 1, Rejected: 1}))
	require.True(t, m.Exists("review:stats:_all:v0"))

	require.NoError(t, c.Invalidate(ctx, "A1"))
	v, err := m.Get("review:stats:_all:gen")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	_, gen, ok, err := c.Get(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(1), gen)
	_, _, ok, err = c.Get(ctx, "A1")
	require.NoError(t, err)
	require.False(t, ok)
	_, _, ok, err = c.Get(ctx, "A2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisStatsCache_FillAfterInvalidateIsIgnored(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "A1")
	require.NoError(t, err)
	require.False(t, ok)

	// a decision lands between the miss and the fill
	require.NoError(t, c.Invalidate(ctx, "A1"))
	require.NoError(t, c.Set(ctx, "A1", gen, document.Stats{}))

	_, newGen, ok, err := c.Get(ctx, "A1")
	require.NoError(t, err)
	require.False(t, ok, "stale fill must not be served")
	require.Equal(t, gen+1, newGen)

	require.NoError(t, c.Set(ctx, "A1", newGen, document.Stats{Total: 1, Approved: 1}))
	got, _, ok, err := c.Get(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), got.Approved)
}

func TestRedisStatsCache_CorruptEntryIsAMiss(t *testing.T) {
	c, m := newCache(t)
	require.NoError(t, m.Set("review:stats:A1:v0", "{not json"))

	_, _, ok, err := c.Get(context.Background(), "A1")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, m.Exists("review:stats:A1:v0"))
}

func TestRedisStatsCache_ClientErrorSurfaces(t *testing.T) {
	c, m := newCache(t)
	m.Close()
	_, _, _, err := c.Get(context.Background(), "A1")
	require.Error(t, err)
}
