package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), "pt:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "views:/events/1", int64(17), time.Minute))
	assert.True(t, mr.Exists("pt:views:/events/1"), "key must be namespaced")

	var n int64
	ok, err := c.Get(ctx, "views:/events/1", &n)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(17), n)
}

func TestCache_MissIsNotAnError(t *testing.T) {
	c, _ := newTestCache(t)
	var n int64
	ok, err := c.Get(context.Background(), "absent", &n)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 30*time.Second))

	mr.FastForward(31 * time.Second)

	var s string
	ok, err := c.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("pt:a"))
	assert.False(t, mr.Exists("pt:b"))
	require.NoError(t, c.Delete(ctx))
}

func TestCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("pt:k", "not-json"))

	var n int64
	_, err := c.Get(context.Background(), "k", &n)
	assert.Error(t, err)
}

func TestNew_FailsFast(t *testing.T) {
	_, err := New("redis://127.0.0.1:1", "")
	assert.Error(t, err)

	_, err = New("not a url", "")
	assert.Error(t, err)
}

func TestNewWithClient_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "")
	mr.Close()

	_, err := c.Get(context.Background(), "k", new(int))
	assert.Error(t, err)
}
