package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestRemember_HitAfterMiss(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	c := New(redis.NewClient(&redis.Options{Addr: m.Addr()}), "t:", time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]item, error) {
		calls++
		return []item{{ID: "s1", Name: "الرياضيات"}}, nil
	}

	got, err := Remember(ctx, c, "subjects", load)
	require.NoError(t, err)
	require.Len(t, got, 1)
	got, err = Remember(ctx, c, "subjects", load)
	require.NoError(t, err)
	require.Equal(t, "الرياضيات", got[0].Name)
	require.Equal(t, 1, calls)
	require.True(t, m.Exists("t:subjects"))

	require.NoError(t, c.Invalidate(ctx, "subjects"))
	_, err = Remember(ctx, c, "subjects", load)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	m.FastForward(2 * time.Minute)
	require.False(t, m.Exists("t:subjects"))
}

func TestRemember_LoadErrorNotCached(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	c := New(redis.NewClient(&redis.Options{Addr: m.Addr()}), "t:", time.Minute)

	_, err = Remember(context.Background(), c, "k", func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	require.False(t, m.Exists("t:k"))
}

func TestRemember_FallsBackWhenRedisUnavailable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	c := New(redis.NewClient(&redis.Options{Addr: m.Addr()}), "", time.Minute)
	m.Close()

	v, err := Remember(context.Background(), c, "k", func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	require.Equal(t, "fresh", v)
}

func TestRemember_NilCache(t *testing.T) {
	var c *Cache
	v, err := Remember(context.Background(), c, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.NoError(t, c.Invalidate(context.Background(), "k"))
}
