package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
}

func TestAside(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	fetches := 0
	fill := func(dest *cachedThing) func() error {
		return func() error {
			fetches++
			dest.ID = 7
			dest.Name = "Bernal Heights Coffee"
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, CafeKey(7), &first, CafeTTL, fill(&first)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "Bernal Heights Coffee", first.Name)

	// Second lookup must be served from the cache.
	var second cachedThing
	require.NoError(t, Aside(ctx, CafeKey(7), &second, CafeTTL, fill(&second)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)

	// Invalidation forces a refetch.
	InvalidateCafe(ctx, 7)
	var third cachedThing
	require.NoError(t, Aside(ctx, CafeKey(7), &third, CafeTTL, fill(&third)))
	assert.Equal(t, 2, fetches)
}

func TestAsideWithoutRedis(t *testing.T) {
	SetClient(nil)

	var dest cachedThing
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.ID = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), dest.ID)
}

func TestGetSetJSON(t *testing.T) {
	withTestRedis(t)
	ctx := context.Background()

	var missing cachedThing
	found, err := GetJSON(ctx, UserKey(42), &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, UserKey(42), cachedThing{ID: 42, Name: "alice"}, time.Minute))

	var got cachedThing
	found, err = GetJSON(ctx, UserKey(42), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", got.Name)
}
