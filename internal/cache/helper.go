package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafedex/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "user:%d"
	cafeKeyPrefix = "cafe:%d"
)

const (
	// UserTTL bounds how long a stale profile can be served after an edit
	// races the cache fill.
	UserTTL = 5 * time.Minute
	// CafeTTL is longer; cafes change rarely and likes are not cached.
	CafeTTL = 30 * time.Minute
)

// UserKey returns the cache key for a user row.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// CafeKey returns the cache key for a cafe row.
func CafeKey(cafeID uint) string {
	return fmt.Sprintf(cafeKeyPrefix, cafeID)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on miss it calls fetch (which must populate dest)
// and stores the result with ttl. Cache failures degrade to the fetch path.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheRequests.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheRequests.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes a key from the cache.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser removes the cached user row.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateCafe removes the cached cafe row.
func InvalidateCafe(ctx context.Context, cafeID uint) {
	Invalidate(ctx, CafeKey(cafeID))
}
