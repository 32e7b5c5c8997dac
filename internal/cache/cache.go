package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

var log = logger.Named("cache")

// Cache is a JSON read-through cache on Redis. A Cache without a client, or a
// nil *Cache, passes every lookup straight to the loader.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "cache:"
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil && c.ttl > 0 }

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// Remember returns the cached value for key or calls load and stores its result.
// Redis failures are logged and fall back to load.
func Remember[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}
	full := c.prefix + key
	b, err := c.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		var v T
		if uerr := json.Unmarshal(b, &v); uerr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		log.Warnf("dropping undecodable entry %s", full)
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warnf("get %s: %v", full, err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if enc, merr := json.Marshal(v); merr == nil {
		if serr := c.client.Set(ctx, full, enc, c.ttl).Err(); serr != nil {
			log.Warnf("set %s: %v", full, serr)
		}
	}
	return v, nil
}
