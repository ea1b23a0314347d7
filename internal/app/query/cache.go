package query

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/platform/redisclient"
)

const (
	viewKeyPattern = "view:*"
	evictBatch     = 200
)

// ViewCache keeps view bodies in Redis under ViewKey.CacheKey, tagged with
// the revision of the row they were read from.
type ViewCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ViewCache{redis: client, ttl: ttl}
}

// Get returns the cached body. Any Redis failure is a miss.
func (c *ViewCache) Get(ctx context.Context, key ViewKey) ([]byte, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	data, _, err := redisclient.GetVersioned(ctx, c.redis, key.CacheKey())
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key.CacheKey()).Err()
		}
		return nil, false
	}
	return data, true
}

// Set stores body unless the cache already holds revision or a later one.
// A zero TTL disables caching.
func (c *ViewCache) Set(ctx context.Context, key ViewKey, body []byte, revision uint64) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	written, err := redisclient.SetIfNewer(ctx, c.redis, key.CacheKey(), revision, body, c.ttl)
	if err != nil {
		log.WithError(err).WithField("view", key.String()).Warn("failed to store view cache entry")
		return
	}
	if !written {
		log.WithFields(log.Fields{"view": key.String(), "revision": revision}).Debug("cache already holds a newer view")
	}
}

func (c *ViewCache) Evict(ctx context.Context, keys ...ViewKey) {
	if c == nil || c.redis == nil || len(keys) == 0 {
		return
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.CacheKey())
	}
	if err := c.redis.Del(ctx, names...).Err(); err != nil {
		log.WithError(err).Warn("failed to evict view cache entries")
	}
}

// EvictAll drops every cached view and returns how many keys were removed.
func (c *ViewCache) EvictAll(ctx context.Context) (int, error) {
	if c == nil || c.redis == nil {
		return 0, nil
	}
	removed := 0
	batch := make([]string, 0, evictBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.redis.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}

	iter := c.redis.Scan(ctx, 0, viewKeyPattern, evictBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == evictBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, flush()
}
