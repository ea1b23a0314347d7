package labelstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/todo-1m/tasklist/internal/domain/label"
	"github.com/todo-1m/tasklist/internal/platform/redisclient"
	"github.com/todo-1m/tasklist/internal/projection"
)

type source interface {
	Rows(ctx context.Context, ids ...label.ID) (map[label.ID]Row, error)
}

// Cached is a Redis read-through cache in front of a label source. Entries
// carry the label version, and a write never replaces a later version.
type Cached struct {
	base  source
	redis *redis.Client
	ttl   time.Duration
}

func NewCached(base source, client *redis.Client, ttl time.Duration) *Cached {
	if base == nil {
		panic("labelstore.NewCached: base source is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cached{base: base, redis: client, ttl: ttl}
}

// Labels returns cached details and loads the rest from the base source.
// Labels unknown to the source are absent from the result.
func (c *Cached) Labels(ctx context.Context, ids ...label.ID) (projection.LabelSet, error) {
	out := projection.LabelSet{}
	var missing []label.ID
	for _, id := range ids {
		if d, ok := c.load(ctx, id); ok {
			out[id] = d
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.base.Rows(ctx, missing...)
	if err != nil {
		return nil, err
	}
	for id, row := range loaded {
		out[id] = row.Details
		c.Put(ctx, id, row.Details, row.Version)
	}
	return out, nil
}

// Put caches details at version unless a later version is cached already.
func (c *Cached) Put(ctx context.Context, id label.ID, details label.Details, version uint64) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	if _, err := redisclient.SetIfNewer(ctx, c.redis, cacheKey(id), version, data, c.ttl); err != nil {
		log.WithError(err).WithField("label_id", id).Warn("failed to store label cache entry")
	}
}

func (c *Cached) load(ctx context.Context, id label.ID) (label.Details, bool) {
	if c.redis == nil {
		return label.Details{}, false
	}
	data, _, err := redisclient.GetVersioned(ctx, c.redis, cacheKey(id))
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, cacheKey(id)).Err()
		}
		return label.Details{}, false
	}
	var d label.Details
	if err := json.Unmarshal(data, &d); err != nil {
		_ = c.redis.Del(ctx, cacheKey(id)).Err()
		return label.Details{}, false
	}
	return d, true
}

func cacheKey(id label.ID) string {
	return "label:" + string(id)
}
