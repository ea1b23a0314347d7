package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned entries are hashes with a "rev" and a "value" field. A write
// carrying a revision at or below the stored one is refused, so writers that
// lose a race cannot replace a newer value.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'rev')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'rev', ARGV[1], 'value', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// SetIfNewer stores value at revision and reports whether it was written.
func SetIfNewer(ctx context.Context, client *redis.Client, key string, revision uint64, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, fmt.Errorf("versioned set %s: ttl must be positive", key)
	}
	written, err := setIfNewer.Run(ctx, client, []string{key}, revision, value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// GetVersioned returns an entry written by SetIfNewer. A missing entry
// returns redis.Nil.
func GetVersioned(ctx context.Context, client *redis.Client, key string) ([]byte, uint64, error) {
	fields, err := client.HMGet(ctx, key, "rev", "value").Result()
	if err != nil {
		return nil, 0, err
	}
	rev, okRev := fields[0].(string)
	value, okValue := fields[1].(string)
	if !okRev || !okValue {
		return nil, 0, redis.Nil
	}
	revision, err := strconv.ParseUint(rev, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("versioned get %s: %w", key, err)
	}
	return []byte(value), revision, nil
}
