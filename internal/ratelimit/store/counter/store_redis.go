package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Both scripts set the expiry only when the counter is new (or has somehow lost
// its TTL), so the window stays fixed from the first request.
var (
	incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

	incrementBelowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return {current, 0}
end
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {count, 1}
`)

	// DECR keeps the key's expiry. The last unit removes the key.
	decrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current <= 1 then
  redis.call('DEL', KEYS[1])
  return 0
end
return redis.call('DECR', KEYS[1])
`)
)

// RedisStore keeps counters in Redis so limits hold across instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore namespaces every key with prefix (e.g. "rl:").
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (int, bool, error) {
	n, err := s.client.Get(ctx, s.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("get", err)
	}
	return n, true, nil
}

func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}, ttl.Milliseconds()).Int()
	if err != nil {
		return 0, unavailable("increment", err)
	}
	return n, nil
}

func (s *RedisStore) IncrementBelow(ctx context.Context, key string, limit int, ttl time.Duration) (int, bool, error) {
	res, err := incrementBelowScript.Run(ctx, s.client, []string{s.key(key)}, limit, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, unavailable("increment below", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *RedisStore) Decrement(ctx context.Context, key string) (int, error) {
	n, err := decrementScript.Run(ctx, s.client, []string{s.key(key)}).Int()
	if err != nil {
		return 0, unavailable("decrement", err)
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return false, unavailable("delete", err)
	}
	return n > 0, nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, false, unavailable("ttl", err)
	}
	// -2: no such key, -1: key without expiry.
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
