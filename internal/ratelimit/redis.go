package ratelimit

import (
	"context"
	"fmt"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// KEYS[1]=counter, ARGV[1]=window in ms. Returns {count, pttl}.
const luaFixedWindow = `
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *rd.Cmd
}

// RedisStore shares counters between instances.
type RedisStore struct {
	rdb evaler
	now func() time.Time
}

func NewRedisStore(rdb *rd.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := s.rdb.Eval(ctx, luaFixedWindow, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit incr: unexpected reply %v", res)
	}
	return res[0], s.now().Add(time.Duration(res[1]) * time.Millisecond), nil
}
