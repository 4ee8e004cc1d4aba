package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every instance pointing at the
// same redis.
type Redis struct {
	rdb    redis.Scripter
	limit  int
	period time.Duration
	prefix string
}

// Returns the window count and the remaining TTL in milliseconds.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

func NewRedis(rdb redis.Scripter, limit int, period time.Duration, prefix string) *Redis {
	if limit <= 0 {
		limit = 60
	}
	if period <= 0 {
		period = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "planner:rl"
	}
	return &Redis{rdb: rdb, limit: limit, period: period, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, r.period.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	count, ttl, err := parseWindow(res)
	if err != nil {
		return Decision{}, err
	}
	return r.decide(count, ttl), nil
}

func (r *Redis) decide(count int64, ttl time.Duration) Decision {
	if count > int64(r.limit) {
		if ttl <= 0 {
			ttl = r.period
		}
		return Decision{RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: r.limit - int(count)}
}

func parseWindow(res any) (int64, time.Duration, error) {
	vals, ok := res.([]any)
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis script result %T", res)
	}
	count, err := toInt64(vals[0])
	if err != nil {
		return 0, 0, err
	}
	ttl, err := toInt64(vals[1])
	if err != nil {
		return 0, 0, err
	}
	return count, time.Duration(ttl) * time.Millisecond, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		// some proxies return integer replies as strings
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script value type %T", v)
	}
}
