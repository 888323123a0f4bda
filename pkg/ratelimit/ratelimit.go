package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixed window counter; the first hit in a window sets its expiry
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Result of one Allow call
type Result struct {
	Allowed    bool
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per scope and subject (usually the client IP)
// in Redis so limits hold across replicas.
type Limiter struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Limiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "crm:rate_limit"
	}
	return &Limiter{client: client, prefix: prefix}
}

// Allow records one hit. A nil limiter or a non-positive limit allows everything.
func (l *Limiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (Result, error) {
	if l == nil || l.client == nil || limit <= 0 || window <= 0 {
		return Result{Allowed: true}, nil
	}

	windowMs := max(window.Milliseconds(), 1000)
	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)

	raw, err := windowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("rate limit script: %w", err)
	}
	count, ttlMs, err := parseReply(raw)
	if err != nil {
		return Result{Allowed: true}, err
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	return evaluate(count, ttlMs, limit), nil
}

func parseReply(raw any) (int64, int64, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count: %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit ttl: %T", values[1])
	}
	return count, ttl, nil
}

func evaluate(count, ttlMs int64, limit int) Result {
	retry := time.Duration(math.Ceil(float64(ttlMs)/1000.0)) * time.Second
	if retry < time.Second {
		retry = time.Second
	}
	return Result{
		Allowed:    count <= int64(limit),
		Count:      int(count),
		Remaining:  max(limit-int(count), 0),
		RetryAfter: retry,
	}
}
