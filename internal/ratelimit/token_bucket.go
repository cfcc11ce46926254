// Package ratelimit throttles password attempts with a redis-backed
// token bucket, keyed per scope and caller.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bucket sizes one token bucket: steady refill rate plus burst headroom.
type Bucket struct {
	RequestsPerMinute int
	BurstSize         int
}

func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

// Decision is the outcome of one Allow call. RetryAfter is only set on
// denial.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, scope, subject string, bucket Bucket) (Decision, error)
}

// TokenBucketLimiter keeps bucket state in redis so throttling survives
// restarts and is shared when the server runs more than once.
type TokenBucketLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenBucketLimiter(rdb *redis.Client) *TokenBucketLimiter {
	return &TokenBucketLimiter{rdb: rdb, now: time.Now}
}

// takeToken refills by elapsed time and takes one token if available.
// Returns {allowed, retry_after_seconds}.
var takeToken = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local tokens = tonumber(redis.call("HGET", key, "tokens"))
local stamp = tonumber(redis.call("HGET", key, "ts"))
if not tokens then tokens = capacity end
if not stamp or stamp > now_ms then stamp = now_ms end

tokens = math.min(capacity, tokens + (now_ms - stamp) * (rate / 1000.0))

local allowed = 0
local retry_after = 0
if tokens >= 1.0 then
  allowed = 1
  tokens = tokens - 1.0
elseif rate > 0 then
  retry_after = math.max(1, math.ceil((1.0 - tokens) / rate))
else
  retry_after = 60
end

redis.call("HSET", key, "tokens", tokens, "ts", now_ms)
redis.call("PEXPIRE", key, ttl_ms)
return {allowed, retry_after}
`)

func (l *TokenBucketLimiter) Allow(ctx context.Context, scope, subject string, bucket Bucket) (Decision, error) {
	if l == nil || l.rdb == nil || !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}
	if scope = strings.TrimSpace(scope); scope == "" {
		scope = "default"
	}
	if subject = strings.TrimSpace(subject); subject == "" {
		subject = "unknown"
	}
	// Subjects are caller-controlled (IPs, usernames); hashing keeps the
	// keyspace flat and injection-free.
	sum := sha256.Sum256([]byte(subject))
	key := fmt.Sprintf("studylog:rl:%s:%s", scope, hex.EncodeToString(sum[:]))

	ratePerSec := float64(bucket.RequestsPerMinute) / 60.0
	capacity := float64(bucket.BurstSize)

	res, err := takeToken.Run(ctx, l.rdb, []string{key},
		ratePerSec, capacity, l.now().UTC().UnixMilli(), bucketTTL(ratePerSec, capacity).Milliseconds()).Result()
	if err != nil {
		return Decision{}, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return Decision{}, fmt.Errorf("unexpected ratelimit script response: %T", res)
	}
	allowed, _ := vals[0].(int64)
	if allowed == 1 {
		return Decision{Allowed: true}, nil
	}
	retryAfter, _ := vals[1].(int64)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return Decision{Allowed: false, RetryAfter: time.Duration(retryAfter) * time.Second}, nil
}

// bucketTTL expires idle bucket state after roughly two refill-to-full
// cycles so abandoned callers do not accumulate keys.
func bucketTTL(ratePerSec, capacity float64) time.Duration {
	const (
		minTTL = 30 * time.Second
		maxTTL = time.Hour
	)
	if ratePerSec <= 0 || capacity <= 0 {
		return 2 * time.Minute
	}
	ttl := time.Duration(math.Ceil(capacity/ratePerSec*2))*time.Second + 5*time.Second
	if ttl < minTTL {
		return minTTL
	}
	if ttl > maxTTL {
		return maxTTL
	}
	return ttl
}
