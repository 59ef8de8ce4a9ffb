// Package ratelimit implements the admission rate limiter (spec.md
// section 4.5): fixed-window and sliding-window strategies over Redis.
// Ported algorithm-for-algorithm from
// original_source/server/app/utils/rate_limiter.py's RateLimiter,
// swapping its redis-py pipeline for go-redis/v9's.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Strategy selects which algorithm Check dispatches to.
type Strategy string

const (
	FixedWindow   Strategy = "fixed-window"
	SlidingWindow Strategy = "sliding-window"
)

// Result mirrors the reference's rate_limit_info dict.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      int64
	RetryAfter *int64
}

// Limiter checks and tracks admission against Redis-backed counters.
type Limiter struct {
	client *redis.Client
	prefix string
}

// New builds a Limiter namespaced under "<prefix>:ratelimit".
func New(client *redis.Client, prefix string) *Limiter {
	return &Limiter{client: client, prefix: fmt.Sprintf("%s:ratelimit", prefix)}
}

func (l *Limiter) fixedWindowKey(identifier string, window time.Duration) string {
	windowSeconds := int64(window.Seconds())
	currentWindow := time.Now().Unix() / windowSeconds
	return fmt.Sprintf("%s:fixed:%s:%d:%d", l.prefix, identifier, windowSeconds, currentWindow)
}

func (l *Limiter) slidingWindowKey(identifier string, window time.Duration) string {
	return fmt.Sprintf("%s:sliding:%s:%d", l.prefix, identifier, int64(window.Seconds()))
}

// Check runs the configured strategy's admission test for identifier.
func (l *Limiter) Check(ctx context.Context, identifier string, limit int, window time.Duration, strategy Strategy) (Result, error) {
	if strategy == SlidingWindow {
		return l.checkSlidingWindow(ctx, identifier, limit, window)
	}
	return l.checkFixedWindow(ctx, identifier, limit, window)
}

func (l *Limiter) checkFixedWindow(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error) {
	key := l.fixedWindowKey(identifier, window)
	windowSeconds := int64(window.Seconds())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("fixed window pipeline: %w", err)
	}
	currentCount := incr.Val()

	now := time.Now().Unix()
	currentWindowStart := (now / windowSeconds) * windowSeconds
	resetTime := currentWindowStart + windowSeconds

	allowed := currentCount <= int64(limit)
	remaining := maxInt(0, limit-int(currentCount))

	result := Result{Allowed: allowed, Limit: limit, Remaining: remaining, Reset: resetTime}
	if !allowed {
		retryAfter := resetTime - now
		result.RetryAfter = &retryAfter
	}
	return result, nil
}

func (l *Limiter) checkSlidingWindow(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error) {
	key := l.slidingWindowKey(identifier, window)
	now := time.Now()
	currentTime := float64(now.UnixNano()) / 1e9
	windowStart := currentTime - window.Seconds()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatFloat(windowStart, 'f', -1, 64))
	cardinality := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: currentTime, Member: strconv.FormatFloat(currentTime, 'f', -1, 64)})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("sliding window pipeline: %w", err)
	}
	currentCount := cardinality.Val()

	allowed := currentCount < int64(limit)
	remaining := maxInt(0, limit-int(currentCount)-1)

	var oldestTimestamp *float64
	if !allowed {
		oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return Result{}, fmt.Errorf("sliding window oldest lookup: %w", err)
		}
		if len(oldest) > 0 {
			score := oldest[0].Score
			oldestTimestamp = &score
		}
	}

	var resetTime int64
	if oldestTimestamp != nil {
		resetTime = int64(*oldestTimestamp + window.Seconds())
	} else {
		resetTime = int64(currentTime + window.Seconds())
	}

	result := Result{Allowed: allowed, Limit: limit, Remaining: remaining, Reset: resetTime}
	if !allowed {
		retryAfter := resetTime - now.Unix()
		result.RetryAfter = &retryAfter
	}
	return result, nil
}

// Reset clears every window key tracked for identifier, mirroring
// reset_rate_limit's SCAN + DELETE.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	pattern := fmt.Sprintf("%s:*:%s:*", l.prefix, identifier)
	iter := l.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("reset rate limit key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
