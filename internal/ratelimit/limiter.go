// Package ratelimit enforces a per-user request budget with fixed one-minute
// windows kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const window = time.Minute

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per key and window.
type Limiter struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

// NewLimiter connects to redisURL and allows perMinute requests per key.
func NewLimiter(redisURL string, perMinute int) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewLimiterWithClient(client, perMinute), nil
}

// NewLimiterWithClient creates a limiter from an existing Redis client.
func NewLimiterWithClient(client *redis.Client, perMinute int) *Limiter {
	return &Limiter{
		client: client,
		limit:  perMinute,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (l *Limiter) key(subject string, windowStart int64) string {
	return l.prefix + subject + ":" + strconv.FormatInt(windowStart, 10)
}

// Allow counts one request for subject in the current window.
func (l *Limiter) Allow(ctx context.Context, subject string) (Decision, error) {
	now := l.now()
	start := now.Truncate(window)
	key := l.key(subject, start.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("count request: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   start.Add(window).Sub(now),
	}, nil
}

// Close closes the Redis connection.
func (l *Limiter) Close() error {
	return l.client.Close()
}

// Ping checks if Redis is reachable.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
