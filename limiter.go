package folio

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter counts attempts per key (a client IP) within a window.
type RateLimiter interface {
	// Check reports whether key is still under the limit without recording.
	Check(ctx context.Context, key string) bool
	// Record registers one attempt for key.
	Record(ctx context.Context, key string)
	// Allow checks and records in one step.
	Allow(ctx context.Context, key string) bool
}

// LoginLimiter is an in-process RateLimiter.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
// Call Close to stop its cleanup goroutine.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for key, hits := range l.attempts {
			if kept := prune(hits, cutoff); len(kept) == 0 {
				delete(l.attempts, key)
			} else {
				l.attempts[key] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (l *LoginLimiter) Close() error {
	l.once.Do(func() { close(l.stop) })
	return nil
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow checks if the key has not exceeded the limit and records the attempt.
func (l *LoginLimiter) Allow(ctx context.Context, key string) bool {
	if !l.Check(ctx, key) {
		return false
	}
	l.Record(ctx, key)
	return true
}

// Check returns true if the key has not exceeded the limit.
func (l *LoginLimiter) Check(_ context.Context, key string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[key], cutoff)
	l.attempts[key] = kept
	return len(kept) < l.max
}

// Record registers an attempt for key.
func (l *LoginLimiter) Record(_ context.Context, key string) {
	l.mu.Lock()
	l.attempts[key] = append(l.attempts[key], time.Now())
	l.mu.Unlock()
}

// RedisLoginLimiter shares attempt counts between instances through Redis
// using one fixed-window counter per key. Redis failures fail open.
type RedisLoginLimiter struct {
	rdb    redis.UniversalClient
	prefix string
	max    int
	window time.Duration
	log    logrus.FieldLogger
}

// NewRedisLoginLimiter builds a limiter over rdb. prefix namespaces the keys.
func NewRedisLoginLimiter(rdb redis.UniversalClient, prefix string, max int, window time.Duration, log logrus.FieldLogger) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb, prefix: prefix, max: max, window: window, log: log}
}

func (l *RedisLoginLimiter) key(k string) string {
	return l.prefix + k
}

// Check returns true if the key has not exceeded the limit.
func (l *RedisLoginLimiter) Check(ctx context.Context, key string) bool {
	n, err := l.rdb.Get(ctx, l.key(key)).Int()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		l.log.WithError(err).Warn("rate limiter unavailable, allowing request")
		return true
	}
	return n < l.max
}

// Record registers an attempt. The window starts at the first attempt.
func (l *RedisLoginLimiter) Record(ctx context.Context, key string) {
	k := l.key(key)
	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.WithError(err).Warn("rate limiter record failed")
	}
}

// Allow checks and records in one step.
func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) bool {
	if !l.Check(ctx, key) {
		return false
	}
	l.Record(ctx, key)
	return true
}

// Close releases the Redis connection pool.
func (l *RedisLoginLimiter) Close() error {
	return l.rdb.Close()
}
