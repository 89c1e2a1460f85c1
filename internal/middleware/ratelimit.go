package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Counter increments the hit count for key within a fixed window and returns
// the count after the increment.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type bucket struct {
	count int64
	until time.Time
}

// MemoryCounter keeps fixed-window buckets in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[string]*bucket), now: time.Now}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	b, ok := c.buckets[key]
	if !ok || now.After(b.until) {
		if len(c.buckets) > 10000 {
			c.sweep(now)
		}
		b = &bucket{until: now.Add(window)}
		c.buckets[key] = b
	}
	b.count++
	return b.count, nil
}

func (c *MemoryCounter) sweep(now time.Time) {
	for k, b := range c.buckets {
		if now.After(b.until) {
			delete(c.buckets, k)
		}
	}
}

// RedisCounter shares fixed-window buckets between API replicas.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "vydio:ratelimit:"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	slot := time.Now().UnixNano() / int64(window)
	redisKey := c.prefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val(), nil
}

// RateLimit rejects clients that exceed limit requests per window. Counter
// failures let the request through. Mount it after middleware.RealIP so the
// bucket follows the resolved client address.
func RateLimit(counter Counter, limit int, per time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			n, err := counter.Hit(r.Context(), ip, per)
			if err != nil {
				logger.Warn().Err(err).Str("ip", ip).Msg("rate limit counter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if n > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(per.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIPForRateLimit keys on the connection address only. Forwarding
// headers are resolved upstream by chi's RealIP, which rewrites RemoteAddr.
func clientIPForRateLimit(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
