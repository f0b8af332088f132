package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter increments a fixed-window request counter and returns the count
// within the current window, including this request.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter counts requests in Redis so the limit holds across server
// instances. INCR plus a first-write EXPIRE gives a fixed window per key.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter creates a Counter backed by the given Redis client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr increments the window counter for key, setting the window expiry on
// first increment.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val(), nil
}

// MemoryCounter is an in-process Counter for deployments without Redis.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count    int64
	resetsAt time.Time
}

// NewMemoryCounter creates an in-process Counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*memoryWindow)}
}

// Incr increments the window counter for key, resetting it when the window
// has elapsed.
func (c *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[key]
	if !ok || now.After(w.resetsAt) {
		w = &memoryWindow{resetsAt: now.Add(window)}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// WithRateLimit rejects requests over limit per window per client IP with
// 429. A nil counter or non-positive limit disables limiting. Counter
// failures fail open: a broken limiter backend must not take the API down.
func WithRateLimit(limit int, window time.Duration, counter Counter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + clientIP(r)
			count, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				logger.Warn("rate limit counter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
