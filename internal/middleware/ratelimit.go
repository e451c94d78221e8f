package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/metrics"
)

// rateLimitKey uses the authenticated user when Auth ran earlier in the chain
// and the client address otherwise.
func rateLimitKey(c *drift.Context, trustProxy bool) string {
	if id := GetUserID(c); id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + clientIP(c.Request, trustProxy)
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

func rejectRateLimited(c *drift.Context, limiter string, retryAfter int) {
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.Response.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	_ = c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	c.Abort()
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// MemoryLimiter is a per-key token bucket held in process memory. Run
// RunSweeper alongside it to drop keys that went idle.
type MemoryLimiter struct {
	rps      float64
	burst    int
	limiters sync.Map // key -> *limiterEntry
	now      func() time.Time
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rps, burst: burst, now: time.Now}
}

func (l *MemoryLimiter) entry(key string) *limiterEntry {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	v, _ := l.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)})
	return v.(*limiterEntry)
}

func (l *MemoryLimiter) Allow(key string) bool {
	e := l.entry(key)
	e.lastSeen.Store(l.now().UnixNano())
	return e.limiter.Allow()
}

// Sweep drops keys not seen for longer than idle. A dropped key starts again
// with a full bucket, so idle should exceed the time a bucket takes to refill.
func (l *MemoryLimiter) Sweep(idle time.Duration) {
	cutoff := l.now().Add(-idle).UnixNano()
	l.limiters.Range(func(key, value interface{}) bool {
		if e, ok := value.(*limiterEntry); ok && e.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RunSweeper calls Sweep on every tick until ctx is done.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}

func RateLimit(l *MemoryLimiter, trustProxy bool) drift.HandlerFunc {
	return func(c *drift.Context) {
		if !l.Allow(rateLimitKey(c, trustProxy)) {
			rejectRateLimited(c, "memory", 1)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// RedisRateLimit is a fixed-window limiter shared by every instance using the
// same Redis. Each key may make RPS*Window+Burst requests per window.
func RedisRateLimit(client *redis.Client, cfg config.RateLimitConfig) drift.HandlerFunc {
	return redisRateLimit(client, cfg, time.Now)
}

func redisRateLimit(client *redis.Client, cfg config.RateLimitConfig, now func() time.Time) drift.HandlerFunc {
	windowSeconds := int(cfg.Window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int64(cfg.RPS*float64(windowSeconds)) + int64(cfg.Burst)

	return func(c *drift.Context) {
		bucket := now().Unix() / int64(windowSeconds)
		key := fmt.Sprintf("rl:%s:%d", rateLimitKey(c, cfg.TrustProxy), bucket)
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			c.InternalServerError("rate limit check failed")
			return
		}
		if count == 1 {
			_ = client.Expire(ctx, key, time.Duration(windowSeconds+1)*time.Second).Err()
		}

		if count > allowedPerWindow {
			rejectRateLimited(c, "redis", windowSeconds)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
