package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitecraft/backend/internal/metrics"
)

// SecurityHeaders adds security response headers (CSP, X-Frame-Options, etc.)
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "0")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// Limiter decides whether the client identified by key may make another
// request. When it may not, retryAfter says how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

// RateLimiter provides IP-based rate limiting for one scope (contact, login).
type RateLimiter struct {
	scope             string
	limiter           Limiter
	trustedProxyCount int
}

// NewRateLimiter creates a rate limiter for scope backed by limiter.
// Assumes a single trusted reverse proxy (nginx) by default.
func NewRateLimiter(scope string, limiter Limiter) *RateLimiter {
	return &RateLimiter{scope: scope, limiter: limiter, trustedProxyCount: 1}
}

// Middleware returns an http.Handler that enforces rate limits. A limiter
// backend error lets the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		ok, retryAfter, err := rl.limiter.Allow(r.Context(), rl.scope+":"+ip)
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", rl.scope, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncrementRateLimited(rl.scope)
			w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the real client IP, reading from the rightmost trusted
// proxy position in X-Forwarded-For to prevent spoofing.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		// The rightmost entry added by our infrastructure is at
		// index len(parts) - trustedProxyCount.
		idx := len(parts) - rl.trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ---------------------------------------------------------------------------
// in-process sliding window
// ---------------------------------------------------------------------------

// MemoryLimiter is a per-process sliding window limiter.
type MemoryLimiter struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	timestamps []time.Time
}

// NewMemoryLimiter allows limit requests per window and key.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
	}
	go ml.cleanupLoop()
	return ml
}

// cleanupLoop periodically removes stale entries from the clients map.
func (ml *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		windowStart := time.Now().Add(-ml.window)
		ml.mu.Lock()
		for key, cw := range ml.clients {
			cw.prune(windowStart)
			if len(cw.timestamps) == 0 {
				delete(ml.clients, key)
			}
		}
		ml.mu.Unlock()
	}
}

// prune drops timestamps outside the window; in-place filter on shared backing array.
func (cw *clientWindow) prune(windowStart time.Time) {
	valid := cw.timestamps[:0]
	for _, ts := range cw.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	cw.timestamps = valid
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()

	ml.mu.Lock()
	defer ml.mu.Unlock()

	cw, ok := ml.clients[key]
	if !ok {
		cw = &clientWindow{}
		ml.clients[key] = cw
	}
	cw.prune(now.Add(-ml.window))

	if len(cw.timestamps) >= ml.limit {
		oldest := cw.timestamps[0]
		return false, oldest.Add(ml.window).Sub(now), nil
	}
	cw.timestamps = append(cw.timestamps, now)
	return true, 0, nil
}

// ---------------------------------------------------------------------------
// Redis fixed window
// ---------------------------------------------------------------------------

// redisCounter is the part of the go-redis client RedisLimiter uses.
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter counts requests in Redis so every server instance shares the
// budget. Each key is a fixed window that starts with its first request.
type RedisLimiter struct {
	rdb    redisCounter
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows limit requests per window and key. rdb is usually a *redis.Client.
func NewRedisLimiter(rdb redisCounter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := fmt.Sprintf("%s:%s", rl.prefix, key)
	count, err := rl.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	// Set expiration on first increment
	if count == 1 {
		if err := rl.rdb.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count <= rl.limit {
		return true, 0, nil
	}
	ttl, err := rl.rdb.TTL(ctx, k).Result()
	if err != nil || ttl <= 0 {
		// a key left without expiry would block the client forever
		if err == nil {
			_ = rl.rdb.Expire(ctx, k, rl.window).Err()
		}
		ttl = rl.window
	}
	return false, ttl, nil
}
