package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// idleEntryTTL bounds memory: windows idle this long get evicted.
	idleEntryTTL = 10 * time.Minute

	// cleanupThreshold triggers opportunistic eviction every N lookups.
	cleanupThreshold = 5000
)

// RateLimiter caps requests per identity over a sliding window. Keys prefer
// the visitor id and fall back to the client IP. Process-local: horizontal
// deployments need a shared backend to enforce a global cap.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	windows  map[string][]time.Time
	lookups  uint64
	lastSeen map[string]time.Time

	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		windows:  make(map[string][]time.Time),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow records one request for key and reports whether it fits the window.
// It also returns the remaining budget and the time the oldest counted
// request leaves the window.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= cleanupThreshold {
		for k, seen := range rl.lastSeen {
			if now.Sub(seen) >= idleEntryTTL {
				delete(rl.lastSeen, k)
				delete(rl.windows, k)
			}
		}
		rl.lookups = 0
	}
	rl.lastSeen[key] = now

	cutoff := now.Add(-rl.window)
	kept := rl.windows[key][:0]
	for _, ts := range rl.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.limit {
		rl.windows[key] = kept
		return false, 0, kept[0].Add(rl.window)
	}

	kept = append(kept, now)
	rl.windows[key] = kept
	return true, rl.limit - len(kept), kept[0].Add(rl.window)
}

// Handler enforces the limit on the wrapped route, emitting the standard
// X-RateLimit headers and a 429 with Retry-After when the window is full.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := VisitorID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, remaining, reset := rl.Allow(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests. Please wait before sending more messages.",
				"code":    "RATE_LIMIT",
			})
			return
		}

		c.Next()
	}
}
