// Package limiter throttles API traffic with a global token bucket plus one
// bucket per caller key.
package limiter

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gsarma/judgekit/internal/metrics"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	global *rate.Limiter
	rate   rate.Limit
	burst  int

	mu      sync.Mutex
	callers map[string]*entry
	now     func() time.Time
}

// New builds a limiter allowing globalRPS overall and perKeyRPS (with
// perKeyBurst) for each distinct key.
func New(globalRPS, perKeyRPS float64, perKeyBurst int) *RateLimiter {
	globalBurst := int(globalRPS) * 2
	if globalBurst < 1 {
		globalBurst = 1
	}
	return &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(globalRPS), globalBurst),
		rate:    rate.Limit(perKeyRPS),
		burst:   perKeyBurst,
		callers: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.global.Allow() {
		metrics.RateLimitHits.Inc()
		return false
	}
	if !rl.limiterFor(key).Allow() {
		metrics.RateLimitHits.Inc()
		return false
	}
	return true
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e, ok := rl.callers[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.callers[key] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Middleware rejects requests over the limit with 429. keyFn picks the
// bucket, typically the authenticated tenant.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(keyFn(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// Sweep drops buckets idle for longer than idle and returns how many remain.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idle)
	for k, e := range rl.callers {
		if e.lastSeen.Before(cutoff) {
			delete(rl.callers, k)
		}
	}
	return len(rl.callers)
}

// StartCleanup sweeps idle buckets every interval until ctx is cancelled.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Sweep(interval)
			}
		}
	}()
}
