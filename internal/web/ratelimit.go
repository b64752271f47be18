package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig configures the per-IP rate limiter.
type RateLimitConfig struct {
	// RPS is the steady-state requests per second per client IP.
	RPS int
	// Burst is the maximum burst size; zero means 2×RPS.
	Burst int
	// CleanupInterval is how often stale per-IP buckets are dropped;
	// zero means 5 minutes. Buckets idle for two intervals are removed.
	CleanupInterval time.Duration
}

// RateLimiter returns a Gin middleware enforcing per-IP token-bucket rate
// limiting. Rejections are logged at warn level so a noisy client shows
// up in the service logs, not just in its own 429s.
func RateLimiter(cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RPS * 2
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	var mu sync.Mutex
	limiters := make(map[string]*ipLimiter)

	// Background cleanup goroutine.
	go func() {
		for {
			time.Sleep(cfg.CleanupInterval)
			mu.Lock()
			for ip, l := range limiters {
				if time.Since(l.lastSeen) > 2*cfg.CleanupInterval {
					delete(limiters, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			limiters[ip] = l
		}
		l.lastSeen = time.Now()
		mu.Unlock()

		if !l.limiter.Allow() {
			logger.Warn("rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
