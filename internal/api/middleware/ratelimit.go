package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores the token bucket of one client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware keeps a token bucket per client IP.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiterMiddleware creates the limiter from the configured bucket size and refill rate.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	return newRateLimiter(cfg.RateLimitRefillRate, cfg.RateLimitBucketSize)
}

// NewStrictRateLimiter is a separate, tighter limiter for credential endpoints.
func NewStrictRateLimiter(perMinute int) *RateLimiterMiddleware {
	rm := newRateLimiter(1, perMinute)
	rm.limit = rate.Every(time.Minute / time.Duration(max(perMinute, 1)))
	return rm
}

func newRateLimiter(refillPerSecond, burst int) *RateLimiterMiddleware {
	if burst <= 0 {
		burst = 1
	}
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(refillPerSecond),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	if refillPerSecond <= 0 {
		rm.limit = rate.Inf
	}
	go rm.cleanupClients()
	return rm
}

// Close stops the background cleanup.
func (rm *RateLimiterMiddleware) Close() {
	rm.once.Do(func() { close(rm.stop) })
}

func (rm *RateLimiterMiddleware) getClientLimiter(key string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.limit, rm.burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rm *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
			rm.evictIdle(time.Now())
		}
	}
}

func (rm *RateLimiterMiddleware) evictIdle(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for key, cl := range rm.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTimeout {
			delete(rm.clients, key)
			count++
		}
	}
	if count > 0 {
		config.GetLogger().WithField("evicted", count).Debug("rate limiter cleanup")
	}
	return count
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rm.getClientLimiter(key)
		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			config.GetLogger().WithFields(map[string]any{
				"client": key,
				"path":   c.FullPath(),
			}).Warn("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
