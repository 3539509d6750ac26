package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter is a per-IP token-bucket rate limiter for the scoring endpoints.
// Single-process and in-memory; one bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	maxIdle  time.Duration
	lastSeen map[string]time.Time
}

type bucket struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing perMinute requests per IP with a
// 2x burst, and starts the idle-bucket sweeper.
func NewLimiter(perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute * 2,
		maxIdle:  10 * time.Minute,
		lastSeen: make(map[string]time.Time),
	}
	go l.cleanup()
	return l
}

// Allow reports whether the IP may proceed.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	b, exists := l.buckets[ip]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	l.lastSeen[ip] = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.maxIdle)
		l.mu.Lock()
		for ip, seen := range l.lastSeen {
			if seen.Before(cutoff) {
				delete(l.buckets, ip)
				delete(l.lastSeen, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-limit clients with 429 before any handler runs.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
