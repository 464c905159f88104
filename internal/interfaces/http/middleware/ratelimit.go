package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. limit requests are
// allowed per window, refilled evenly.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*client
	limit       int
	window      time.Duration
	cleanupTick time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:     make(map[string]*client),
		limit:       limit,
		window:      window,
		cleanupTick: window * 2,
	}
	go rl.cleanup()
	return rl
}

// cleanup drops clients idle for more than two windows
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.window*2 {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) bucket(key string) *client {
	c, ok := rl.clients[key]
	if !ok {
		every := rl.window / time.Duration(max(rl.limit, 1))
		c = &client{limiter: rate.NewLimiter(rate.Every(every), rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c
}

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bucket(key).limiter.Allow()
}

// Remaining returns the number of whole requests left for the given key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	return max(int(c.limiter.Tokens()), 0)
}

// retryAfter is the time one token takes to refill, in whole seconds
func (rl *RateLimiter) retryAfter() string {
	every := rl.window / time.Duration(max(rl.limit, 1))
	return strconv.Itoa(int(math.Ceil(every.Seconds())))
}

func (rl *RateLimiter) setHeaders(c *gin.Context, key string) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		if !limiter.Allow(key) {
			c.Header("Retry-After", limiter.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests. Please try again later.", getRequestIDFromContext(c)))
			return
		}

		limiter.setHeaders(c, key)
		c.Next()
	}
}

// AuthRateLimit is a stricter per-IP limit for login and registration, to
// slow down password guessing.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "auth:" + c.ClientIP()

		if !limiter.Allow(key) {
			c.Header("Retry-After", limiter.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many authentication attempts. Please try again later.", getRequestIDFromContext(c)))
			return
		}

		limiter.setHeaders(c, key)
		c.Next()
	}
}
