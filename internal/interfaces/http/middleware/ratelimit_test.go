package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to the limit then refuse", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("tokens refill over the window", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)
		assert.True(t, limiter.Allow("10.0.0.3"))
		assert.True(t, limiter.Allow("10.0.0.3"))
		assert.False(t, limiter.Allow("10.0.0.3"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, limiter.Allow("10.0.0.3"))
	})

	t.Run("remaining counts down", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("10.0.0.4"))
		limiter.Allow("10.0.0.4")
		limiter.Allow("10.0.0.4")
		assert.Equal(t, 3, limiter.Remaining("10.0.0.4"))
	})

	t.Run("concurrent requests from one client", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("10.0.0.5") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 100, allowed.Load())
	})
}

func serve(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_TicketAPI(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	router := gin.New()
	router.Use(RequestID(), RateLimit(limiter))
	router.GET("/api/v1/tickets", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse([]string{}))
	})

	w := serve(router, http.MethodGet, "/api/v1/tickets", "192.0.2.10:5000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/tickets", "192.0.2.10:5000").Code)

	w = serve(router, http.MethodGet, "/api/v1/tickets", "192.0.2.10:5000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), dto.ErrCodeRateLimited)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/tickets", "192.0.2.11:5000").Code)
}

func TestAuthRateLimit(t *testing.T) {
	newRouter := func(global, auth *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(global))
		ok := func(c *gin.Context) { c.JSON(http.StatusOK, dto.NewSuccessResponse(nil)) }
		router.POST("/api/v1/auth/login", AuthRateLimit(auth), ok)
		router.POST("/api/v1/auth/register", AuthRateLimit(auth), ok)
		router.GET("/api/v1/tickets", ok)
		return router
	}

	t.Run("login attempts are capped per client", func(t *testing.T) {
		router := newRouter(NewRateLimiter(100, time.Minute), NewRateLimiter(3, time.Minute))
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.7:4000").Code)
		}

		w := serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.7:4000")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "20", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")

		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.8:4000").Code)
	})

	t.Run("registration shares the login budget", func(t *testing.T) {
		router := newRouter(NewRateLimiter(100, time.Minute), NewRateLimiter(1, time.Minute))
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.9:4000").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/api/v1/auth/register", "198.51.100.9:4000").Code)
	})

	t.Run("exhausted login budget leaves ticket reads alone", func(t *testing.T) {
		router := newRouter(NewRateLimiter(100, time.Minute), NewRateLimiter(1, time.Minute))
		serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.10:4000")
		require.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/api/v1/auth/login", "198.51.100.10:4000").Code)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/tickets", "198.51.100.10:4000").Code)
	})
}
