package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObservedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	l := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-abc")
		c.Next()
	})
	r.Use(Recovery(l), GinMiddleware(l))
	return r, logs
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs successful request at info", func(t *testing.T) {
		r, logs := newObservedRouter(zapcore.DebugLevel)
		r.GET("/api/v1/tickets", func(c *gin.Context) {
			assert.Equal(t, "req-abc", GetRequestID(c.Request.Context()))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets?page=2", nil))

		entries := logs.FilterMessage("HTTP Request").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-abc", fields["request_id"])
		assert.Equal(t, "page=2", fields["query"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
	})

	t.Run("client errors log at warn and server errors at error", func(t *testing.T) {
		r, logs := newObservedRouter(zapcore.DebugLevel)
		r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
		r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

		entries := logs.FilterMessage("HTTP Request").All()
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	})

	t.Run("handlers get the request logger", func(t *testing.T) {
		r, logs := newObservedRouter(zapcore.DebugLevel)
		r.GET("/x", func(c *gin.Context) {
			GetGinLogger(c).Info("inside")
			c.Status(http.StatusNoContent)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, "req-abc", logs.FilterMessage("inside").All()[0].ContextMap()["request_id"])
	})
}

func TestRecovery(t *testing.T) {
	r, logs := newObservedRouter(zapcore.DebugLevel)
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
