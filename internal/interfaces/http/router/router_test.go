package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	r.Register(group)

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	// Test the route was registered
	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("tickets", "/tickets")
		assert.Equal(t, "tickets", g.Name())
		assert.Equal(t, "/tickets", g.Prefix())
	})

	t.Run("registers GET route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers POST route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.POST("/items", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("POST", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("registers PUT route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PUT("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "updated")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PUT", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers PATCH route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PATCH("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "patched")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PATCH", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers DELETE route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.DELETE("/items/:id", func(c *gin.Context) {
			c.String(http.StatusNoContent, "")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("DELETE", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")

		// Add middleware that sets a header
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})

		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("tickets", "/tickets")

		acks := g.Group("acks", "/acks")
		acks.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "acks list")
		})

		media := g.Group("media", "/media")
		media.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "media list")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		// Test acks route
		req1 := httptest.NewRequest("GET", "/api/v1/tickets/acks", nil)
		w1 := httptest.NewRecorder()
		engine.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "acks list", w1.Body.String())

		// Test media route
		req2 := httptest.NewRequest("GET", "/api/v1/tickets/media", nil)
		w2 := httptest.NewRecorder()
		engine.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "media list", w2.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	tickets := NewDomainGroup("tickets", "/tickets")
	tickets.GET("/acks", func(c *gin.Context) {
		c.String(http.StatusOK, "acks")
	})

	grants := NewDomainGroup("grants", "/grants")
	grants.GET("/topics", func(c *gin.Context) {
		c.String(http.StatusOK, "topics")
	})

	r.Register(tickets).Register(grants)
	r.Setup()

	// Test tickets route
	req1 := httptest.NewRequest("GET", "/api/v1/tickets/acks", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "acks", w1.Body.String())

	// Test grants route
	req2 := httptest.NewRequest("GET", "/api/v1/grants/topics", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "topics", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		PUT("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	// All routes should be registered
	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "v1")
		c.Next()
	})

	g := NewDomainGroup("grants", "/grants")
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "grants") })
	r.Register(g)
	api := r.Setup()
	assert.Equal(t, "/api/v1", api.BasePath())

	// outside the API group
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/grants", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroupRoutes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewDomainGroup("tickets", "/tickets")
	g.GET("", noop).POST("/:id/acks", noop)
	g.Group("media", "/media").GET("/:id", noop)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/tickets"},
		{Method: http.MethodPost, Path: "/tickets/:id/acks"},
		{Method: http.MethodGet, Path: "/tickets/media/:id"},
	}, g.Routes())
}
