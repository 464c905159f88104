package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// trackerExposeHeaders are readable by the tracker frontend. Document and
// export downloads carry their file name in Content-Disposition.
var trackerExposeHeaders = []string{RequestIDKey, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"}

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// NewCORSConfig builds the tracker policy from the configured http.cors_*
// lists. An empty origin list disables cross-origin access.
func NewCORSConfig(origins, methods, headers []string) CORSConfig {
	return CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    trackerExposeHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin,
// or "" when the origin may not read the response
func (cfg CORSConfig) allowedOrigin(origin string) string {
	if slices.Contains(cfg.AllowOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(cfg.AllowOrigins, origin) {
		return origin
	}
	return ""
}

// CORSWithConfig answers preflights with 204 and tags responses for allowed
// origins. Credentials are never allowed together with the wildcard.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		if allowed := cfg.allowedOrigin(c.GetHeader("Origin")); allowed != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDKey, requestID)
		c.Next()
	}
}

// SecurityConfig holds the security headers sent with every response
type SecurityConfig struct {
	// HSTSMaxAge in seconds; zero leaves the header out
	HSTSMaxAge        int
	CSP               string
	PermissionsPolicy string
}

// DefaultSecurityConfig allows the frontend to show Commons thumbnails and
// nothing else from outside
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		CSP: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data: https://upload.wikimedia.org; connect-src 'self'; " +
			"frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		PermissionsPolicy: "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
}

// SecureWithConfig adds security headers; empty fields are skipped
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge)
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cfg.CSP != "" {
			h.Set("Content-Security-Policy", cfg.CSP)
		}
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if cfg.PermissionsPolicy != "" {
			h.Set("Permissions-Policy", cfg.PermissionsPolicy)
		}
		c.Next()
	}
}
