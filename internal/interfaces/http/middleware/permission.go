package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, required []identity.Permission)
}

// UserCheck decides whether the current user may proceed. The user is nil
// for anonymous requests.
type UserCheck func(user *identity.User) bool

// IsSafeMethod reports whether method only reads
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetCurrentUser(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", getRequestIDFromContext(c)))
			return
		}
		c.Next()
	}
}

// AuthenticatedOrReadOnly lets anyone read and requires a user for writes
func AuthenticatedOrReadOnly() gin.HandlerFunc {
	requireAuth := RequireAuth()
	return func(c *gin.Context) {
		if IsSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		requireAuth(c)
	}
}

// ReadOnly allows safe methods only
func ReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsSafeMethod(c.Request.Method) {
			handlePermissionDenied(c, PermissionConfig{}, nil, "Read only resource")
			return
		}
		c.Next()
	}
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission identity.Permission) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...identity.Permission) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig creates middleware that requires any of the specified permissions with custom config
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		for _, p := range permissions {
			if user.HasPerm(p) {
				c.Next()
				return
			}
		}
		handlePermissionDenied(c, cfg, permissions, "User lacks required permission")
	}
}

// RequireAllPermissions creates middleware that requires all of the specified permissions
func RequireAllPermissions(permissions ...identity.Permission) gin.HandlerFunc {
	return RequireAllPermissionsWithConfig(PermissionConfig{}, permissions...)
}

// RequireAllPermissionsWithConfig creates middleware that requires all permissions with custom config
func RequireAllPermissionsWithConfig(cfg PermissionConfig, permissions ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetCurrentUser(c).HasPerms(permissions...) {
			handlePermissionDenied(c, cfg, permissions, "User lacks one or more required permissions")
			return
		}
		c.Next()
	}
}

// RequireStaff allows staff members and superusers
func RequireStaff() gin.HandlerFunc {
	return RequireCheck(func(u *identity.User) bool {
		return u.IsAuthenticated() && (u.IsStaff || u.IsSuperuser)
	})
}

// RequireSuperuser allows superusers only
func RequireSuperuser() gin.HandlerFunc {
	return RequireCheck(func(u *identity.User) bool {
		return u.IsAuthenticated() && u.IsSuperuser
	})
}

// SafeMethodsOr lets reads through and applies check to writes
func SafeMethodsOr(check UserCheck) gin.HandlerFunc {
	requireCheck := RequireCheck(check)
	return func(c *gin.Context) {
		if IsSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		requireCheck(c)
	}
}

// RequireCheck creates middleware with a custom user check
func RequireCheck(check UserCheck) gin.HandlerFunc {
	return RequireCheckWithConfig(check, PermissionConfig{})
}

// RequireCheckWithConfig creates custom check middleware with config
func RequireCheckWithConfig(check UserCheck, cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !check(GetCurrentUser(c)) {
			handlePermissionDenied(c, cfg, nil, "Custom permission check failed")
			return
		}
		c.Next()
	}
}

// handlePermissionDenied answers 401 for anonymous users and 403 otherwise
func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, required []identity.Permission, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	user := GetCurrentUser(c)
	if cfg.Logger != nil {
		perms := make([]string, 0, len(required))
		for _, p := range required {
			perms = append(perms, string(p))
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.Int64("user_id", GetJWTUserID(c)),
			zap.Strings("required_permissions", perms),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	requestID := getRequestIDFromContext(c)
	if !user.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", requestID))
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Access denied: insufficient permissions", requestID))
}
