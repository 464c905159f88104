package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/auth"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/logger"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	CurrentUserKey = "current_user"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

var (
	errMissingToken = errors.New("missing bearer token")
	errUserInactive = errors.New("user is not active")
)

// UserLoader loads the user a token was issued for
type UserLoader interface {
	FindByID(ctx context.Context, id int64) (*identity.User, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Users loads the current user so permission changes apply immediately
	Users UserLoader
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// Optional lets requests without a token through as anonymous. A token
	// that is present must still be valid.
	Optional bool
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService, users UserLoader) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		Users:      users,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/register",
			"/api/v1/auth/refresh",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService, users UserLoader) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService, users))
}

// OptionalJWTAuthMiddleware authenticates when a token is sent and lets
// anonymous requests through otherwise
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService, users UserLoader) gin.HandlerFunc {
	cfg := DefaultJWTConfig(jwtService, users)
	cfg.Optional = true
	return JWTAuthMiddlewareWithConfig(cfg)
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			if cfg.Optional {
				c.Next()
				return
			}
			handleAuthError(c, cfg, errMissingToken, "Missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			// Individual logout
			if claims.ID != "" {
				blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
				if err != nil {
					// Fail open for availability
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check token blacklist",
							zap.String("jti", claims.ID),
							zap.Error(err))
					}
				} else if blacklisted {
					handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
					return
				}
			}

			// Deactivation and forced logout
			invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check user token invalidation",
						zap.Int64("user_id", claims.UserID),
						zap.Error(err))
				}
			} else if invalidated {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "User session has been invalidated")
				return
			}
		}

		user, err := cfg.Users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Token user not found")
			return
		}
		if !user.IsActive {
			handleAuthError(c, cfg, errUserInactive, "Token user is not active")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(CurrentUserKey, user)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.Int64("user_id", claims.UserID),
				zap.String("username", claims.Username),
			)
		}

		c.Next()
	}
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := dto.ErrCodeUnauthorized
	errorMessage := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode = dto.ErrCodeTokenExpired
		errorMessage = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode = dto.ErrCodeTokenInvalid
		errorMessage = "Invalid token"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		errorCode = dto.ErrCodeTokenRevoked
		errorMessage = "Token has been revoked"
	case errors.Is(err, errUserInactive):
		errorCode = dto.ErrCodeAccountInactive
		errorMessage = "Account is not active"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(errorCode, errorMessage, getRequestIDFromContext(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context. It is 0
// for anonymous requests.
func GetJWTUserID(c *gin.Context) int64 {
	if userID, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := userID.(int64); ok {
			return id
		}
	}
	return 0
}

// GetCurrentUser returns the authenticated user, or nil for anonymous
// requests
func GetCurrentUser(c *gin.Context) *identity.User {
	if v, exists := c.Get(CurrentUserKey); exists {
		if u, ok := v.(*identity.User); ok {
			return u
		}
	}
	return nil
}

// SetCurrentUser stores the authenticated user. Tests use it to skip token
// handling.
func SetCurrentUser(c *gin.Context, user *identity.User) {
	c.Set(CurrentUserKey, user)
	if user != nil {
		c.Set(JWTUserIDKey, user.ID)
	}
}
