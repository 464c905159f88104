package identity

import (
	"context"
	"errors"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	ErrUsernameTaken      = shared.ErrAlreadyExists.WithMessage("A user with that username already exists.")
)

// AuthService handles registration and token issuing
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. blacklist may be
// nil, in which case logout only drops the tokens client side.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an account and logs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}
	user, err := identity.NewUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetName(input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	user.CreatedAt = s.now()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(ctx, user, "")
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("User not found during login", zap.String("username", input.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Warn("Login attempt for inactive account", zap.String("username", input.Username))
		return nil, ErrAccountInactive
	}
	return s.issue(ctx, user, input.IP)
}

func (s *AuthService) issue(ctx context.Context, user *identity.User, ip string) (*LoginResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff || user.IsSuperuser,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLogin(s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the tokens are valid either way
		s.logger.Error("Failed to record login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("ip", ip))

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserResponse(user, user),
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The user must
// still be active.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, mapTokenError(auth.ErrTokenBlacklisted)
		}
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrAccountInactive
		}
		return nil, err
	}
	if !user.IsActive {
		s.logger.Warn("Token refresh for inactive user", zap.Int64("user_id", user.ID))
		return nil, ErrAccountInactive
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken, user.IsStaff || user.IsSuperuser)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	return &RefreshTokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout revokes the access token it was called with
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.Int64("user_id", input.UserID))
	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := input.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl)
}

// RevokeAll invalidates every token issued to the user so far
func (s *AuthService) RevokeAll(ctx context.Context, userID int64) error {
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.AddUserTokensToBlacklist(ctx, userID, s.jwtService.GetRefreshTokenExpiration())
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
