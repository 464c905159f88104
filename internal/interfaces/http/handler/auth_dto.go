package handler

import (
	"time"

	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
)

// =====================
// Auth Request DTOs
// =====================

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

// RegisterRequest represents the request body for self-registration
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token TokenResponse            `json:"token"`
	User  appidentity.UserResponse `json:"user"`
}

// RefreshTokenResponse represents the response body for token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

func toLoginResponse(r *appidentity.LoginResult) LoginResponse {
	return LoginResponse{
		Token: TokenResponse{
			AccessToken:           r.AccessToken,
			RefreshToken:          r.RefreshToken,
			AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
			TokenType:             r.TokenType,
		},
		User: r.User,
	}
}
