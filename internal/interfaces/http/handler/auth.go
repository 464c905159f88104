package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login godoc
// @Summary      User login
// @Description  Authenticate user with username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toLoginResponse(result))
}

// Register godoc
// @Summary      Register an account
// @Description  Create a user account and log it in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Account details"
// @Success      201 {object} APIResponse[LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), appidentity.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLoginResponse(result))
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Get new access token using refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} APIResponse[RefreshTokenResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshTokenResponse{
		Token: TokenResponse{
			AccessToken:           result.AccessToken,
			RefreshToken:          result.RefreshToken,
			AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
			TokenType:             result.TokenType,
		},
	})
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the access token of the request
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		UserID:    claims.UserID,
		TokenJTI:  claims.ID,
		ExpiresAt: claims.GetExpiresAtTime(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// LogoutAll godoc
// @Summary      Log out everywhere
// @Description  Revoke every token issued to the caller so far
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	if err := h.authService.RevokeAll(c.Request.Context(), user.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "All sessions revoked"})
}
