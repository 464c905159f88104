package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
)

// UserHandler serves users, tracker profiles and preferences
type UserHandler struct {
	BaseHandler
	userService *appidentity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *appidentity.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsersQuery represents the query parameters for listing users
type ListUsersQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Me godoc
// @ID           getCurrentUser
// @Summary      Get the current user
// @Description  Returns the calling user with their ticket totals
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[appidentity.UserDetail]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	detail, err := h.userService.Me(c.Request.Context(), user)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Description  Paginated list of active users. Staff also see emails.
// @Tags         users
// @Produce      json
// @Param        search query string false "Username or name fragment"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(25) maximum(100)
// @Success      200 {object} APIResponse[[]appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var query ListUsersQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.userService.List(c.Request.Context(), currentUser(c), appidentity.UserListFilter{
		Keyword:  query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Users, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getUser
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} APIResponse[appidentity.UserDetail]
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.userService.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// GetByUsername godoc
// @ID           getUserByUsername
// @Summary      Get a user by username
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} APIResponse[appidentity.UserDetail]
// @Failure      404 {object} ErrorResponse
// @Router       /users/by-username/{username} [get]
func (h *UserHandler) GetByUsername(c *gin.Context) {
	detail, err := h.userService.GetByUsername(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// GetMyProfile godoc
// @ID           getMyTrackerProfile
// @Summary      Get the caller's tracker profile
// @Tags         trackerprofile
// @Produce      json
// @Success      200 {object} APIResponse[appidentity.ProfileResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerprofile/me [get]
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	h.getProfile(c, user.ID)
}

// GetProfile godoc
// @ID           getTrackerProfile
// @Summary      Get a tracker profile
// @Description  Readable by the user and holders of change_trackerprofile
// @Tags         trackerprofile
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} APIResponse[appidentity.ProfileResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerprofile/{id} [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	h.getProfile(c, id)
}

func (h *UserHandler) getProfile(c *gin.Context, userID int64) {
	profile, err := h.userService.GetProfile(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateMyProfile godoc
// @ID           updateMyTrackerProfile
// @Summary      Update the caller's tracker profile
// @Tags         trackerprofile
// @Accept       json
// @Produce      json
// @Param        request body appidentity.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} APIResponse[appidentity.ProfileResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerprofile/me [put]
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	h.updateProfile(c, user.ID)
}

// UpdateProfile godoc
// @ID           updateTrackerProfile
// @Summary      Update a tracker profile
// @Tags         trackerprofile
// @Accept       json
// @Produce      json
// @Param        id path int true "User ID"
// @Param        request body appidentity.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} APIResponse[appidentity.ProfileResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerprofile/{id} [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	h.updateProfile(c, id)
}

func (h *UserHandler) updateProfile(c *gin.Context, userID int64) {
	var req appidentity.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	profile, err := h.userService.UpdateProfile(c.Request.Context(), currentUser(c), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GetPreferences godoc
// @ID           getTrackerPreferences
// @Summary      Get the caller's preferences
// @Tags         trackerpreferences
// @Produce      json
// @Success      200 {object} APIResponse[appidentity.PreferencesResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerpreferences [get]
func (h *UserHandler) GetPreferences(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	prefs, err := h.userService.GetPreferences(c.Request.Context(), user)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}

// UpdatePreferences godoc
// @ID           updateTrackerPreferences
// @Summary      Replace the caller's preferences
// @Tags         trackerpreferences
// @Accept       json
// @Produce      json
// @Param        request body appidentity.UpdatePreferencesRequest true "Preferences"
// @Success      200 {object} APIResponse[appidentity.PreferencesResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trackerpreferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	var req appidentity.UpdatePreferencesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	prefs, err := h.userService.UpdatePreferences(c.Request.Context(), user, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}

// Deactivate godoc
// @ID           deactivateAccount
// @Summary      Deactivate the caller's account
// @Description  Marks the account inactive and revokes its tokens
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/me/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	user, ok := h.RequireUser(c)
	if !ok {
		return
	}
	if err := h.userService.Deactivate(c.Request.Context(), user); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Account deactivated"})
}

// Languages godoc
// @ID           listLanguages
// @Summary      List interface languages
// @Tags         languages
// @Produce      json
// @Success      200 {object} APIResponse[[]identity.Language]
// @Router       /languages [get]
func (h *UserHandler) Languages(c *gin.Context) {
	h.Success(c, h.userService.Languages())
}
