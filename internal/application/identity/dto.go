package identity

import (
	"time"

	trackerapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// RegisterInput contains the input for self-registration
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserResponse
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID   int64
	TokenJTI string
	// ExpiresAt bounds how long the revocation must be remembered
	ExpiresAt time.Time
}

// UserResponse is a user as shown by the API. Email is only filled for
// staff viewers and the user themselves.
type UserResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	DateJoined  time.Time  `json:"date_joined"`
}

// UserDetail adds the activity totals to a user
type UserDetail struct {
	UserResponse
	Totals *trackerapp.UserTotals `json:"totals,omitempty"`
}

// UserListFilter selects users for the list endpoint
type UserListFilter struct {
	Keyword  string
	Page     int
	PageSize int
}

// UserListResult represents paginated user list result
type UserListResult struct {
	Users      []UserResponse `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// ProfileResponse is a tracker profile. The wiki token is never exposed.
type ProfileResponse struct {
	UserID              int64  `json:"user"`
	MediawikiUsername   string `json:"mediawiki_username"`
	ChapterUsername     string `json:"chapter_username"`
	BankAccount         string `json:"bank_account"`
	OtherContact        string `json:"other_contact"`
	OtherIdentification string `json:"other_identification"`
	HasMediawikiToken   bool   `json:"has_mediawiki_token"`
}

// UpdateProfileRequest holds the editable profile fields
type UpdateProfileRequest struct {
	BankAccount         string `json:"bank_account" binding:"max=120"`
	OtherContact        string `json:"other_contact" binding:"max=120"`
	OtherIdentification string `json:"other_identification" binding:"max=120"`
}

// PreferencesResponse is a user's notification and display preferences
type PreferencesResponse struct {
	UserID             int64    `json:"user"`
	MutedAck           []string `json:"muted_ack"`
	MutedNotifications []string `json:"muted_notifications"`
	EmailLanguage      string   `json:"email_language"`
	DisplayItems       int      `json:"display_items"`
}

// UpdatePreferencesRequest replaces the preferences
type UpdatePreferencesRequest struct {
	MutedAck           []string `json:"muted_ack"`
	MutedNotifications []string `json:"muted_notifications"`
	EmailLanguage      string   `json:"email_language"`
	DisplayItems       int      `json:"display_items" binding:"omitempty,min=1,max=1000"`
}

// ToUserResponse converts a user. Staff viewers and the user themselves
// see the email and permissions.
func ToUserResponse(u *identity.User, viewer *identity.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		DateJoined:  u.CreatedAt,
	}
	if canSeePrivate(viewer, u) {
		resp.Email = u.Email
		resp.Permissions = make([]string, 0, len(u.Permissions))
		for _, p := range u.Permissions {
			resp.Permissions = append(resp.Permissions, string(p))
		}
	}
	return resp
}

func toProfileResponse(p *identity.TrackerProfile) ProfileResponse {
	return ProfileResponse{
		UserID:              p.UserID,
		MediawikiUsername:   p.MediawikiUsername,
		ChapterUsername:     p.ChapterUsername,
		BankAccount:         p.BankAccount,
		OtherContact:        p.OtherContact,
		OtherIdentification: p.OtherIdentification,
		HasMediawikiToken:   p.HasMediawikiToken(),
	}
}

func toPreferencesResponse(p *identity.TrackerPreferences) PreferencesResponse {
	return PreferencesResponse{
		UserID:             p.UserID,
		MutedAck:           p.MutedAck,
		MutedNotifications: p.MutedNotifications,
		EmailLanguage:      p.Language(),
		DisplayItems:       p.DisplayItems,
	}
}

func canSeePrivate(viewer, u *identity.User) bool {
	if !viewer.IsAuthenticated() {
		return false
	}
	return viewer.ID == u.ID || viewer.IsStaff || viewer.IsSuperuser
}
