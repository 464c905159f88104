package identity

import (
	"context"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user together with its profile and preferences
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByIDs finds users by ID; missing ids are skipped
	FindByIDs(ctx context.Context, ids []int64) ([]*User, error)

	// FindByUsername finds a user by exact username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByUsernames finds users by username; unknown names are skipped
	FindByUsernames(ctx context.Context, usernames []string) ([]*User, error)

	// FindAll returns users with pagination
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// FindStaff returns active staff users
	FindStaff(ctx context.Context) ([]*User, error)

	// FindSuperusers returns active superusers
	FindSuperusers(ctx context.Context) ([]*User, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SetPermissions replaces the user's direct permissions
	SetPermissions(ctx context.Context, userID int64, perms []Permission) error
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	Keyword    string
	ActiveOnly bool
	Page       int
	PageSize   int
}

// ProfileRepository persists tracker profiles and preferences
type ProfileRepository interface {
	FindProfile(ctx context.Context, userID int64) (*TrackerProfile, error)
	SaveProfile(ctx context.Context, profile *TrackerProfile) error
	FindPreferences(ctx context.Context, userID int64) (*TrackerPreferences, error)
	FindPreferencesFor(ctx context.Context, userIDs []int64) (map[int64]*TrackerPreferences, error)
	SavePreferences(ctx context.Context, prefs *TrackerPreferences) error
}
