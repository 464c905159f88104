package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.@+]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is a tracker account. Tickets, comments, acks and documents all
// point back to a user.
type User struct {
	shared.BaseEntity
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	Permissions  []Permission // Loaded by the repository
	LastLogin    *time.Time
}

// NewUser creates a new active user
func NewUser(username, email, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	user := &User{
		BaseEntity:  shared.NewBaseEntity(),
		Username:    strings.TrimSpace(username),
		IsActive:    true,
		Permissions: make([]Permission, 0),
	}
	if err := user.SetEmail(email); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// SetEmail sets the user's email; an empty email is allowed
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	u.Email = email
	return nil
}

// SetName sets the user's first and last name
func (u *User) SetName(first, last string) error {
	if len(first) > 150 || len(last) > 150 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 150 characters")
	}
	u.FirstName = strings.TrimSpace(first)
	u.LastName = strings.TrimSpace(last)
	return nil
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	return nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Deactivate disables the account. The user can no longer log in.
func (u *User) Deactivate() {
	u.IsActive = false
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLogin = &at
}

// IsAuthenticated reports whether u is a real, active account. Safe on nil.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != 0 && u.IsActive
}

// HasPerm reports whether the user holds perm. Superusers hold every
// permission; anonymous users hold none.
func (u *User) HasPerm(perm Permission) bool {
	if !u.IsAuthenticated() {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasPerms reports whether the user holds every listed permission
func (u *User) HasPerms(perms ...Permission) bool {
	for _, p := range perms {
		if !u.HasPerm(p) {
			return false
		}
	}
	return true
}

// IsSupervisor is a shortcut for the supervisor permission
func (u *User) IsSupervisor() bool {
	return u.HasPerm(PermSupervisor)
}

// FullName returns "first last", trimmed
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// String renders the user the way notifications and exports show it
func (u *User) String() string {
	if u == nil {
		return ""
	}
	return u.Username
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) > 150 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers and @/./+/-/_ characters")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
