package models

import (
	"encoding/json"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"gorm.io/datatypes"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Username     string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string `gorm:"type:varchar(254)"`
	FirstName    string `gorm:"type:varchar(150)"`
	LastName     string `gorm:"type:varchar(150)"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	IsActive     bool   `gorm:"not null"`
	IsStaff      bool   `gorm:"not null;default:false"`
	IsSuperuser  bool   `gorm:"not null;default:false"`
	LastLogin    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
// Note: Permissions must be loaded separately by the repository.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		IsStaff:      m.IsStaff,
		IsSuperuser:  m.IsSuperuser,
		Permissions:  make([]identity.Permission, 0),
		LastLogin:    m.LastLogin,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Username = u.Username
	m.Email = u.Email
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.PasswordHash = u.PasswordHash
	m.IsActive = u.IsActive
	m.IsStaff = u.IsStaff
	m.IsSuperuser = u.IsSuperuser
	m.LastLogin = u.LastLogin
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// UserPermissionModel grants one permission code to a user
type UserPermissionModel struct {
	UserID     int64  `gorm:"primaryKey"`
	Permission string `gorm:"type:varchar(64);primaryKey"`
}

// TableName returns the table name for GORM
func (UserPermissionModel) TableName() string {
	return "user_permissions"
}

// TrackerProfileModel is the persistence model for TrackerProfile
type TrackerProfileModel struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement"`
	UserID              int64  `gorm:"not null;uniqueIndex"`
	MediawikiUsername   string `gorm:"type:varchar(120)"`
	ChapterUsername     string `gorm:"type:varchar(120)"`
	BankAccount         string `gorm:"type:varchar(120)"`
	OtherContact        string `gorm:"type:varchar(120)"`
	OtherIdentification string `gorm:"type:varchar(120)"`
	MediawikiToken      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TrackerProfileModel) TableName() string {
	return "tracker_profiles"
}

// ToDomain converts the persistence model to a domain TrackerProfile
func (m *TrackerProfileModel) ToDomain() *identity.TrackerProfile {
	return &identity.TrackerProfile{
		ID:                  m.ID,
		UserID:              m.UserID,
		MediawikiUsername:   m.MediawikiUsername,
		ChapterUsername:     m.ChapterUsername,
		BankAccount:         m.BankAccount,
		OtherContact:        m.OtherContact,
		OtherIdentification: m.OtherIdentification,
		MediawikiToken:      m.MediawikiToken,
	}
}

// TrackerProfileModelFromDomain creates a persistence model from a profile
func TrackerProfileModelFromDomain(p *identity.TrackerProfile) *TrackerProfileModel {
	return &TrackerProfileModel{
		ID:                  p.ID,
		UserID:              p.UserID,
		MediawikiUsername:   p.MediawikiUsername,
		ChapterUsername:     p.ChapterUsername,
		BankAccount:         p.BankAccount,
		OtherContact:        p.OtherContact,
		OtherIdentification: p.OtherIdentification,
		MediawikiToken:      p.MediawikiToken,
	}
}

// TrackerPreferencesModel is the persistence model for TrackerPreferences.
// The muted lists are stored as JSON arrays.
type TrackerPreferencesModel struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement"`
	UserID             int64          `gorm:"not null;uniqueIndex"`
	MutedAck           datatypes.JSON `gorm:"not null"`
	MutedNotifications datatypes.JSON `gorm:"not null"`
	EmailLanguage      string         `gorm:"type:varchar(10);not null;default:'cs'"`
	DisplayItems       int            `gorm:"not null;default:25"`
}

// TableName returns the table name for GORM
func (TrackerPreferencesModel) TableName() string {
	return "tracker_preferences"
}

// ToDomain converts the persistence model to domain preferences
func (m *TrackerPreferencesModel) ToDomain() *identity.TrackerPreferences {
	return &identity.TrackerPreferences{
		ID:                 m.ID,
		UserID:             m.UserID,
		MutedAck:           decodeStrings(m.MutedAck),
		MutedNotifications: decodeStrings(m.MutedNotifications),
		EmailLanguage:      m.EmailLanguage,
		DisplayItems:       m.DisplayItems,
	}
}

// TrackerPreferencesModelFromDomain creates a persistence model from preferences
func TrackerPreferencesModelFromDomain(p *identity.TrackerPreferences) *TrackerPreferencesModel {
	return &TrackerPreferencesModel{
		ID:                 p.ID,
		UserID:             p.UserID,
		MutedAck:           encodeStrings(p.MutedAck),
		MutedNotifications: encodeStrings(p.MutedNotifications),
		EmailLanguage:      p.EmailLanguage,
		DisplayItems:       p.DisplayItems,
	}
}

func encodeStrings(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func decodeStrings(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}
