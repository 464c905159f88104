package identity

import (
	"slices"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
)

// DefaultDisplayItems is the default table page size
const DefaultDisplayItems = 25

const maxProfileFieldLength = 120

// TrackerProfile holds the payout and contact details of a user
type TrackerProfile struct {
	ID                  int64
	UserID              int64
	MediawikiUsername   string
	ChapterUsername     string
	BankAccount         string
	OtherContact        string
	OtherIdentification string
	// MediawikiToken is the OAuth bearer token used for wiki edits on
	// behalf of the user. Never exposed through the API.
	MediawikiToken string
}

// NewTrackerProfile creates an empty profile for a user
func NewTrackerProfile(userID int64) *TrackerProfile {
	return &TrackerProfile{UserID: userID}
}

// Update replaces the user-editable profile fields
func (p *TrackerProfile) Update(bankAccount, otherContact, otherIdentification string) error {
	for _, v := range []string{bankAccount, otherContact, otherIdentification} {
		if len([]rune(v)) > maxProfileFieldLength {
			return shared.ErrInvalidInput.WithMessage("Profile fields cannot exceed 120 characters")
		}
	}
	p.BankAccount = bankAccount
	p.OtherContact = otherContact
	p.OtherIdentification = otherIdentification
	return nil
}

// IsChapterLinked reports whether the profile is linked to the chapter wiki
func (p *TrackerProfile) IsChapterLinked() bool {
	return p != nil && p.ChapterUsername != ""
}

// HasMediawikiToken reports whether wiki edits can be made for the user
func (p *TrackerProfile) HasMediawikiToken() bool {
	return p != nil && p.MediawikiToken != ""
}

// TrackerPreferences holds notification and display preferences
type TrackerPreferences struct {
	ID                 int64
	UserID             int64
	MutedAck           []string
	MutedNotifications []string
	EmailLanguage      string
	DisplayItems       int
}

// NewTrackerPreferences creates default preferences for a user
func NewTrackerPreferences(userID int64) *TrackerPreferences {
	return &TrackerPreferences{
		UserID:             userID,
		MutedAck:           []string{},
		MutedNotifications: []string{},
		EmailLanguage:      DefaultEmailLanguage,
		DisplayItems:       DefaultDisplayItems,
	}
}

// Update replaces the preferences
func (p *TrackerPreferences) Update(mutedAck, mutedNotifications []string, emailLanguage string, displayItems int) error {
	if emailLanguage == "" {
		emailLanguage = DefaultEmailLanguage
	}
	if !IsSupportedLanguage(emailLanguage) {
		return shared.ErrInvalidInput.WithMessage("Unsupported email language")
	}
	if displayItems <= 0 {
		return shared.ErrInvalidInput.WithMessage("Display items must be positive")
	}
	if mutedAck == nil {
		mutedAck = []string{}
	}
	if mutedNotifications == nil {
		mutedNotifications = []string{}
	}
	p.MutedAck = mutedAck
	p.MutedNotifications = mutedNotifications
	p.EmailLanguage = emailLanguage
	p.DisplayItems = displayItems
	return nil
}

// IsNotificationMuted reports whether notifications of type t are muted,
// either individually or by the global "muted" switch.
func (p *TrackerPreferences) IsNotificationMuted(t string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.MutedNotifications, t) || slices.Contains(p.MutedNotifications, "muted")
}

// IsAckMuted reports whether notifications about ack are muted
func (p *TrackerPreferences) IsAckMuted(ack string) bool {
	if p == nil || ack == "" {
		return false
	}
	return slices.Contains(p.MutedAck, ack)
}

// Language returns the email language, falling back to the default
func (p *TrackerPreferences) Language() string {
	if p == nil || p.EmailLanguage == "" {
		return DefaultEmailLanguage
	}
	return p.EmailLanguage
}
