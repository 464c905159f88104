package tracker

import (
	"time"
)

// AckType is a workflow acknowledgement recorded on a ticket
type AckType string

const (
	AckUserPrecontent AckType = "user_precontent"
	AckPrecontent     AckType = "precontent"
	AckUserContent    AckType = "user_content"
	AckContent        AckType = "content"
	AckUserDocs       AckType = "user_docs"
	AckDocs           AckType = "docs"
	AckArchive        AckType = "archive"
	AckClose          AckType = "close"
)

var ackDisplayNames = map[AckType]string{
	AckUserPrecontent: "presubmitted",
	AckPrecontent:     "preaccepted",
	AckUserContent:    "submitted",
	AckContent:        "accepted",
	AckUserDocs:       "expense documents submitted",
	AckDocs:           "expense documents filed",
	AckArchive:        "archived",
	AckClose:          "closed",
}

// AllAckTypes returns every ack type in workflow order
func AllAckTypes() []AckType {
	return []AckType{
		AckUserPrecontent,
		AckPrecontent,
		AckUserContent,
		AckContent,
		AckUserDocs,
		AckDocs,
		AckArchive,
		AckClose,
	}
}

// UserEditableAckTypes are the acks a requester may add and remove
func UserEditableAckTypes() []AckType {
	return []AckType{AckUserPrecontent, AckUserContent, AckUserDocs}
}

// WaitNeededAckTypes need TRACKER_MIN_WAIT_DAYS to pass after the
// matching user ack before they can be added.
func WaitNeededAckTypes() []AckType {
	return []AckType{AckPrecontent, AckContent}
}

// IsValid reports whether a is a known ack type
func (a AckType) IsValid() bool {
	_, ok := ackDisplayNames[a]
	return ok
}

// Display returns the english display name
func (a AckType) Display() string {
	if name, ok := ackDisplayNames[a]; ok {
		return name
	}
	return string(a)
}

// IsUserEditable reports whether the requester may add or remove a
func (a AckType) IsUserEditable() bool {
	for _, t := range UserEditableAckTypes() {
		if t == a {
			return true
		}
	}
	return false
}

// NeedsWait reports whether a is subject to the minimum wait period
func (a AckType) NeedsWait() bool {
	return a == AckPrecontent || a == AckContent
}

// Uber returns the admin ack that supersedes a user-editable ack
func (a AckType) Uber() (AckType, bool) {
	switch a {
	case AckUserPrecontent:
		return AckPrecontent, true
	case AckUserContent:
		return AckContent, true
	case AckUserDocs:
		return AckDocs, true
	}
	return "", false
}

// UserAck returns the user_ counterpart of a wait-needed ack
func (a AckType) UserAck() AckType {
	return AckType("user_" + string(a))
}

// TicketAck is an ack flag set on a ticket
type TicketAck struct {
	ID        int64
	TicketID  int64
	AckType   AckType
	Added     time.Time
	AddedByID *int64
	AddedBy   string // username of AddedByID, filled by the repository
	Comment   string
}

// NewTicketAck creates an ack added by user (nil for system operations)
func NewTicketAck(ticketID int64, ackType AckType, addedBy *int64, comment string, now time.Time) (*TicketAck, error) {
	if !ackType.IsValid() {
		return nil, ErrUnknownAckType
	}
	if len([]rune(comment)) > 255 {
		return nil, ErrInvalidTicket.WithMessage("Ack comment cannot exceed 255 characters")
	}
	return &TicketAck{
		TicketID:  ticketID,
		AckType:   ackType,
		Added:     now,
		AddedByID: addedBy,
		Comment:   comment,
	}, nil
}

// UserRemovable reports whether the requester may remove the ack
func (a *TicketAck) UserRemovable() bool {
	return a.AckType.IsUserEditable()
}

// PossibleAck is an ack the requester may add to a ticket
type PossibleAck struct {
	AckType AckType `json:"ack_type"`
	Display string  `json:"display"`
}

// NewPossibleAck wraps a known ack type
func NewPossibleAck(ackType AckType) (PossibleAck, error) {
	if !ackType.IsValid() {
		return PossibleAck{}, ErrUnknownAckType
	}
	return PossibleAck{AckType: ackType, Display: ackType.Display()}, nil
}
