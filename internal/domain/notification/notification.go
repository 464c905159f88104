package notification

import (
	"time"
)

// Type is the kind of event a notification reports
type Type string

const (
	TypeMuted                Type = "muted"
	TypeComment              Type = "comment"
	TypeSupervisorNotes      Type = "supervisor_notes"
	TypeTicketNew            Type = "ticket_new"
	TypeTicketDelete         Type = "ticket_delete"
	TypeAckAdd               Type = "ack_add"
	TypeAckRemove            Type = "ack_remove"
	TypeTicketChange         Type = "ticket_change"
	TypePreexpedituresNew    Type = "preexpeditures_new"
	TypePreexpedituresChange Type = "preexpeditures_change"
	TypeExpedituresNew       Type = "expeditures_new"
	TypeExpedituresChange    Type = "expeditures_change"
	TypeMediaNew             Type = "media_new"
	TypeMediaChange          Type = "media_change"
	TypeDocument             Type = "document"
)

var typeDisplay = map[Type]string{
	TypeMuted:                "All notifications",
	TypeComment:              "Comment added",
	TypeSupervisorNotes:      "Supervisor notes changed",
	TypeTicketNew:            "New ticket was created",
	TypeTicketDelete:         "Ticket was deleted",
	TypeAckAdd:               "Ack added",
	TypeAckRemove:            "Ack removed",
	TypeTicketChange:         "Ticket changed",
	TypePreexpedituresNew:    "New preexpediture was created",
	TypePreexpedituresChange: "Preexpeditures changed",
	TypeExpedituresNew:       "New expediture was created",
	TypeExpedituresChange:    "Expeditures changed",
	TypeMediaNew:             "New media was created",
	TypeMediaChange:          "Media changed",
	TypeDocument:             "Document changed",
}

// AllTypes returns every notification type in display order
func AllTypes() []Type {
	return []Type{
		TypeMuted,
		TypeComment,
		TypeSupervisorNotes,
		TypeTicketNew,
		TypeTicketDelete,
		TypeAckAdd,
		TypeAckRemove,
		TypeTicketChange,
		TypePreexpedituresNew,
		TypePreexpedituresChange,
		TypeExpedituresNew,
		TypeExpedituresChange,
		TypeMediaNew,
		TypeMediaChange,
		TypeDocument,
	}
}

// IsValid reports whether t is a known type
func (t Type) IsValid() bool {
	_, ok := typeDisplay[t]
	return ok
}

// Display returns the english display name
func (t Type) Display() string {
	if d, ok := typeDisplay[t]; ok {
		return d
	}
	return string(t)
}

// DigestGroup buckets notification types in the digest email
type DigestGroup string

const (
	GroupAck             DigestGroup = "ack"
	GroupTicketChange    DigestGroup = "ticket_change"
	GroupPreexpeditures  DigestGroup = "preexpeditures"
	GroupExpeditures     DigestGroup = "expeditures"
	GroupMedia           DigestGroup = "media"
	GroupTicketNew       DigestGroup = "ticket_new"
	GroupTicketDelete    DigestGroup = "ticket_delete"
	GroupComment         DigestGroup = "comment"
	GroupSupervisorNotes DigestGroup = "supervisor_notes"
	GroupOther           DigestGroup = "other"
)

// DigestGroups returns the groups in the order the digest lists them
func DigestGroups() []DigestGroup {
	return []DigestGroup{
		GroupAck,
		GroupTicketChange,
		GroupPreexpeditures,
		GroupExpeditures,
		GroupMedia,
		GroupTicketNew,
		GroupTicketDelete,
		GroupComment,
		GroupSupervisorNotes,
	}
}

// Group returns the digest group of t
func (t Type) Group() DigestGroup {
	switch t {
	case TypeAckAdd, TypeAckRemove:
		return GroupAck
	case TypeTicketChange:
		return GroupTicketChange
	case TypePreexpedituresNew, TypePreexpedituresChange:
		return GroupPreexpeditures
	case TypeExpedituresNew, TypeExpedituresChange:
		return GroupExpeditures
	case TypeMediaNew, TypeMediaChange, TypeDocument:
		return GroupMedia
	case TypeTicketNew:
		return GroupTicketNew
	case TypeTicketDelete:
		return GroupTicketDelete
	case TypeComment:
		return GroupComment
	case TypeSupervisorNotes:
		return GroupSupervisorNotes
	}
	return GroupOther
}

// Notification is a rendered message waiting for the next digest
type Notification struct {
	ID           int64
	TargetUserID *int64
	Fired        time.Time
	Text         string
	Type         Type
	// TicketID is the ticket the event happened on
	TicketID *int64
	// DedupKey identifies the event independently of the recipient
	// language: the type plus the english rendering.
	DedupKey string
}

// New creates a notification for one recipient
func New(target int64, t Type, text, dedupKey string, ticketID *int64, fired time.Time) *Notification {
	return &Notification{
		TargetUserID: &target,
		Fired:        fired,
		Text:         text,
		Type:         t,
		TicketID:     ticketID,
		DedupKey:     dedupKey,
	}
}

// GroupByDigest buckets notifications by digest group preserving order
func GroupByDigest(items []*Notification) map[DigestGroup][]*Notification {
	out := make(map[DigestGroup][]*Notification)
	for _, n := range items {
		g := n.Type.Group()
		out[g] = append(out[g], n)
	}
	return out
}
