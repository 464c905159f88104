package notification

import "time"

// WatchedKind is the kind of object a watcher is attached to
type WatchedKind string

const (
	WatchTicket WatchedKind = "Ticket"
	WatchTopic  WatchedKind = "Topic"
	WatchGrant  WatchedKind = "Grant"
)

// IsValid reports whether k is a known kind
func (k WatchedKind) IsValid() bool {
	return k == WatchTicket || k == WatchTopic || k == WatchGrant
}

// Watcher subscribes a user to one event type on a ticket, topic or grant
type Watcher struct {
	ID       int64
	Kind     WatchedKind
	ObjectID int64
	UserID   int64
	Type     Type
	AckType  string
	Created  time.Time
}

// NewWatcher creates a watcher
func NewWatcher(kind WatchedKind, objectID, userID int64, t Type) *Watcher {
	return &Watcher{
		Kind:     kind,
		ObjectID: objectID,
		UserID:   userID,
		Type:     t,
		Created:  time.Now(),
	}
}

// HiddenTypes are not offered in the watch form for kind
func HiddenTypes(kind WatchedKind) []Type {
	if kind == WatchTicket {
		return []Type{TypeTicketNew, TypeMuted}
	}
	return []Type{TypeMuted}
}

// VisibleTypes are the types a user may pick when watching kind
func VisibleTypes(kind WatchedKind) []Type {
	hidden := map[Type]bool{}
	for _, t := range HiddenTypes(kind) {
		hidden[t] = true
	}
	out := []Type{}
	for _, t := range AllTypes() {
		if !hidden[t] {
			out = append(out, t)
		}
	}
	return out
}

// ObjectRef names a watched object
type ObjectRef struct {
	Kind WatchedKind
	ID   int64
}
