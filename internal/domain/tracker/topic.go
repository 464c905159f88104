package tracker

import (
	"slices"
	"strings"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
)

// Topic groups tickets under a grant. Topic admins review its tickets.
type Topic struct {
	ID                         int64
	Name                       string
	GrantID                    int64
	Grant                      *Grant
	OpenForTickets             bool
	TicketMedia                bool
	TicketExpenses             bool
	TicketPreexpenses          bool
	TicketStatutoryDeclaration bool
	TicketCommentsPublic       bool
	Description                string
	FormDescription            string
	AdminIDs                   []int64
	Subtopics                  []*Subtopic
	Created                    time.Time
}

// NewTopic creates a topic with the default switches turned on
func NewTopic(grantID int64, name string) (*Topic, error) {
	t := &Topic{
		GrantID:              grantID,
		OpenForTickets:       true,
		TicketMedia:          true,
		TicketExpenses:       true,
		TicketPreexpenses:    true,
		TicketCommentsPublic: true,
		AdminIDs:             []int64{},
		Created:              time.Now(),
	}
	if err := t.Rename(name); err != nil {
		return nil, err
	}
	return t, nil
}

// Rename validates and sets the topic name
func (t *Topic) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 80 {
		return ErrInvalidTopic.WithMessage("Topic name must be 1 to 80 characters")
	}
	t.Name = name
	return nil
}

// IsAdmin reports whether user administers the topic
func (t *Topic) IsAdmin(user *identity.User) bool {
	if t == nil || !user.IsAuthenticated() {
		return false
	}
	return slices.Contains(t.AdminIDs, user.ID)
}

// HasSubtopic reports whether the subtopic id belongs to the topic
func (t *Topic) HasSubtopic(id int64) bool {
	for _, s := range t.Subtopics {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (t *Topic) String() string {
	return t.Name
}

// Subtopic is an optional finer grouping inside a topic
type Subtopic struct {
	ID              int64
	Name            string
	Description     string
	FormDescription string
	TopicID         int64
	Created         time.Time
}

// NewSubtopic creates a subtopic of topicID
func NewSubtopic(topicID int64, name string) (*Subtopic, error) {
	s := &Subtopic{TopicID: topicID, Created: time.Now()}
	if err := s.Rename(name); err != nil {
		return nil, err
	}
	return s, nil
}

// Rename validates and sets the subtopic name
func (s *Subtopic) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 80 {
		return ErrInvalidTopic.WithMessage("Subtopic name must be 1 to 80 characters")
	}
	s.Name = name
	return nil
}

func (s *Subtopic) String() string {
	if s == nil {
		return ""
	}
	return s.Name
}
