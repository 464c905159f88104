package tracker

import (
	"regexp"
	"strings"
	"time"
)

var mentionRegex = regexp.MustCompile(`@([-a-zA-Z0-9_.]+)`)

const (
	maxCommentLength = 3000
	commentPreview   = 75
)

// Comment is a discussion entry on a ticket
type Comment struct {
	ID        int64
	TicketID  int64
	UserID    *int64
	UserName  string
	Comment   string
	Submitted time.Time
	IsPublic  bool
	IsRemoved bool
}

// NewComment creates a public comment by a user
func NewComment(ticketID int64, userID *int64, userName, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidTicket.WithMessage("Comment cannot be empty")
	}
	if len([]rune(text)) > maxCommentLength {
		return nil, ErrInvalidTicket.WithMessage("Comment is too long")
	}
	return &Comment{
		TicketID:  ticketID,
		UserID:    userID,
		UserName:  userName,
		Comment:   text,
		Submitted: time.Now(),
		IsPublic:  true,
	}, nil
}

// Mentions returns the usernames mentioned as @name, in order, without
// duplicates.
func (c *Comment) Mentions() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range mentionRegex.FindAllStringSubmatch(c.Comment, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Preview shortens the comment for notifications
func (c *Comment) Preview() string {
	text := c.Comment
	runes := []rune(text)
	if len(runes) > commentPreview {
		text = string(runes[:commentPreview]) + ".."
	}
	return strings.ReplaceAll(text, "\r\n", " ")
}
