package tracker

import (
	"regexp"
	"strings"
	"time"
)

var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Grant is the funding program above topics
type Grant struct {
	ID          int64
	FullName    string
	ShortName   string
	Slug        string
	Description string
	Created     time.Time
}

// NewGrant creates a validated grant
func NewGrant(fullName, shortName, slug, description string) (*Grant, error) {
	g := &Grant{Created: time.Now()}
	if err := g.Update(fullName, shortName, slug, description); err != nil {
		return nil, err
	}
	return g, nil
}

// Update replaces the grant fields after validation
func (g *Grant) Update(fullName, shortName, slug, description string) error {
	fullName = strings.TrimSpace(fullName)
	shortName = strings.TrimSpace(shortName)
	switch {
	case fullName == "" || len([]rune(fullName)) > 80:
		return ErrInvalidGrant.WithMessage("Full name must be 1 to 80 characters")
	case shortName == "" || len([]rune(shortName)) > 16:
		return ErrInvalidGrant.WithMessage("Short name must be 1 to 16 characters")
	case !slugRegex.MatchString(slug) || len(slug) > 50:
		return ErrInvalidGrant.WithMessage("Slug can only contain letters, numbers, underscores and hyphens")
	}
	g.FullName = fullName
	g.ShortName = shortName
	g.Slug = slug
	g.Description = description
	return nil
}

// OpenForTickets reports whether any of the grant's topics accepts tickets
func (g *Grant) OpenForTickets(topics []*Topic) bool {
	for _, t := range topics {
		if t.GrantID == g.ID && t.OpenForTickets {
			return true
		}
	}
	return false
}

func (g *Grant) String() string {
	return g.FullName
}
