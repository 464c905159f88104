package tracker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// MediaInfo is a wiki media file attached to a ticket
type MediaInfo struct {
	ID         int64
	TicketID   int64
	PageTitle  string
	PageID     int64
	Width      int
	Height     int
	ThumbURL   string
	Created    time.Time
	Categories []MediaInfoCategory
	Usages     []MediaInfoUsage
}

// NewMediaInfo creates a media item for a page title or page id
func NewMediaInfo(ticketID int64, pageTitle string, pageID int64) (*MediaInfo, error) {
	pageTitle = strings.TrimSpace(pageTitle)
	if pageTitle == "" && pageID <= 0 {
		return nil, ErrInvalidTicket.WithMessage("Media needs a page title or a page id")
	}
	if len([]rune(pageTitle)) > 255 {
		return nil, ErrInvalidTicket.WithMessage("Media title cannot exceed 255 characters")
	}
	return &MediaInfo{
		TicketID:  ticketID,
		PageTitle: pageTitle,
		PageID:    pageID,
		Created:   time.Now(),
	}, nil
}

// MediawikiLink returns the article URL of the media page
func (m *MediaInfo) MediawikiLink(articleBase string) string {
	return articleBase + strings.ReplaceAll(m.PageTitle, " ", "_")
}

// SameMedia reports whether other points to the same page of the same ticket
func (m *MediaInfo) SameMedia(other *MediaInfo) bool {
	return m.TicketID == other.TicketID && m.PageTitle == other.PageTitle && m.PageID == other.PageID
}

func (m *MediaInfo) String() string {
	return m.PageTitle
}

// MediaInfoCategory is a non-hidden wiki category of a media file
type MediaInfoCategory struct {
	ID          int64
	MediaInfoID int64
	Title       string
}

// MediaInfoUsage is a page on some wiki that uses a media file
type MediaInfoUsage struct {
	ID          int64
	MediaInfoID int64
	URL         string
	Title       string
	Project     string
}

// IsWikidata reports whether the usage comes from wikidata
func (u MediaInfoUsage) IsWikidata() bool {
	return u.Project == "www.wikidata.org" || strings.HasPrefix(u.Project, "wikidata")
}

// CategoryCount is the number of ticket media in a category
type CategoryCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// PhotosPerCategory counts media per category, most used first
func PhotosPerCategory(media []*MediaInfo) []CategoryCount {
	counts := map[string]int{}
	order := []string{}
	for _, m := range media {
		for _, c := range m.Categories {
			if _, ok := counts[c.Title]; !ok {
				order = append(order, c.Title)
			}
			counts[c.Title]++
		}
	}
	out := make([]CategoryCount, 0, len(order))
	for _, title := range order {
		out = append(out, CategoryCount{Title: title, Count: counts[title]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// StripTemplate removes every {{tpl ...}} occurrence together with the
// newline in front of it.
func StripTemplate(text, tpl string) string {
	re := regexp.MustCompile(`\n?\{\{` + regexp.QuoteMeta(tpl) + `[^}]*\}\}`)
	return re.ReplaceAllString(text, "")
}

// TemplateEndPosition returns the index just past the closing braces of
// the first {{tpl occurrence, or -1.
func TemplateEndPosition(text, tpl string) int {
	opening := "{{" + tpl
	pos := strings.Index(text, opening)
	if pos < 0 {
		return -1
	}
	open := 0
	for idx := pos; idx < len(text)-1; idx++ {
		switch text[idx] {
		case '{':
			open++
		case '}':
			open--
		}
		if open == 0 {
			return idx + 1
		}
	}
	return -1
}

// BuildTemplate renders the tracker template put on media pages.
// Parameters are sorted by name.
func BuildTemplate(tpl, subtopic string, year int, ticketID int64) string {
	params := map[string]string{
		"rok":     fmt.Sprint(year),
		"podtéma": subtopic,
		"tiket":   fmt.Sprint(ticketID),
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(tpl)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, params[k])
	}
	b.WriteString("}}")
	return b.String()
}

// InsertTemplate replaces any old tracker template in page text by
// template, placed after the information template or appended. ok is
// false when the text already carries exactly this template.
func InsertTemplate(old, trackerTpl, template, infoTpl string) (string, bool) {
	if strings.Contains(old, template) {
		return old, false
	}
	old = StripTemplate(old, trackerTpl)
	if end := TemplateEndPosition(old, infoTpl); end != -1 {
		return old[:end] + "\n" + template + old[end:], true
	}
	return old + "\n" + template, true
}
