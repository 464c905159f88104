package notification

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mail"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var groupTitles = map[notification.DigestGroup]string{
	notification.GroupAck:             i18n.MsgGroupAck,
	notification.GroupTicketChange:    i18n.MsgGroupTicketChange,
	notification.GroupPreexpeditures:  i18n.MsgGroupPreexpeditures,
	notification.GroupExpeditures:     i18n.MsgGroupExpeditures,
	notification.GroupMedia:           i18n.MsgGroupMedia,
	notification.GroupTicketNew:       i18n.MsgGroupTicketNew,
	notification.GroupTicketDelete:    i18n.MsgGroupTicketDelete,
	notification.GroupComment:         i18n.MsgGroupComment,
	notification.GroupSupervisorNotes: i18n.MsgGroupSupervisorNotes,
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<p>{{.Greeting}}</p>
{{range .Sections}}<h3>{{.Title}}</h3>
<ul>
{{range .Items}}<li>{{.}}</li>
{{end}}</ul>
{{end}}<p>{{.Footer}}</p>
</body></html>
`))

type digestSection struct {
	Title string
	// Items are produced by the tracker itself and carry links
	Items []template.HTML
}

type digestData struct {
	Greeting string
	Sections []digestSection
	Footer   template.HTML
}

// DigestResult summarizes one digest run
type DigestResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// DigestService mails every user their pending notifications in one
// message and clears them
type DigestService struct {
	notifications notification.Repository
	users         identity.UserRepository
	profiles      identity.ProfileRepository
	mailer        *mail.Mailer
	metrics       *telemetry.Metrics
	baseURL       string
	logger        *zap.Logger
	now           func() time.Time
}

// NewDigestService creates a new DigestService
func NewDigestService(
	notifications notification.Repository,
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	mailer *mail.Mailer,
	baseURL string,
	logger *zap.Logger,
) *DigestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestService{
		notifications: notifications,
		users:         users,
		profiles:      profiles,
		mailer:        mailer,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// SetMetrics sets the instruments sent digests are counted on
func (s *DigestService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// SendPending sends one digest per user with pending notifications.
// Users without an email address lose their notifications unsent. A
// failed send keeps the user's notifications for the next run.
func (s *DigestService) SendPending(ctx context.Context) (DigestResult, error) {
	var res DigestResult
	ids, err := s.notifications.FindPendingUserIDs(ctx)
	if err != nil {
		return res, err
	}
	if len(ids) == 0 {
		return res, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return res, err
	}
	prefs, err := s.profiles.FindPreferencesFor(ctx, ids)
	if err != nil {
		return res, err
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if u.Email == "" {
			res.Skipped++
		} else if err := s.sendTo(ctx, u, prefs[u.ID].Language()); err != nil {
			res.Failed++
			s.logger.Error("Failed to send notification digest",
				zap.Int64("user_id", u.ID),
				zap.Error(err))
			continue
		} else {
			res.Sent++
			if s.metrics != nil {
				s.metrics.DigestSent(ctx)
			}
		}
		if err := s.notifications.DeleteByUser(ctx, u.ID); err != nil {
			return res, err
		}
	}
	s.logger.Info("Notification digests processed",
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (s *DigestService) sendTo(ctx context.Context, u *identity.User, lang string) error {
	items, err := s.notifications.FindByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	htmlBody, err := s.Render(lang, u, items)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{
		To:      []string{u.Email},
		Subject: i18n.Sprintf(lang, i18n.MsgDigestSubject, s.now().Format("2006-01-02")),
		Text:    StripTags(htmlBody),
		HTML:    htmlBody,
	})
}

// Render builds the HTML digest body for the user in lang
func (s *DigestService) Render(lang string, u *identity.User, items []*notification.Notification) (string, error) {
	groups := notification.GroupByDigest(items)
	data := digestData{
		Greeting: i18n.Sprintf(lang, i18n.MsgDigestGreeting, u.Username),
		Footer: template.HTML(i18n.Sprintf(lang, i18n.MsgDigestFooter,
			`<a href="`+template.HTMLEscapeString(s.baseURL+"/preferences/")+`">`+template.HTMLEscapeString(s.baseURL+"/preferences/")+`</a>`)),
	}
	order := append(notification.DigestGroups(), notification.GroupOther)
	for _, g := range order {
		group := groups[g]
		if len(group) == 0 {
			continue
		}
		title, ok := groupTitles[g]
		if !ok {
			title = string(g)
		}
		section := digestSection{Title: i18n.T(lang, title)}
		for _, n := range group {
			section.Items = append(section.Items, template.HTML(n.Text))
		}
		data.Sections = append(data.Sections, section)
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	blankPattern = regexp.MustCompile(`\n{3,}`)
)

// StripTags turns the HTML digest into its plain text alternative
func StripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(blankPattern.ReplaceAllString(s, "\n\n"))
}
