package notification

import (
	"context"
	"fmt"
	"html"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// Audience selects who receives a mandatory notice
type Audience string

const (
	// AudienceUsers is every active user
	AudienceUsers Audience = "users"
	// AudienceAdmins is every active admin of a topic open for tickets
	AudienceAdmins Audience = "admins"
	// AudienceRoots is the configured site admin addresses
	AudienceRoots Audience = "roots"
)

var audienceFooters = map[Audience]string{
	AudienceUsers:  i18n.MsgNoticeUsers,
	AudienceAdmins: i18n.MsgNoticeAdmins,
	AudienceRoots:  i18n.MsgNoticeRoots,
}

const broadcastPageSize = 100

// BroadcastService sends mandatory notices that ignore notification
// preferences
type BroadcastService struct {
	users    identity.UserRepository
	profiles identity.ProfileRepository
	topics   tracker.TopicRepository
	mailer   *mail.Mailer
	logger   *zap.Logger
}

// NewBroadcastService creates a new BroadcastService
func NewBroadcastService(
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	topics tracker.TopicRepository,
	mailer *mail.Mailer,
	logger *zap.Logger,
) *BroadcastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastService{users: users, profiles: profiles, topics: topics, mailer: mailer, logger: logger}
}

// Send mails the HTML notice to the audience and returns how many
// messages went out. Users without an email address are skipped.
func (s *BroadcastService) Send(ctx context.Context, audience Audience, subject, htmlBody string) (int, error) {
	footer, ok := audienceFooters[audience]
	if !ok {
		return 0, fmt.Errorf("unknown audience %q", audience)
	}
	subject = i18n.Sprintf("en", i18n.MsgNoticeSubject, subject)

	if audience == AudienceRoots {
		if len(s.mailer.Admins()) == 0 {
			return 0, nil
		}
		if err := s.mailer.Send(ctx, noticeMessage(s.mailer.Admins(), subject, htmlBody, i18n.T("en", footer))); err != nil {
			return 0, err
		}
		return 1, nil
	}

	users, err := s.recipients(ctx, audience)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	prefs, err := s.profiles.FindPreferencesFor(ctx, ids)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if u.Email == "" {
			continue
		}
		lang := prefs[u.ID].Language()
		msg := noticeMessage([]string{u.Email}, subject, htmlBody, i18n.T(lang, footer))
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Error("Failed to send notice", zap.Int64("user_id", u.ID), zap.Error(err))
			continue
		}
		sent++
	}
	s.logger.Info("Notice sent", zap.String("audience", string(audience)), zap.Int("sent", sent))
	return sent, nil
}

func (s *BroadcastService) recipients(ctx context.Context, audience Audience) ([]*identity.User, error) {
	if audience == AudienceAdmins {
		topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{OpenOnly: true})
		if err != nil {
			return nil, err
		}
		seen := map[int64]bool{}
		var ids []int64
		for _, t := range topics {
			for _, id := range t.AdminIDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		if len(ids) == 0 {
			return nil, nil
		}
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		active := users[:0]
		for _, u := range users {
			if u.IsActive {
				active = append(active, u)
			}
		}
		return active, nil
	}

	var out []*identity.User
	for page := 1; ; page++ {
		users, total, err := s.users.FindAll(ctx, identity.UserFilter{ActiveOnly: true, Page: page, PageSize: broadcastPageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, users...)
		if len(users) == 0 || int64(len(out)) >= total {
			return out, nil
		}
	}
}

func noticeMessage(to []string, subject, htmlBody, footer string) mail.Message {
	body := htmlBody + "<hr><small>" + html.EscapeString(footer) + "</small>"
	return mail.Message{To: to, Subject: subject, Text: StripTags(body), HTML: body}
}
