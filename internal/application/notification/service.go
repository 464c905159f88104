package notification

import (
	"context"
	"slices"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service fans ticket events out to the users that should hear about
// them and keeps the watch subscriptions
type Service struct {
	notifications notification.Repository
	watchers      notification.WatcherRepository
	users         identity.UserRepository
	profiles      identity.ProfileRepository
	metrics       *telemetry.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a new notification Service
func NewService(
	notifications notification.Repository,
	watchers notification.WatcherRepository,
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		notifications: notifications,
		watchers:      watchers,
		users:         users,
		profiles:      profiles,
		logger:        logger,
		now:           time.Now,
	}
}

// SetMetrics sets the instruments stored notifications are counted on
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// FireInput describes one ticket event
type FireInput struct {
	Ticket *tracker.Ticket
	Type   notification.Type
	// Sender never receives its own event. Events without a sender, such
	// as those raised by background tasks, are not recorded.
	Sender *identity.User
	// Additional recipients on top of owners and watchers
	Additional []int64
	Message    Message
	// AckType is set for ack events so per-ack mutes apply
	AckType string
}

// Fire records the event for every recipient in their language.
//
// Recipients are the requester and topic admins unless they manage their
// own watchers on the ticket, topic or grant, plus everyone watching one
// of those objects for the type. A fixed-text event that is still pending
// is dropped; events carrying arguments are always recorded.
func (s *Service) Fire(ctx context.Context, in FireInput) error {
	t := in.Ticket
	if t == nil {
		return shared.ErrInvalidInput.WithMessage("Notification needs a ticket")
	}
	if in.Sender == nil {
		return nil
	}
	refs := ticketRefs(t)

	recipients, err := s.recipients(ctx, in, refs)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	dedupKey := string(in.Type) + ":" + in.Message.Key
	if len(in.Message.Args) == 0 {
		dup, err := s.notifications.ExistsDuplicate(ctx, in.Type, dedupKey)
		if err != nil {
			return err
		}
		if dup {
			s.logger.Debug("Duplicate notification skipped",
				zap.String("type", string(in.Type)),
				zap.Int64("ticket_id", t.ID))
			return nil
		}
	}

	users, err := s.users.FindByIDs(ctx, recipients)
	if err != nil {
		return err
	}
	prefs, err := s.profiles.FindPreferencesFor(ctx, recipients)
	if err != nil {
		return err
	}

	ticketID := t.ID
	now := s.now()
	created := 0
	for _, u := range users {
		if u.ID == in.Sender.ID {
			continue
		}
		if !u.IsActive {
			continue
		}
		if in.Type == notification.TypeComment {
			visible, err := s.canSeeComments(ctx, t, u)
			if err != nil {
				return err
			}
			if !visible {
				continue
			}
		}
		p := prefs[u.ID]
		if p.IsNotificationMuted(string(in.Type)) || p.IsAckMuted(in.AckType) {
			continue
		}
		n := notification.New(u.ID, in.Type, in.Message.Render(p.Language()), dedupKey, &ticketID, now)
		if err := s.notifications.Create(ctx, n); err != nil {
			return err
		}
		created++
	}
	if s.metrics != nil {
		s.metrics.NotificationsFired(ctx, string(in.Type), created)
	}
	s.logger.Debug("Notification fired",
		zap.String("type", string(in.Type)),
		zap.Int64("ticket_id", t.ID),
		zap.Int("recipients", created))
	return nil
}

func (s *Service) recipients(ctx context.Context, in FireInput, refs []notification.ObjectRef) ([]int64, error) {
	t := in.Ticket
	owners := make([]int64, 0, 4)
	if t.RequestedUserID != nil {
		owners = append(owners, *t.RequestedUserID)
	}
	if t.Topic != nil {
		owners = append(owners, t.Topic.AdminIDs...)
	}

	out := make([]int64, 0, len(owners)+len(in.Additional))
	for _, id := range owners {
		managed, err := s.watchers.HasAny(ctx, id, refs...)
		if err != nil {
			return nil, err
		}
		if !managed {
			out = append(out, id)
		}
	}
	for _, ref := range refs {
		ids, err := s.watchers.UserIDsWatching(ctx, ref, in.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	out = append(out, in.Additional...)

	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *Service) canSeeComments(ctx context.Context, t *tracker.Ticket, u *identity.User) (bool, error) {
	if t.Topic != nil && t.Topic.TicketCommentsPublic {
		return true, nil
	}
	profile, err := s.profiles.FindProfile(ctx, u.ID)
	if err != nil && !shared.IsNotFound(err) {
		return false, err
	}
	return t.CanSeeComments(u, profile), nil
}

// HasPending reports whether an undelivered notification of any of types
// exists for the ticket
func (s *Service) HasPending(ctx context.Context, ticketID int64, types ...notification.Type) (bool, error) {
	return s.notifications.ExistsForTicket(ctx, ticketID, types...)
}

// HasPendingText reports whether an undelivered notification of type t
// mentions fragment
func (s *Service) HasPendingText(ctx context.Context, t notification.Type, fragment string) (bool, error) {
	return s.notifications.ExistsWithText(ctx, t, fragment)
}

// ticketRefs returns the ticket, its topic and its grant
func ticketRefs(t *tracker.Ticket) []notification.ObjectRef {
	refs := []notification.ObjectRef{{Kind: notification.WatchTicket, ID: t.ID}}
	if t.TopicID != 0 {
		refs = append(refs, notification.ObjectRef{Kind: notification.WatchTopic, ID: t.TopicID})
	}
	if t.Topic != nil && t.Topic.GrantID != 0 {
		refs = append(refs, notification.ObjectRef{Kind: notification.WatchGrant, ID: t.Topic.GrantID})
	}
	return refs
}
