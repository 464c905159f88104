package notification

import (
	"context"
	"slices"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"go.uber.org/zap"
)

// WatchService manages which events a user follows on tickets, topics
// and grants
type WatchService struct {
	watchers notification.WatcherRepository
	tickets  tracker.TicketRepository
	topics   tracker.TopicRepository
	grants   tracker.GrantRepository
	logger   *zap.Logger
}

// NewWatchService creates a new WatchService
func NewWatchService(
	watchers notification.WatcherRepository,
	tickets tracker.TicketRepository,
	topics tracker.TopicRepository,
	grants tracker.GrantRepository,
	logger *zap.Logger,
) *WatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchService{
		watchers: watchers,
		tickets:  tickets,
		topics:   topics,
		grants:   grants,
		logger:   logger,
	}
}

// WatchItem is one row of the watch form
type WatchItem struct {
	Type    notification.Type `json:"type"`
	Display string            `json:"display"`
	Watched bool              `json:"watched"`
}

// target is the resolved watched object with the users that follow it
// implicitly
type target struct {
	ref      notification.ObjectRef
	owner    bool
	topic    *tracker.Topic
	ticketID int64
}

func (s *WatchService) resolve(ctx context.Context, ref notification.ObjectRef, user *identity.User) (*target, error) {
	switch ref.Kind {
	case notification.WatchTicket:
		t, err := s.tickets.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &target{ref: ref, owner: t.IsRequester(user) || t.Topic.IsAdmin(user), topic: t.Topic, ticketID: t.ID}, nil
	case notification.WatchTopic:
		topic, err := s.topics.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &target{ref: ref, owner: topic.IsAdmin(user), topic: topic}, nil
	case notification.WatchGrant:
		if _, err := s.grants.FindByID(ctx, ref.ID); err != nil {
			return nil, err
		}
		return &target{ref: ref}, nil
	default:
		return nil, shared.ErrInvalidInput.WithMessage("Unknown watched object")
	}
}

// SetWatches replaces the user's watchers on the object with types.
//
// Owners (the requester and topic admins of a ticket, the admins of a
// topic) follow everything by default: choosing every visible type
// returns them to that default, choosing nothing mutes them.
func (s *WatchService) SetWatches(ctx context.Context, user *identity.User, ref notification.ObjectRef, types []notification.Type) error {
	if !user.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	tgt, err := s.resolve(ctx, ref, user)
	if err != nil {
		return err
	}

	chosen := make([]notification.Type, 0, len(types))
	for _, t := range types {
		if !t.IsValid() {
			return shared.ErrInvalidInput.WithMessage("Unknown notification type: " + string(t))
		}
		if !slices.Contains(chosen, t) {
			chosen = append(chosen, t)
		}
	}

	if err := s.watchers.DeleteFor(ctx, ref, user.ID); err != nil {
		return err
	}
	if tgt.owner && coversAll(chosen, notification.VisibleTypes(ref.Kind)) {
		return nil
	}
	if len(chosen) == 0 && tgt.owner {
		chosen = []notification.Type{notification.TypeMuted}
	}
	for _, t := range chosen {
		if err := s.watchers.Create(ctx, notification.NewWatcher(ref.Kind, ref.ID, user.ID, t)); err != nil {
			return err
		}
	}
	s.logger.Info("Watch settings changed",
		zap.String("kind", string(ref.Kind)),
		zap.Int64("object_id", ref.ID),
		zap.Int64("user_id", user.ID),
		zap.Int("watchers", len(chosen)))
	return nil
}

func coversAll(chosen, visible []notification.Type) bool {
	for _, t := range visible {
		if !slices.Contains(chosen, t) {
			return false
		}
	}
	return true
}

// WatchState returns the watch form for the object: every visible type
// and whether the user currently receives it
func (s *WatchService) WatchState(ctx context.Context, user *identity.User, ref notification.ObjectRef) ([]WatchItem, error) {
	if !user.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	tgt, err := s.resolve(ctx, ref, user)
	if err != nil {
		return nil, err
	}
	implicit := false
	if tgt.owner {
		managed, err := s.watchers.HasAny(ctx, user.ID, ref)
		if err != nil {
			return nil, err
		}
		implicit = !managed
	}

	visible := notification.VisibleTypes(ref.Kind)
	items := make([]WatchItem, 0, len(visible))
	for _, t := range visible {
		watched := implicit
		if !watched {
			if watched, err = s.watches(ctx, user.ID, tgt, t); err != nil {
				return nil, err
			}
		}
		items = append(items, WatchItem{Type: t, Display: t.Display(), Watched: watched})
	}
	return items, nil
}

// Watches reports whether the user explicitly follows event on the
// object, directly or through its topic or grant
func (s *WatchService) Watches(ctx context.Context, user *identity.User, ref notification.ObjectRef, event notification.Type) (bool, error) {
	if !user.IsAuthenticated() {
		return false, nil
	}
	tgt, err := s.resolve(ctx, ref, user)
	if err != nil {
		return false, err
	}
	return s.watches(ctx, user.ID, tgt, event)
}

// watches follows the inheritance chain: a grant watcher covers the
// grant's topics, a topic watcher covers the topic's tickets unless the
// user set up watchers on the ticket itself
func (s *WatchService) watches(ctx context.Context, userID int64, tgt *target, event notification.Type) (bool, error) {
	switch tgt.ref.Kind {
	case notification.WatchGrant:
		return s.watchers.HasType(ctx, tgt.ref, userID, event)
	case notification.WatchTopic:
		return s.topicWatches(ctx, userID, tgt.topic, event)
	default:
		own, err := s.watchers.HasType(ctx, tgt.ref, userID, event)
		if err != nil || own {
			return own, err
		}
		managed, err := s.watchers.HasAny(ctx, userID, tgt.ref)
		if err != nil || managed {
			return false, err
		}
		return s.topicWatches(ctx, userID, tgt.topic, event)
	}
}

func (s *WatchService) topicWatches(ctx context.Context, userID int64, topic *tracker.Topic, event notification.Type) (bool, error) {
	if topic == nil {
		return false, nil
	}
	grant := notification.ObjectRef{Kind: notification.WatchGrant, ID: topic.GrantID}
	ok, err := s.watchers.HasType(ctx, grant, userID, event)
	if err != nil || ok {
		return ok, err
	}
	return s.watchers.HasType(ctx, notification.ObjectRef{Kind: notification.WatchTopic, ID: topic.ID}, userID, event)
}

// AutoWatchCommenter subscribes a commenter to further comments on the
// ticket. Owners already receive them.
func (s *WatchService) AutoWatchCommenter(ctx context.Context, t *tracker.Ticket, user *identity.User) error {
	if !user.IsAuthenticated() || t.IsRequester(user) || t.Topic.IsAdmin(user) {
		return nil
	}
	ref := notification.ObjectRef{Kind: notification.WatchTicket, ID: t.ID}
	exists, err := s.watchers.HasType(ctx, ref, user.ID, notification.TypeComment)
	if err != nil || exists {
		return err
	}
	return s.watchers.Create(ctx, notification.NewWatcher(ref.Kind, ref.ID, user.ID, notification.TypeComment))
}
