// Package comment handles the discussion under tickets
package comment

import (
	"context"
	"time"

	notifyapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	trackerapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"go.uber.org/zap"
)

// Notifier records the comment event
type Notifier interface {
	Fire(ctx context.Context, in notifyapp.FireInput) error
}

// Watcher subscribes commenters to the ticket
type Watcher interface {
	AutoWatchCommenter(ctx context.Context, t *tracker.Ticket, user *identity.User) error
}

// CommentResponse is a comment as shown under a ticket
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserID    *int64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	Submitted time.Time `json:"submitted"`
}

// CreateCommentRequest is the body of a new comment
type CreateCommentRequest struct {
	Comment string `json:"comment" binding:"required,max=3000"`
}

func toResponse(c *tracker.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Comment:   c.Comment,
		Submitted: c.Submitted,
	}
}

// Service posts and lists ticket comments
type Service struct {
	tickets  tracker.TicketRepository
	comments tracker.CommentRepository
	users    identity.UserRepository
	profiles identity.ProfileRepository
	notifier Notifier
	watcher  Watcher
	rows     trackerapp.RowsInvalidator
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new comment Service. notifier, watcher and rows
// may be nil.
func NewService(
	tickets tracker.TicketRepository,
	comments tracker.CommentRepository,
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	notifier Notifier,
	watcher Watcher,
	rows trackerapp.RowsInvalidator,
	baseURL string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tickets:  tickets,
		comments: comments,
		users:    users,
		profiles: profiles,
		notifier: notifier,
		watcher:  watcher,
		rows:     rows,
		baseURL:  baseURL,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the comments of a ticket the user may read
func (s *Service) List(ctx context.Context, user *identity.User, ticketID int64) ([]CommentResponse, error) {
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canSee(ctx, t, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	comments, err := s.comments.FindByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toResponse(c))
	}
	return out, nil
}

// Create posts a comment. Mentioned users are notified along with the
// ticket's watchers and the commenter starts watching the ticket.
func (s *Service) Create(ctx context.Context, user *identity.User, ticketID int64, req CreateCommentRequest) (*CommentResponse, error) {
	if !user.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !t.EnableComments && !user.HasPerm(identity.PermBypassDisabledComments) {
		return nil, tracker.ErrCommentsDisabled
	}
	ok, err := s.canSee(ctx, t, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}

	userID := user.ID
	c, err := tracker.NewComment(t.ID, &userID, user.Username, req.Comment)
	if err != nil {
		return nil, err
	}
	c.Submitted = s.now()
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.tickets.Touch(ctx, t.ID); err != nil {
		return nil, err
	}
	s.logger.Info("Comment added",
		zap.Int64("comment_id", c.ID),
		zap.Int64("ticket_id", t.ID),
		zap.Int64("user_id", user.ID))

	s.notify(ctx, t, c, user)
	if s.watcher != nil {
		if err := s.watcher.AutoWatchCommenter(ctx, t, user); err != nil {
			s.logger.Warn("Failed to subscribe commenter", zap.Int64("ticket_id", t.ID), zap.Error(err))
		}
	}
	if s.rows != nil {
		if err := s.rows.Invalidate(ctx, t.IsCompleted); err != nil {
			s.logger.Warn("Failed to invalidate ticket rows", zap.Error(err))
		}
	}
	resp := toResponse(c)
	return &resp, nil
}

func (s *Service) canSee(ctx context.Context, t *tracker.Ticket, user *identity.User) (bool, error) {
	if t.Topic != nil && t.Topic.TicketCommentsPublic {
		return true, nil
	}
	if !user.IsAuthenticated() {
		return false, nil
	}
	profile, err := s.profiles.FindProfile(ctx, user.ID)
	if err != nil && !shared.IsNotFound(err) {
		return false, err
	}
	return t.CanSeeComments(user, profile), nil
}

// notify fires the comment event to watchers and mentioned users. Unknown
// mentions are ignored.
func (s *Service) notify(ctx context.Context, t *tracker.Ticket, c *tracker.Comment, user *identity.User) {
	if s.notifier == nil {
		return
	}
	var mentioned []int64
	for _, name := range c.Mentions() {
		u, err := s.users.FindByUsername(ctx, name)
		if err != nil {
			if !shared.IsNotFound(err) {
				s.logger.Warn("Failed to resolve mention", zap.String("username", name), zap.Error(err))
			}
			continue
		}
		mentioned = append(mentioned, u.ID)
	}
	err := s.notifier.Fire(ctx, notifyapp.FireInput{
		Ticket:     t,
		Type:       notification.TypeComment,
		Sender:     user,
		Additional: mentioned,
		Message: notifyapp.NewMessage(i18n.MsgComment,
			c.Preview(), trackerapp.TicketURL(s.baseURL, t.ID), t.String(), user.String()),
	})
	if err != nil {
		s.logger.Error("Failed to fire notification",
			zap.String("type", string(notification.TypeComment)),
			zap.Int64("ticket_id", t.ID),
			zap.Error(err))
	}
}
