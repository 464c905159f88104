package tracker

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// MediaTaskParams identifies the media item a wiki task works on
type MediaTaskParams struct {
	MediaID int64 `json:"media_id"`
	UserID  int64 `json:"user_id,omitempty"`
}

// PageTaskParams identifies a wiki page whose media item is gone
type PageTaskParams struct {
	PageID int64 `json:"page_id"`
	UserID int64 `json:"user_id"`
}

// TicketTaskParams identifies a ticket for ticket-wide tasks
type TicketTaskParams struct {
	TicketID int64 `json:"ticket_id"`
}

// MediaService attaches wiki media to tickets
type MediaService struct {
	hooks
	tickets tracker.TicketRepository
	media   tracker.MediaRepository
	pages   PageResolver
	queue   TaskQueue
}

// NewMediaService creates a new MediaService
func NewMediaService(tickets tracker.TicketRepository, media tracker.MediaRepository, settings Settings, logger *zap.Logger) *MediaService {
	return &MediaService{
		hooks:   newHooks(settings, logger),
		tickets: tickets,
		media:   media,
	}
}

// SetPageResolver sets the wiki lookup for media given by title only
func (s *MediaService) SetPageResolver(p PageResolver) {
	s.pages = p
}

// SetTaskQueue sets where wiki sync tasks are scheduled
func (s *MediaService) SetTaskQueue(q TaskQueue) {
	s.queue = q
}

// List returns the media of a ticket
func (s *MediaService) List(ctx context.Context, ticketID int64) ([]MediaResponse, error) {
	items, err := s.media.FindByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	out := make([]MediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToMediaResponse(m, s.settings.ArticleBase))
	}
	return out, nil
}

// Get returns one media item
func (s *MediaService) Get(ctx context.Context, id int64) (*MediaResponse, error) {
	m, err := s.media.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMediaResponse(m, s.settings.ArticleBase)
	return &resp, nil
}

// CreateBulk attaches several media files. Files already attached to
// their ticket are skipped.
func (s *MediaService) CreateBulk(ctx context.Context, user *identity.User, reqs []CreateMediaRequest) ([]MediaResponse, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	tickets := map[int64]*tracker.Ticket{}
	created := []MediaResponse{}
	for _, req := range reqs {
		t, ok := tickets[req.TicketID]
		if !ok {
			var err error
			if t, err = s.tickets.FindByID(ctx, req.TicketID); err != nil {
				return created, err
			}
			if !t.CanEditMedia(user, identity.PermAddMediaInfo) {
				return created, shared.ErrForbidden.WithMessage("You cannot add media to this ticket")
			}
			tickets[t.ID] = t
		}

		m, err := s.create(ctx, user, t, req)
		if errors.Is(err, tracker.ErrDuplicateMedia) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, ToMediaResponse(m, s.settings.ArticleBase))
	}
	return created, nil
}

func (s *MediaService) create(ctx context.Context, user *identity.User, t *tracker.Ticket, req CreateMediaRequest) (*tracker.MediaInfo, error) {
	m, err := tracker.NewMediaInfo(t.ID, req.PageTitle, req.PageID)
	if err != nil {
		return nil, err
	}
	if m.PageID == 0 && s.pages != nil {
		if m.PageID, err = s.pages.PageID(ctx, m.PageTitle); err != nil {
			return nil, shared.ErrInvalidInput.Wrap(err)
		}
	}
	if err := s.media.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Media added",
		zap.Int64("ticket_id", t.ID),
		zap.Int64("media_id", m.ID),
		zap.String("page_title", m.PageTitle))

	if s.settings.MediaTemplate != "" {
		s.enqueue(ctx, scheduler.TaskMediaAddToWiki, MediaTaskParams{MediaID: m.ID, UserID: user.ID})
	}
	s.enqueue(ctx, scheduler.TaskMediaStoreData, MediaTaskParams{MediaID: m.ID})
	s.scheduleRefresh(ctx, t.ID)

	s.touch(ctx, t.ID)
	s.events.mediaSaved(ctx, t, true, user)
	return m, nil
}

// Delete detaches a media file and schedules the template removal
func (s *MediaService) Delete(ctx context.Context, user *identity.User, id int64) error {
	if err := requireUser(user); err != nil {
		return err
	}
	m, err := s.media.FindByID(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.tickets.FindByID(ctx, m.TicketID)
	if err != nil {
		return err
	}
	if !t.CanEditMedia(user, identity.PermChangeMediaInfo) {
		return shared.ErrForbidden.WithMessage("You cannot remove media of this ticket")
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Media removed", zap.Int64("ticket_id", t.ID), zap.Int64("media_id", id))

	if s.settings.MediaTemplate != "" && m.PageID > 0 {
		s.enqueue(ctx, scheduler.TaskMediaRemoveFromWiki, PageTaskParams{PageID: m.PageID, UserID: user.ID})
	}
	s.touch(ctx, t.ID)
	s.events.mediaRemoved(ctx, t, user)
	return nil
}

// ScheduleRefresh queues a refresh of the ticket's wiki data. It reports
// false when one is already pending.
func (s *MediaService) ScheduleRefresh(ctx context.Context, ticketID int64) (bool, error) {
	if _, err := s.tickets.FindByID(ctx, ticketID); err != nil {
		return false, err
	}
	if s.queue == nil {
		return false, nil
	}
	return s.queue.EnqueueUnique(ctx, scheduler.TaskTicketUpdateMedia, TicketTaskParams{TicketID: ticketID})
}

// Summary reports media usage statistics of a ticket
func (s *MediaService) Summary(ctx context.Context, ticketID int64) (*MediaSummary, error) {
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	items, err := s.media.FindByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrForbidden.WithMessage("Ticket has no media")
	}

	summary := &MediaSummary{
		TicketID:          t.ID,
		Media:             make([]MediaResponse, 0, len(items)),
		PhotosPerCategory: tracker.PhotosPerCategory(items),
		MediaUpdated:      t.MediaUpdated,
	}
	wikidata := map[string]bool{}
	for _, m := range items {
		summary.Media = append(summary.Media, ToMediaResponse(m, s.settings.ArticleBase))
		summary.UsagesCount += len(m.Usages)
		for _, u := range m.Usages {
			if u.IsWikidata() {
				summary.WikidataUsagesCount++
				wikidata[u.Title] = true
			}
		}
	}
	summary.UniqueWikidataUsagesCount = len(wikidata)
	return summary, nil
}

func (s *MediaService) scheduleRefresh(ctx context.Context, ticketID int64) {
	if s.queue == nil {
		return
	}
	if _, err := s.queue.EnqueueUnique(ctx, scheduler.TaskTicketUpdateMedia, TicketTaskParams{TicketID: ticketID}); err != nil {
		s.logger.Warn("Failed to schedule media refresh", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *MediaService) enqueue(ctx context.Context, name string, params any) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, name, params); err != nil {
		s.logger.Warn("Failed to schedule task", zap.String("task", name), zap.Error(err))
	}
}

func (s *MediaService) touch(ctx context.Context, ticketID int64) {
	if err := s.tickets.Touch(ctx, ticketID); err != nil {
		s.logger.Warn("Failed to touch ticket", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
	s.invalidate(ctx, false)
}
