package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mediawiki"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

const (
	addTemplateSummary    = "Adding tracker template"
	removeTemplateSummary = "Removing tracker template"
)

// Wiki is the part of the wiki client the sync tasks use
type Wiki interface {
	GetContent(ctx context.Context, token string, pageID int64) (string, error)
	PutContent(ctx context.Context, token string, pageID int64, text, summary string, minor bool) error
	MediaData(ctx context.Context, pageID int64, width int) (*mediawiki.MediaData, error)
}

// TaskRegistry accepts task handlers
type TaskRegistry interface {
	Register(name string, h scheduler.Handler)
}

// MediaSync runs the background tasks keeping media in sync with the wiki
type MediaSync struct {
	tickets  tracker.TicketRepository
	media    tracker.MediaRepository
	profiles identity.ProfileRepository
	wiki     Wiki
	settings Settings
	logger   *zap.Logger
}

// NewMediaSync creates a new MediaSync
func NewMediaSync(
	tickets tracker.TicketRepository,
	media tracker.MediaRepository,
	profiles identity.ProfileRepository,
	wiki Wiki,
	settings Settings,
	logger *zap.Logger,
) *MediaSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaSync{
		tickets:  tickets,
		media:    media,
		profiles: profiles,
		wiki:     wiki,
		settings: settings,
		logger:   logger,
	}
}

// Register installs the media task handlers
func (s *MediaSync) Register(r TaskRegistry) {
	r.Register(scheduler.TaskMediaAddToWiki, s.handleAddToWiki)
	r.Register(scheduler.TaskMediaRemoveFromWiki, s.handleRemoveFromWiki)
	r.Register(scheduler.TaskMediaStoreData, s.handleStoreData)
	r.Register(scheduler.TaskTicketUpdateMedia, s.handleUpdateTicketMedia)
}

func (s *MediaSync) handleAddToWiki(ctx context.Context, task *scheduler.Task) error {
	var p MediaTaskParams
	if err := task.Decode(&p); err != nil {
		return err
	}
	return s.AddToWiki(ctx, p.MediaID, p.UserID)
}

func (s *MediaSync) handleRemoveFromWiki(ctx context.Context, task *scheduler.Task) error {
	var p PageTaskParams
	if err := task.Decode(&p); err != nil {
		return err
	}
	return s.RemoveFromWiki(ctx, p.PageID, p.UserID)
}

func (s *MediaSync) handleStoreData(ctx context.Context, task *scheduler.Task) error {
	var p MediaTaskParams
	if err := task.Decode(&p); err != nil {
		return err
	}
	return s.StoreData(ctx, p.MediaID)
}

func (s *MediaSync) handleUpdateTicketMedia(ctx context.Context, task *scheduler.Task) error {
	var p TicketTaskParams
	if err := task.Decode(&p); err != nil {
		return err
	}
	return s.UpdateTicketMedia(ctx, p.TicketID)
}

// AddToWiki puts the tracker template on the media's file page, editing
// as the user who attached it
func (s *MediaSync) AddToWiki(ctx context.Context, mediaID, userID int64) error {
	m, err := s.media.FindByID(ctx, mediaID)
	if shared.IsNotFound(err) {
		s.logger.Info("Media gone before wiki edit", zap.Int64("media_id", mediaID))
		return nil
	}
	if err != nil {
		return err
	}
	token, ok, err := s.token(ctx, userID)
	if err != nil || !ok {
		return err
	}
	t, err := s.tickets.FindByID(ctx, m.TicketID)
	if err != nil {
		return err
	}

	created := m.Created
	if created.IsZero() {
		created = time.Now()
	}
	template := tracker.BuildTemplate(s.settings.MediaTemplate, t.Subtopic.String(), created.Year(), t.ID)

	old, err := s.wiki.GetContent(ctx, token, m.PageID)
	if errors.Is(err, mediawiki.ErrPageNotFound) {
		s.logger.Info("File page gone before wiki edit", zap.Int64("media_id", m.ID), zap.Int64("page_id", m.PageID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get content of page %d: %w", m.PageID, err)
	}
	text, changed := tracker.InsertTemplate(old, s.settings.MediaTemplate, template, s.settings.InfoTemplate)
	if !changed {
		return nil
	}
	if err := s.wiki.PutContent(ctx, token, m.PageID, text, addTemplateSummary, true); err != nil {
		return fmt.Errorf("put content of page %d: %w", m.PageID, err)
	}
	s.logger.Info("Tracker template added", zap.Int64("media_id", m.ID), zap.Int64("page_id", m.PageID))
	return nil
}

// RemoveFromWiki strips the tracker template from a file page
func (s *MediaSync) RemoveFromWiki(ctx context.Context, pageID, userID int64) error {
	token, ok, err := s.token(ctx, userID)
	if err != nil || !ok {
		return err
	}
	old, err := s.wiki.GetContent(ctx, token, pageID)
	if errors.Is(err, mediawiki.ErrPageNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get content of page %d: %w", pageID, err)
	}
	text := tracker.StripTemplate(old, s.settings.MediaTemplate)
	if text == old {
		return nil
	}
	if err := s.wiki.PutContent(ctx, token, pageID, text, removeTemplateSummary, true); err != nil {
		return fmt.Errorf("put content of page %d: %w", pageID, err)
	}
	s.logger.Info("Tracker template removed", zap.Int64("page_id", pageID))
	return nil
}

// StoreData copies dimensions, thumbnail, categories and usages of a
// media item from the wiki
func (s *MediaSync) StoreData(ctx context.Context, mediaID int64) error {
	m, err := s.media.FindByID(ctx, mediaID)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store(ctx, m)
}

// UpdateTicketMedia refreshes every media item of a ticket, then stamps
// the ticket's media_updated
func (s *MediaSync) UpdateTicketMedia(ctx context.Context, ticketID int64) error {
	items, err := s.media.FindByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	for _, m := range items {
		if err := s.store(ctx, m); err != nil {
			return err
		}
	}
	if err := s.tickets.SetMediaUpdated(ctx, ticketID); err != nil {
		return err
	}
	s.logger.Info("Ticket media refreshed", zap.Int64("ticket_id", ticketID), zap.Int("media", len(items)))
	return nil
}

func (s *MediaSync) store(ctx context.Context, m *tracker.MediaInfo) error {
	data, err := s.wiki.MediaData(ctx, m.PageID, s.settings.ThumbWidth)
	if err != nil {
		return fmt.Errorf("media data of page %d: %w", m.PageID, err)
	}
	if data.Title != "" {
		m.PageTitle = data.Title
	}
	m.Width, m.Height, m.ThumbURL = data.Width, data.Height, data.URL
	m.Categories = make([]tracker.MediaInfoCategory, 0, len(data.Categories))
	for _, c := range data.Categories {
		m.Categories = append(m.Categories, tracker.MediaInfoCategory{MediaInfoID: m.ID, Title: c})
	}
	m.Usages = make([]tracker.MediaInfoUsage, 0, len(data.Usages))
	for _, u := range data.Usages {
		m.Usages = append(m.Usages, tracker.MediaInfoUsage{
			MediaInfoID: m.ID,
			URL:         u.URL,
			Title:       u.Title,
			Project:     u.Wiki,
		})
	}
	return s.media.Update(ctx, m)
}

// token returns the user's wiki token. ok is false when the user cannot
// edit the wiki, in which case the task is dropped.
func (s *MediaSync) token(ctx context.Context, userID int64) (string, bool, error) {
	profile, err := s.profiles.FindProfile(ctx, userID)
	if shared.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !profile.HasMediawikiToken() {
		s.logger.Info("No wiki token, skipping edit", zap.Int64("user_id", userID))
		return "", false, nil
	}
	return profile.MediawikiToken, true, nil
}
