package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// MaintenanceService backs the operator commands that repair wiki state
// in bulk
type MaintenanceService struct {
	tickets tracker.TicketRepository
	media   tracker.MediaRepository
	users   identity.UserRepository
	queue   TaskQueue
	// maintenanceUser edits the wiki when a task is requeued by hand
	maintenanceUser string
	logger          *zap.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(
	tickets tracker.TicketRepository,
	media tracker.MediaRepository,
	users identity.UserRepository,
	queue TaskQueue,
	maintenanceUser string,
	logger *zap.Logger,
) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		tickets:         tickets,
		media:           media,
		users:           users,
		queue:           queue,
		maintenanceUser: maintenanceUser,
		logger:          logger,
	}
}

// RequeueTickets schedules the wiki template edit again for every media
// item of the given tickets. It stops at the first unknown ticket.
func (s *MaintenanceService) RequeueTickets(ctx context.Context, ticketIDs []int64) (int, error) {
	var userID int64
	if s.maintenanceUser != "" {
		u, err := s.users.FindByUsername(ctx, s.maintenanceUser)
		if err != nil {
			return 0, fmt.Errorf("maintenance user %q: %w", s.maintenanceUser, err)
		}
		userID = u.ID
	}

	queued := 0
	for _, id := range ticketIDs {
		if _, err := s.tickets.FindByID(ctx, id); err != nil {
			if shared.IsNotFound(err) {
				return queued, fmt.Errorf("ticket %d does not exist: %w", id, err)
			}
			return queued, err
		}
		items, err := s.media.FindByTicket(ctx, id)
		if err != nil {
			return queued, err
		}
		for _, m := range items {
			if err := s.queue.Enqueue(ctx, scheduler.TaskMediaAddToWiki, MediaTaskParams{MediaID: m.ID, UserID: userID}); err != nil {
				return queued, err
			}
			queued++
		}
	}
	s.logger.Info("Requeued wiki edits", zap.Int("tickets", len(ticketIDs)), zap.Int("media", queued))
	return queued, nil
}

// ScheduleMediaUpdates queues a media refresh for every ticket that has
// media and is neither archived nor closed
func (s *MaintenanceService) ScheduleMediaUpdates(ctx context.Context) (int, error) {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{OrderBy: "id"})
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, t := range tickets {
		if t.MediaCount == 0 || t.HasAck(tracker.AckArchive) || t.HasAck(tracker.AckClose) {
			continue
		}
		stored, err := s.queue.EnqueueUnique(ctx, scheduler.TaskTicketUpdateMedia, TicketTaskParams{TicketID: t.ID})
		if err != nil {
			return queued, err
		}
		if stored {
			queued++
		}
	}
	return queued, nil
}

// WriteFiles dumps the ticket listings as static JSON for serving without
// the API: <dir>/<lang>.json for active tickets and
// <dir>/archived/<lang>.json for completed ones. Existing archived files
// are kept unless refreshArchived is set.
func (s *RowsService) WriteFiles(ctx context.Context, dir string, langs []string, refreshArchived bool) error {
	if err := os.MkdirAll(filepath.Join(dir, "archived"), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, lang := range langs {
		tag := i18n.Tag(lang).String()
		for _, archived := range []bool{false, true} {
			name := filepath.Join(dir, tag+".json")
			if archived {
				name = filepath.Join(dir, "archived", tag+".json")
				if _, err := os.Stat(name); err == nil && !refreshArchived {
					continue
				}
			}
			body, err := s.build(ctx, tag, archived)
			if err != nil {
				return err
			}
			if err := os.WriteFile(name, body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
		}
	}
	return nil
}
