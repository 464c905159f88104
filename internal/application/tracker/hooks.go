package tracker

import (
	"context"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// hooks holds what every tracker service runs after a mutation
type hooks struct {
	events   *events
	rows     RowsInvalidator
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

func newHooks(settings Settings, logger *zap.Logger) hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return hooks{
		events:   newEvents(nil, settings, logger),
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier sets where ticket events are reported
func (h *hooks) SetNotifier(n Notifier) {
	h.events.notifier = n
}

// SetMetrics sets the instruments ticket events are counted on
func (h *hooks) SetMetrics(m *telemetry.Metrics) {
	h.events.metrics = m
}

// SetRowsCache sets the cached ticket listing to invalidate on changes
func (h *hooks) SetRowsCache(r RowsInvalidator) {
	h.rows = r
}

// invalidate drops the cached rows. Archived rows are dropped too when
// the ticket is or was completed.
func (h *hooks) invalidate(ctx context.Context, archived bool) {
	if h.rows == nil {
		return
	}
	if err := h.rows.Invalidate(ctx, archived); err != nil {
		h.logger.Warn("Failed to invalidate ticket rows", zap.Error(err))
	}
}

func requireUser(user *identity.User) error {
	if !user.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	return nil
}

// isStaff reports whether user may write the admin-only ticket and
// expense fields
func isStaff(user *identity.User) bool {
	return user.IsAuthenticated() && (user.IsStaff || user.IsSuperuser)
}

func parseDate(value string) (*time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("Dates use the YYYY-MM-DD format")
	}
	return &d, nil
}

func removeAck(acks []tracker.TicketAck, id int64) []tracker.TicketAck {
	out := make([]tracker.TicketAck, 0, len(acks))
	for _, a := range acks {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
