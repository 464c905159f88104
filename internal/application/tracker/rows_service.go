package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/cache"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"go.uber.org/zap"
)

// RowsCache stores rendered ticket listings
type RowsCache interface {
	Get(ctx context.Context, lang string, archived bool) ([]byte, error)
	Set(ctx context.Context, lang string, archived bool, rows []byte) error
}

// RowRef links a row cell to another object
type RowRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TicketRow is one line of the ticket listing
type TicketRow struct {
	ID                  int64           `json:"id"`
	EventDate           *string         `json:"event_date"`
	Name                string          `json:"name"`
	Grant               RowRef          `json:"grant"`
	GrantSlug           string          `json:"grant_slug"`
	Topic               RowRef          `json:"topic"`
	Subtopic            *RowRef         `json:"subtopic"`
	RequestedBy         string          `json:"requested_by"`
	RequestedUser       *string         `json:"requested_user"`
	Preexpeditures      decimal.Decimal `json:"preexpeditures"`
	Expeditures         decimal.Decimal `json:"expeditures"`
	AcceptedExpeditures decimal.Decimal `json:"accepted_expeditures"`
	PaidExpeditures     decimal.Decimal `json:"paid_expeditures"`
	State               tracker.State   `json:"state"`
	Updated             time.Time       `json:"updated"`
}

type ticketRows struct {
	Data []TicketRow `json:"data"`
}

// RowsService serves the cached ticket listing. Completed tickets are
// kept apart from active ones since they rarely change.
type RowsService struct {
	tickets tracker.TicketRepository
	cache   RowsCache
	logger  *zap.Logger
}

// NewRowsService creates a new RowsService. cache may be nil.
func NewRowsService(tickets tracker.TicketRepository, rows RowsCache, logger *zap.Logger) *RowsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowsService{tickets: tickets, cache: rows, logger: logger}
}

// Rows returns the JSON listing of active or completed tickets in lang,
// newest first
func (s *RowsService) Rows(ctx context.Context, lang string, archived bool) ([]byte, error) {
	lang = i18n.Tag(lang).String()
	if s.cache != nil {
		body, err := s.cache.Get(ctx, lang, archived)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Ticket rows cache unavailable", zap.Error(err))
		}
	}

	body, err := s.build(ctx, lang, archived)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, lang, archived, body); err != nil {
			s.logger.Warn("Failed to cache ticket rows", zap.Error(err))
		}
	}
	return body, nil
}

// Warm fills the cache for every language
func (s *RowsService) Warm(ctx context.Context, langs []string) error {
	if s.cache == nil {
		return nil
	}
	for _, lang := range langs {
		for _, archived := range []bool{false, true} {
			body, err := s.build(ctx, i18n.Tag(lang).String(), archived)
			if err != nil {
				return err
			}
			if err := s.cache.Set(ctx, i18n.Tag(lang).String(), archived, body); err != nil {
				return err
			}
		}
		s.logger.Info("Ticket rows cached", zap.String("lang", lang))
	}
	return nil
}

func (s *RowsService) build(ctx context.Context, lang string, archived bool) ([]byte, error) {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{
		IsCompleted: &archived,
		OrderBy:     "-id",
	})
	if err != nil {
		return nil, err
	}
	out := ticketRows{Data: make([]TicketRow, 0, len(tickets))}
	for _, t := range tickets {
		out.Data = append(out.Data, BuildTicketRow(t, lang))
	}
	return json.Marshal(out)
}

// BuildTicketRow renders a ticket as a listing row with the state in lang
func BuildTicketRow(t *tracker.Ticket, lang string) TicketRow {
	_, pre := t.PreexpeditureTotals()
	_, spent := t.ExpeditureTotals()
	state := t.State()
	state.Display = i18n.T(lang, state.Display)

	row := TicketRow{
		ID:                  t.ID,
		Name:                t.Name,
		RequestedBy:         t.RequestedBy(),
		Preexpeditures:      pre,
		Expeditures:         spent,
		AcceptedExpeditures: t.AcceptedExpeditures(),
		PaidExpeditures:     t.PaidExpeditures(),
		State:               state,
		Updated:             t.Updated,
	}
	if t.EventDate != nil {
		d := t.EventDate.Format(dateLayout)
		row.EventDate = &d
	}
	if t.Topic != nil {
		row.Topic = RowRef{ID: t.Topic.ID, Name: t.Topic.Name}
		if t.Topic.Grant != nil {
			row.Grant = RowRef{ID: t.Topic.Grant.ID, Name: t.Topic.Grant.FullName}
			row.GrantSlug = t.Topic.Grant.Slug
		}
	}
	if t.Subtopic != nil {
		row.Subtopic = &RowRef{ID: t.Subtopic.ID, Name: t.Subtopic.Name}
	}
	if t.RequestedUser != nil {
		username := t.RequestedUser.Username
		row.RequestedUser = &username
	}
	return row
}
