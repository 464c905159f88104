package tracker

import (
	"context"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"go.uber.org/zap"
)

// ExpenseService manages expeditures and preexpeditures of tickets
type ExpenseService struct {
	hooks
	tickets tracker.TicketRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(tickets tracker.TicketRepository, settings Settings, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		hooks:   newHooks(settings, logger),
		tickets: tickets,
	}
}

// ListExpeditures lists expeditures of one ticket, or of every ticket
func (s *ExpenseService) ListExpeditures(ctx context.Context, filter ExpenseListFilter) ([]ExpeditureResponse, error) {
	ids, err := s.ticketIDs(ctx, filter.TicketID)
	if err != nil {
		return nil, err
	}
	items, err := s.tickets.ListExpeditures(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ExpeditureResponse, 0, len(items))
	for _, e := range items {
		if filter.Wage != nil && e.Wage != *filter.Wage {
			continue
		}
		if filter.Paid != nil && e.Paid != *filter.Paid {
			continue
		}
		out = append(out, ToExpeditureResponse(e))
	}
	return out, nil
}

// GetExpediture returns one expediture
func (s *ExpenseService) GetExpediture(ctx context.Context, id int64) (*ExpeditureResponse, error) {
	e, err := s.tickets.FindExpediture(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpeditureResponse(e)
	return &resp, nil
}

// CreateExpediture adds a real expense to a ticket
func (s *ExpenseService) CreateExpediture(ctx context.Context, user *identity.User, req CreateExpeditureRequest) (*ExpeditureResponse, error) {
	t, err := s.writableTicket(ctx, user, req.TicketID)
	if err != nil {
		return nil, err
	}
	if !t.CanEditExpeditures(user, identity.PermAddExpediture) {
		return nil, tracker.ErrExpeditureLocked
	}
	e, err := tracker.NewExpediture(t.ID, req.Description, req.Amount, req.Wage)
	if err != nil {
		return nil, err
	}
	if isStaff(user) {
		if req.AccountingInfo != nil {
			e.AccountingInfo = *req.AccountingInfo
		}
		if req.Paid != nil {
			e.Paid = *req.Paid
		}
	}

	t.Expeditures = append(t.Expeditures, *e)
	t.Updated = s.now()
	t.RecomputeDerived()
	if err := s.tickets.SaveExpediture(ctx, t, e); err != nil {
		return nil, err
	}
	s.logger.Info("Expediture added",
		zap.Int64("ticket_id", t.ID),
		zap.Int64("expediture_id", e.ID),
		zap.String("amount", e.Amount.StringFixed(2)))

	s.events.expeditureAdded(ctx, t, e, user)
	s.invalidate(ctx, t.IsCompleted)
	resp := ToExpeditureResponse(e)
	return &resp, nil
}

// UpdateExpediture changes an expediture. Accounting info and the paid
// flag only change for staff.
func (s *ExpenseService) UpdateExpediture(ctx context.Context, user *identity.User, id int64, req UpdateExpeditureRequest) (*ExpeditureResponse, error) {
	current, err := s.tickets.FindExpediture(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.writableTicket(ctx, user, current.TicketID)
	if err != nil {
		return nil, err
	}
	if !t.CanEditExpeditures(user, identity.PermChangeExpediture) {
		return nil, tracker.ErrExpeditureLocked
	}

	old := *current
	description, amount, wage := current.Description, current.Amount, current.Wage
	if req.Description != nil {
		description = *req.Description
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.Wage != nil {
		wage = *req.Wage
	}
	validated, err := tracker.NewExpediture(t.ID, description, amount, wage)
	if err != nil {
		return nil, err
	}
	e := current
	e.Description, e.Amount, e.Wage = validated.Description, validated.Amount, validated.Wage
	if isStaff(user) {
		if req.AccountingInfo != nil {
			e.AccountingInfo = *req.AccountingInfo
		}
		if req.Paid != nil {
			e.Paid = *req.Paid
		}
	}

	for i := range t.Expeditures {
		if t.Expeditures[i].ID == e.ID {
			t.Expeditures[i] = *e
		}
	}
	wasCompleted := t.IsCompleted
	t.Updated = s.now()
	t.RecomputeDerived()
	if err := s.tickets.SaveExpediture(ctx, t, e); err != nil {
		return nil, err
	}
	s.events.expeditureChanged(ctx, t, &old, e, user)
	s.invalidate(ctx, wasCompleted || t.IsCompleted)
	resp := ToExpeditureResponse(e)
	return &resp, nil
}

// DeleteExpediture removes an expediture
func (s *ExpenseService) DeleteExpediture(ctx context.Context, user *identity.User, id int64) error {
	e, err := s.tickets.FindExpediture(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.writableTicket(ctx, user, e.TicketID)
	if err != nil {
		return err
	}
	if !t.CanEditExpeditures(user, identity.PermChangeExpediture) {
		return tracker.ErrExpeditureLocked
	}

	kept := make([]tracker.Expediture, 0, len(t.Expeditures))
	for _, x := range t.Expeditures {
		if x.ID != id {
			kept = append(kept, x)
		}
	}
	t.Expeditures = kept
	t.Updated = s.now()
	t.RecomputeDerived()
	if err := s.tickets.DeleteExpediture(ctx, t, id); err != nil {
		return err
	}
	s.events.expeditureRemoved(ctx, t, e, user)
	s.invalidate(ctx, t.IsCompleted)
	return nil
}

// ListPreexpeditures lists preexpeditures of one ticket, or of every ticket
func (s *ExpenseService) ListPreexpeditures(ctx context.Context, filter ExpenseListFilter) ([]PreexpeditureResponse, error) {
	ids, err := s.ticketIDs(ctx, filter.TicketID)
	if err != nil {
		return nil, err
	}
	items, err := s.tickets.ListPreexpeditures(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PreexpeditureResponse, 0, len(items))
	for _, p := range items {
		if filter.Wage != nil && p.Wage != *filter.Wage {
			continue
		}
		out = append(out, ToPreexpeditureResponse(p))
	}
	return out, nil
}

// GetPreexpediture returns one preexpediture
func (s *ExpenseService) GetPreexpediture(ctx context.Context, id int64) (*PreexpeditureResponse, error) {
	p, err := s.tickets.FindPreexpediture(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPreexpeditureResponse(p)
	return &resp, nil
}

// CreatePreexpediture adds a planned expense to a ticket
func (s *ExpenseService) CreatePreexpediture(ctx context.Context, user *identity.User, req CreatePreexpeditureRequest) (*PreexpeditureResponse, error) {
	t, err := s.writableTicket(ctx, user, req.TicketID)
	if err != nil {
		return nil, err
	}
	if !t.CanEditPreexpeditures(user, identity.PermAddPreexpediture) {
		return nil, tracker.ErrPreexpeditureLocked
	}
	p, err := tracker.NewPreexpediture(t.ID, req.Description, req.Amount, req.Wage)
	if err != nil {
		return nil, err
	}

	t.Preexpeditures = append(t.Preexpeditures, *p)
	t.Updated = s.now()
	if err := s.tickets.SavePreexpediture(ctx, t, p); err != nil {
		return nil, err
	}
	s.logger.Info("Preexpediture added",
		zap.Int64("ticket_id", t.ID),
		zap.Int64("preexpediture_id", p.ID),
		zap.String("amount", p.Amount.StringFixed(2)))

	s.events.preexpeditureAdded(ctx, t, p, user)
	s.invalidate(ctx, t.IsCompleted)
	resp := ToPreexpeditureResponse(p)
	return &resp, nil
}

// UpdatePreexpediture changes a preexpediture
func (s *ExpenseService) UpdatePreexpediture(ctx context.Context, user *identity.User, id int64, req UpdatePreexpeditureRequest) (*PreexpeditureResponse, error) {
	current, err := s.tickets.FindPreexpediture(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.writableTicket(ctx, user, current.TicketID)
	if err != nil {
		return nil, err
	}
	if !t.CanEditPreexpeditures(user, identity.PermChangePreexpediture) {
		return nil, tracker.ErrPreexpeditureLocked
	}

	old := *current
	description, amount, wage := current.Description, current.Amount, current.Wage
	if req.Description != nil {
		description = *req.Description
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.Wage != nil {
		wage = *req.Wage
	}
	validated, err := tracker.NewPreexpediture(t.ID, description, amount, wage)
	if err != nil {
		return nil, err
	}
	p := current
	p.Description, p.Amount, p.Wage = validated.Description, validated.Amount, validated.Wage

	t.Updated = s.now()
	if err := s.tickets.SavePreexpediture(ctx, t, p); err != nil {
		return nil, err
	}
	s.events.preexpeditureChanged(ctx, t, &old, p, user)
	s.invalidate(ctx, t.IsCompleted)
	resp := ToPreexpeditureResponse(p)
	return &resp, nil
}

// DeletePreexpediture removes a preexpediture
func (s *ExpenseService) DeletePreexpediture(ctx context.Context, user *identity.User, id int64) error {
	p, err := s.tickets.FindPreexpediture(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.writableTicket(ctx, user, p.TicketID)
	if err != nil {
		return err
	}
	if !t.CanEditPreexpeditures(user, identity.PermChangePreexpediture) {
		return tracker.ErrPreexpeditureLocked
	}

	t.Updated = s.now()
	if err := s.tickets.DeletePreexpediture(ctx, t, id); err != nil {
		return err
	}
	s.events.preexpeditureRemoved(ctx, t, p, user)
	s.invalidate(ctx, t.IsCompleted)
	return nil
}

func (s *ExpenseService) writableTicket(ctx context.Context, user *identity.User, ticketID int64) (*tracker.Ticket, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if shared.IsNotFound(err) {
		return nil, shared.ErrInvalidInput.WithMessage("Ticket does not exist")
	}
	return t, err
}

func (s *ExpenseService) ticketIDs(ctx context.Context, ticketID *int64) ([]int64, error) {
	if ticketID != nil {
		return []int64{*ticketID}, nil
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids, nil
}
