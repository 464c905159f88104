package tracker

import (
	"context"
	"strings"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TicketService handles the ticket lifecycle and its acks
type TicketService struct {
	hooks
	tickets    tracker.TicketRepository
	topics     tracker.TopicRepository
	subtopics  tracker.SubtopicRepository
	signatures tracker.SignatureRepository
	users      identity.UserRepository
	profiles   identity.ProfileRepository
}

// NewTicketService creates a new TicketService
func NewTicketService(
	tickets tracker.TicketRepository,
	topics tracker.TopicRepository,
	subtopics tracker.SubtopicRepository,
	signatures tracker.SignatureRepository,
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	settings Settings,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		hooks:      newHooks(settings, logger),
		tickets:    tickets,
		topics:     topics,
		subtopics:  subtopics,
		signatures: signatures,
		users:      users,
		profiles:   profiles,
	}
}

// Create opens a ticket requested by user
func (s *TicketService) Create(ctx context.Context, user *identity.User, req CreateTicketRequest) (*TicketResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ticket", "create", attribute.Int64("topic.id", req.TopicID))
	defer span.End()

	if err := requireUser(user); err != nil {
		return nil, err
	}
	topic, err := s.topics.FindByID(ctx, req.TopicID)
	if err != nil {
		return nil, err
	}
	if !topic.OpenForTickets && !isStaff(user) {
		return nil, tracker.ErrTopicClosed
	}
	if err := tracker.ValidateDepositOnCreate(req.Deposit); err != nil {
		return nil, err
	}

	t, err := tracker.NewTicket(topic, user, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.applySubtopic(ctx, t, req.SubtopicID); err != nil {
		return nil, err
	}
	if req.EventDate != "" {
		if t.EventDate, err = parseDate(req.EventDate); err != nil {
			return nil, err
		}
	}
	t.EventURL = req.EventURL
	t.ReportURL = req.ReportURL
	t.Description = req.Description
	t.Deposit = req.Deposit
	t.CarTravel = req.CarTravel
	t.StatutoryDeclaration = req.StatutoryDeclaration
	if isStaff(user) {
		if err := s.applyAdminFields(ctx, t, req.TicketAdminFields); err != nil {
			return nil, err
		}
	}
	if err := t.ValidateStatutoryDeclaration(); err != nil {
		return nil, err
	}

	if topic.TicketExpenses {
		for _, in := range req.Expeditures {
			e, err := tracker.NewExpediture(0, in.Description, in.Amount, in.Wage)
			if err != nil {
				return nil, err
			}
			t.Expeditures = append(t.Expeditures, *e)
		}
	}
	if topic.TicketPreexpenses {
		for _, in := range req.Preexpeditures {
			p, err := tracker.NewPreexpediture(0, in.Description, in.Amount, in.Wage)
			if err != nil {
				return nil, err
			}
			t.Preexpeditures = append(t.Preexpeditures, *p)
		}
	}

	now := s.now()
	t.Created = now
	t.Touch(nil, now)
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Ticket created",
		zap.Int64("ticket_id", t.ID),
		zap.Int64("topic_id", t.TopicID),
		zap.Int64("user_id", user.ID))

	s.events.ticketCreated(ctx, t, user)
	s.invalidate(ctx, false)
	return s.response(ctx, t.ID)
}

// Get returns a ticket
func (s *TicketService) Get(ctx context.Context, id int64) (*TicketResponse, error) {
	return s.response(ctx, id)
}

// List returns one page of tickets and the total match count
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]TicketResponse, int64, error) {
	tickets, total, err := s.tickets.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ToTicketResponse(t))
	}
	return out, total, nil
}

// CanWrite reports whether user may change or delete the ticket: staff
// holding add and change rights, or the requester while it is editable
func CanWrite(t *tracker.Ticket, user *identity.User) bool {
	if user.HasPerms(identity.PermAddTicket, identity.PermChangeTicket) {
		return true
	}
	return t.CanEdit(user)
}

// Update changes ticket fields. Admin fields are ignored for non-staff.
func (s *TicketService) Update(ctx context.Context, user *identity.User, id int64, req UpdateTicketRequest) (*TicketResponse, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanWrite(t, user) {
		return nil, shared.ErrForbidden.WithMessage("You cannot edit this ticket")
	}
	old := *t
	staff := isStaff(user)

	if req.Name != nil {
		if err := t.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.TopicID != nil && *req.TopicID != t.TopicID {
		topic, err := s.topics.FindByID(ctx, *req.TopicID)
		if err != nil {
			return nil, err
		}
		if !topic.OpenForTickets && !staff {
			return nil, tracker.ErrTopicClosed
		}
		t.TopicID = topic.ID
		t.Topic = topic
		if req.SubtopicID == nil {
			t.SubtopicID, t.Subtopic = nil, nil
		}
	}
	switch {
	case req.ClearSubtopic:
		t.SubtopicID, t.Subtopic = nil, nil
	case req.SubtopicID != nil:
		if err := s.applySubtopic(ctx, t, req.SubtopicID); err != nil {
			return nil, err
		}
	}
	if req.EventDate != nil {
		if t.EventDate, err = parseDate(*req.EventDate); err != nil {
			return nil, err
		}
	}
	if req.EventURL != nil {
		t.EventURL = strings.TrimSpace(*req.EventURL)
	}
	if req.ReportURL != nil {
		t.ReportURL = strings.TrimSpace(*req.ReportURL)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Deposit != nil {
		if !staff {
			if err := old.ValidateDepositOnUpdate(*req.Deposit); err != nil {
				return nil, err
			}
		}
		t.Deposit = *req.Deposit
	}
	if req.CarTravel != nil {
		t.CarTravel = *req.CarTravel
	}
	if req.StatutoryDeclaration != nil {
		t.StatutoryDeclaration = *req.StatutoryDeclaration
	}
	if staff {
		if err := s.applyAdminFields(ctx, t, req.TicketAdminFields); err != nil {
			return nil, err
		}
	}
	if err := t.ValidateStatutoryDeclaration(); err != nil {
		return nil, err
	}

	t.Touch(&old, s.now())
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	s.events.ticketChanged(ctx, &old, t, user)
	s.invalidate(ctx, old.IsCompleted || t.IsCompleted)
	return s.response(ctx, t.ID)
}

// Delete removes a ticket with everything attached to it
func (s *TicketService) Delete(ctx context.Context, user *identity.User, id int64) error {
	if err := requireUser(user); err != nil {
		return err
	}
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanWrite(t, user) {
		return shared.ErrForbidden.WithMessage("You cannot delete this ticket")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Ticket deleted", zap.Int64("ticket_id", id), zap.Int64("user_id", user.ID))
	s.events.ticketDeleted(ctx, t, user)
	s.invalidate(ctx, t.IsCompleted)
	return nil
}

// AckResult is the added ack plus hints for the caller
type AckResult struct {
	Ack    AckResponse    `json:"ack"`
	Ticket TicketResponse `json:"ticket"`
	// MissingBankAccount is set when a requester submits content without
	// bank details to be reimbursed to
	MissingBankAccount bool `json:"missing_bank_account"`
}

// AddAck adds an ack. Requesters add the user acks still possible on
// their ticket; supervisors and topic admins add the rest, subject to
// the minimum wait after the matching user ack.
func (s *TicketService) AddAck(ctx context.Context, user *identity.User, ticketID int64, req AddAckRequest) (*AckResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ticket", "add_ack",
		attribute.Int64("ticket.id", ticketID),
		attribute.String("ack.type", req.AckType),
	)
	defer span.End()

	if err := requireUser(user); err != nil {
		return nil, err
	}
	ackType := tracker.AckType(req.AckType)
	if !ackType.IsValid() {
		return nil, tracker.ErrUnknownAckType
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	userAck := ackType.IsUserEditable() && t.CanEdit(user)
	switch {
	case userAck:
		possible := false
		for _, a := range t.PossibleUserAckTypes() {
			if a == ackType {
				possible = true
			}
		}
		if !possible {
			return nil, tracker.ErrAckNotAllowed
		}
	case t.CanAdminAck(user):
		if t.HasAck(ackType) {
			return nil, tracker.ErrAckExists
		}
		if !t.CanAckBeAdded(ackType, now, s.settings.MinWait) {
			return nil, tracker.ErrAckNotAllowed
		}
	default:
		return nil, shared.ErrForbidden.WithMessage("You cannot add ack to a ticket you do not own.")
	}

	addedBy := user.ID
	ack, err := tracker.NewTicketAck(t.ID, ackType, &addedBy, req.Comment, now)
	if err != nil {
		return nil, err
	}
	wasCompleted := t.IsCompleted
	t.Acks = append(t.Acks, *ack)
	t.Updated = now
	t.RecomputeDerived()
	if err := s.tickets.AddAck(ctx, t, ack); err != nil {
		return nil, err
	}
	ack.AddedBy = user.Username
	s.logger.Info("Ack added",
		zap.Int64("ticket_id", t.ID),
		zap.String("ack_type", string(ackType)),
		zap.Int64("user_id", user.ID))

	s.events.ackAdded(ctx, t, ack, user)
	s.invalidate(ctx, wasCompleted || t.IsCompleted)

	result := &AckResult{Ack: ToAckResponse(ack)}
	if ackType == tracker.AckUserContent {
		profile, err := s.profiles.FindProfile(ctx, user.ID)
		if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}
		result.MissingBankAccount = profile == nil || profile.BankAccount == ""
	}
	resp, err := s.response(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	result.Ticket = *resp
	return result, nil
}

// RemoveAck removes an ack. Requesters remove their own user acks while
// the ticket is editable; supervisors remove any.
func (s *TicketService) RemoveAck(ctx context.Context, user *identity.User, ticketID, ackID int64) (*TicketResponse, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	var ack *tracker.TicketAck
	for i := range t.Acks {
		if t.Acks[i].ID == ackID {
			a := t.Acks[i]
			ack = &a
		}
	}
	if ack == nil {
		return nil, shared.ErrNotFound
	}
	if !user.IsSupervisor() && !(t.CanEdit(user) && ack.UserRemovable()) {
		return nil, shared.ErrForbidden.WithMessage("You cannot edit this")
	}

	wasCompleted := t.IsCompleted
	t.Acks = removeAck(t.Acks, ackID)
	t.Updated = s.now()
	t.RecomputeDerived()
	if err := s.tickets.RemoveAck(ctx, t, ackID); err != nil {
		return nil, err
	}
	s.logger.Info("Ack removed",
		zap.Int64("ticket_id", t.ID),
		zap.String("ack_type", string(ack.AckType)),
		zap.Int64("user_id", user.ID))

	s.events.ackRemoved(ctx, t, ack, user)
	s.invalidate(ctx, wasCompleted || t.IsCompleted)
	return s.response(ctx, t.ID)
}

// CopyPreexpeditures replaces the real expeditures by copies of the
// planned ones
func (s *TicketService) CopyPreexpeditures(ctx context.Context, user *identity.User, ticketID int64) (*TicketResponse, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !t.CanCopyPreexpeditures(user) {
		return nil, shared.ErrForbidden.WithMessage("You cannot edit this")
	}

	removed := t.Expeditures
	copies := make([]*tracker.Expediture, 0, len(t.Preexpeditures))
	t.Expeditures = nil
	for i := range t.Preexpeditures {
		e := t.Preexpeditures[i].ToExpediture(t.ID)
		copies = append(copies, e)
		t.Expeditures = append(t.Expeditures, *e)
	}
	t.Updated = s.now()
	t.RecomputeDerived()
	if err := s.tickets.ReplaceExpeditures(ctx, t, copies); err != nil {
		return nil, err
	}

	for i := range removed {
		s.events.expeditureRemoved(ctx, t, &removed[i], user)
	}
	for _, e := range copies {
		s.events.expeditureAdded(ctx, t, e, user)
	}
	s.invalidate(ctx, t.IsCompleted)
	return s.response(ctx, t.ID)
}

// SignState reports whether user signed the ticket's declaration
func (s *TicketService) SignState(ctx context.Context, user *identity.User, ticketID int64) (*SignStatus, error) {
	t, err := s.signable(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	signed, err := s.signatures.Exists(ctx, t.ID, user.ID)
	if err != nil {
		return nil, err
	}
	return &SignStatus{Signed: signed, Declaration: s.settings.StatutoryText}, nil
}

// Sign records or withdraws user's statutory declaration for a ticket
// they did not request
func (s *TicketService) Sign(ctx context.Context, user *identity.User, ticketID int64, req SignRequest) (*SignStatus, error) {
	t, err := s.signable(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	exists, err := s.signatures.Exists(ctx, t.ID, user.ID)
	if err != nil {
		return nil, err
	}
	switch {
	case req.StatutoryDeclaration && !exists:
		if err := s.signatures.Create(ctx, tracker.NewSignature(t.ID, user.ID, s.settings.StatutoryText)); err != nil {
			return nil, err
		}
		s.logger.Info("Statutory declaration signed", zap.Int64("ticket_id", t.ID), zap.Int64("user_id", user.ID))
	case !req.StatutoryDeclaration:
		if err := s.signatures.DeleteFor(ctx, t.ID, user.ID); err != nil {
			return nil, err
		}
	}
	return &SignStatus{Signed: req.StatutoryDeclaration, Declaration: s.settings.StatutoryText}, nil
}

// Signatures lists the declarations signed for a ticket
func (s *TicketService) Signatures(ctx context.Context, ticketID int64) ([]SignatureResponse, error) {
	if _, err := s.tickets.FindByID(ctx, ticketID); err != nil {
		return nil, err
	}
	sigs, err := s.signatures.FindByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	out := make([]SignatureResponse, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, SignatureResponse{
			ID:         sig.ID,
			UserID:     sig.UserID,
			TicketID:   sig.TicketID,
			SignedText: sig.SignedText,
			Created:    sig.Created,
		})
	}
	return out, nil
}

func (s *TicketService) signable(ctx context.Context, user *identity.User, ticketID int64) (*tracker.Ticket, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !t.SupportsSignatures() {
		return nil, tracker.ErrSignatureUnsupported
	}
	if t.IsRequester(user) {
		return nil, shared.ErrForbidden.WithMessage("Requesters declare through the ticket itself")
	}
	return t, nil
}

func (s *TicketService) applySubtopic(ctx context.Context, t *tracker.Ticket, id *int64) error {
	if id == nil {
		return nil
	}
	sub, err := s.subtopics.FindByID(ctx, *id)
	if shared.IsNotFound(err) {
		return tracker.ErrSubtopicMismatch
	}
	if err != nil {
		return err
	}
	if err := t.ValidateSubtopic(sub); err != nil {
		return err
	}
	t.SubtopicID = &sub.ID
	t.Subtopic = sub
	return nil
}

func (s *TicketService) applyAdminFields(ctx context.Context, t *tracker.Ticket, f TicketAdminFields) error {
	if f.RatingPercentage != nil {
		rating := *f.RatingPercentage
		t.RatingPercentage = &rating
	}
	if f.SupervisorNotes != nil {
		t.SupervisorNotes = *f.SupervisorNotes
	}
	if f.MandatoryReport != nil {
		t.MandatoryReport = *f.MandatoryReport
	}
	if f.Imported != nil {
		t.Imported = *f.Imported
	}
	if f.EnableComments != nil {
		t.EnableComments = *f.EnableComments
	}
	if f.RequestedText != nil {
		t.RequestedText = *f.RequestedText
	}
	if f.RequestedUserID != nil {
		requester, err := s.users.FindByID(ctx, *f.RequestedUserID)
		if err != nil {
			return err
		}
		t.RequestedUserID = &requester.ID
		t.RequestedUser = requester
	}
	return nil
}

func (s *TicketService) response(ctx context.Context, id int64) (*TicketResponse, error) {
	t, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(t)
	return &resp, nil
}
