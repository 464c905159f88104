package tracker

import (
	"context"
	"fmt"
	"strings"

	notifyapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/i18n"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Notifier records ticket events for later delivery
type Notifier interface {
	Fire(ctx context.Context, in notifyapp.FireInput) error
	HasPending(ctx context.Context, ticketID int64, types ...notification.Type) (bool, error)
	HasPendingText(ctx context.Context, t notification.Type, fragment string) (bool, error)
}

// events turns ticket mutations into notifications. A failed
// notification is logged; the mutation it reports is already stored.
type events struct {
	notifier Notifier
	metrics  *telemetry.Metrics
	baseURL  string
	currency string
	logger   *zap.Logger
}

func newEvents(notifier Notifier, settings Settings, logger *zap.Logger) *events {
	return &events{
		notifier: notifier,
		baseURL:  strings.TrimRight(settings.BaseURL, "/"),
		currency: settings.Currency,
		logger:   logger,
	}
}

// TicketURL is the public address of a ticket
func TicketURL(baseURL string, ticketID int64) string {
	return fmt.Sprintf("%s/ticket/%d/", strings.TrimRight(baseURL, "/"), ticketID)
}

func (e *events) url(t *tracker.Ticket) string {
	return TicketURL(e.baseURL, t.ID)
}

func (e *events) fire(ctx context.Context, t *tracker.Ticket, typ notification.Type, user *identity.User, msg notifyapp.Message) {
	e.fireInput(ctx, notifyapp.FireInput{Ticket: t, Type: typ, Sender: user, Message: msg})
}

func (e *events) fireInput(ctx context.Context, in notifyapp.FireInput) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Fire(ctx, in); err != nil {
		e.logger.Error("Failed to fire notification",
			zap.String("type", string(in.Type)),
			zap.Int64("ticket_id", in.Ticket.ID),
			zap.Error(err))
	}
}

// pending reports whether an undelivered event of types already covers
// the ticket; errors count as not pending
func (e *events) pending(ctx context.Context, t *tracker.Ticket, types ...notification.Type) bool {
	if e.notifier == nil {
		return false
	}
	ok, err := e.notifier.HasPending(ctx, t.ID, types...)
	if err != nil {
		e.logger.Warn("Failed to check pending notifications", zap.Int64("ticket_id", t.ID), zap.Error(err))
		return false
	}
	return ok
}

func (e *events) pendingText(ctx context.Context, typ notification.Type, fragment string) bool {
	if e.notifier == nil {
		return false
	}
	ok, err := e.notifier.HasPendingText(ctx, typ, fragment)
	if err != nil {
		e.logger.Warn("Failed to check pending notifications", zap.Error(err))
		return false
	}
	return ok
}

func (e *events) ticketCreated(ctx context.Context, t *tracker.Ticket, user *identity.User) {
	topic := ""
	if t.Topic != nil {
		topic = t.Topic.Name
	}
	if e.metrics != nil {
		e.metrics.TicketCreated(ctx, t.TopicID)
	}
	e.fire(ctx, t, notification.TypeTicketNew, user,
		notifyapp.NewMessage(i18n.MsgTicketNew, user.String(), e.url(t), t.String(), topic))
}

// ticketChanged reports field changes between the stored and the saved
// version. Changes to a ticket whose creation is still pending are folded
// into the ticket_new event, except for the supervisor fields.
func (e *events) ticketChanged(ctx context.Context, old, t *tracker.Ticket, user *identity.User) {
	msg := func(key string) notifyapp.Message {
		return notifyapp.NewMessage(key, user.String(), e.url(t), t.String())
	}
	if old.SupervisorNotes != t.SupervisorNotes {
		e.fire(ctx, t, notification.TypeSupervisorNotes, user, msg(i18n.MsgSupervisorNotes))
	}
	if !e.pending(ctx, t, notification.TypeTicketNew) {
		if old.Description != t.Description {
			e.fire(ctx, t, notification.TypeTicketChange, user, msg(i18n.MsgDescriptionChange))
		}
		if old.Name != t.Name {
			e.fire(ctx, t, notification.TypeTicketChange, user, msg(i18n.MsgNameChange))
		}
		if old.ReportURL != t.ReportURL {
			e.fire(ctx, t, notification.TypeTicketChange, user, msg(i18n.MsgReportURLChange))
		}
		if !old.Deposit.Equal(t.Deposit) {
			e.fire(ctx, t, notification.TypeTicketChange, user, msg(i18n.MsgDepositChange))
		}
	}
	if old.MandatoryReport != t.MandatoryReport {
		e.fire(ctx, t, notification.TypeTicketChange, user, msg(i18n.MsgMandatoryReport))
	}
}

func (e *events) ticketDeleted(ctx context.Context, t *tracker.Ticket, user *identity.User) {
	e.fire(ctx, t, notification.TypeTicketDelete, user,
		notifyapp.NewMessage(i18n.MsgTicketDelete, t.String(), user.String()))
}

func (e *events) ackAdded(ctx context.Context, t *tracker.Ticket, ack *tracker.TicketAck, user *identity.User) {
	if e.metrics != nil {
		e.metrics.AckChanged(ctx, string(ack.AckType), true)
	}
	e.fireInput(ctx, notifyapp.FireInput{
		Ticket:  t,
		Type:    notification.TypeAckAdd,
		Sender:  user,
		AckType: string(ack.AckType),
		Message: notifyapp.NewMessage(i18n.MsgAckAdd, user.String(), notifyapp.Localized(ack.AckType.Display()), e.url(t), t.String()),
	})
}

func (e *events) ackRemoved(ctx context.Context, t *tracker.Ticket, ack *tracker.TicketAck, user *identity.User) {
	if e.metrics != nil {
		e.metrics.AckChanged(ctx, string(ack.AckType), false)
	}
	e.fireInput(ctx, notifyapp.FireInput{
		Ticket:  t,
		Type:    notification.TypeAckRemove,
		Sender:  user,
		AckType: string(ack.AckType),
		Message: notifyapp.NewMessage(i18n.MsgAckRemove, user.String(), notifyapp.Localized(ack.AckType.Display()), e.url(t), t.String()),
	})
}

func (e *events) preexpeditureAdded(ctx context.Context, t *tracker.Ticket, p *tracker.Preexpediture, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew) {
		return
	}
	e.fire(ctx, t, notification.TypePreexpedituresNew, user,
		notifyapp.NewMessage(i18n.MsgPreexpNew, user.String(), p.Label(e.currency), e.url(t), t.String()))
}

func (e *events) preexpeditureChanged(ctx context.Context, t *tracker.Ticket, old, p *tracker.Preexpediture, user *identity.User) {
	if e.pendingText(ctx, notification.TypePreexpedituresNew, old.Label(e.currency)) {
		return
	}
	if !old.Amount.Equal(p.Amount) || old.Description != p.Description {
		e.fire(ctx, t, notification.TypePreexpedituresChange, user,
			notifyapp.NewMessage(i18n.MsgPreexpChange, user.String(), old.Label(e.currency), p.Label(e.currency), e.url(t), t.String()))
	}
	if old.Wage != p.Wage {
		key := i18n.MsgPreexpNotWage
		if p.Wage {
			key = i18n.MsgPreexpWage
		}
		e.fire(ctx, t, notification.TypePreexpedituresChange, user,
			notifyapp.NewMessage(key, user.String(), p.Label(e.currency), e.url(t), t.String()))
	}
}

func (e *events) preexpeditureRemoved(ctx context.Context, t *tracker.Ticket, p *tracker.Preexpediture, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew) {
		return
	}
	e.fire(ctx, t, notification.TypePreexpedituresChange, user,
		notifyapp.NewMessage(i18n.MsgPreexpRemove, user.String(), p.Label(e.currency), e.url(t), t.String()))
}

func (e *events) expeditureAdded(ctx context.Context, t *tracker.Ticket, x *tracker.Expediture, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew, notification.TypeExpedituresNew) {
		return
	}
	e.fire(ctx, t, notification.TypeExpedituresNew, user,
		notifyapp.NewMessage(i18n.MsgExpNew, user.String(), x.Label(e.currency), e.url(t), t.String()))
}

func (e *events) expeditureChanged(ctx context.Context, t *tracker.Ticket, old, x *tracker.Expediture, user *identity.User) {
	if e.pendingText(ctx, notification.TypeExpedituresNew, old.Label(e.currency)) {
		return
	}
	if !old.Amount.Equal(x.Amount) || old.Description != x.Description || old.AccountingInfo != x.AccountingInfo {
		e.fire(ctx, t, notification.TypeExpedituresChange, user,
			notifyapp.NewMessage(i18n.MsgExpChange, user.String(), old.Label(e.currency), x.Label(e.currency), e.url(t), t.String()))
	}
	if old.Paid != x.Paid {
		key := i18n.MsgExpNotPaid
		if x.Paid {
			key = i18n.MsgExpPaid
		}
		e.fire(ctx, t, notification.TypeExpedituresChange, user,
			notifyapp.NewMessage(key, user.String(), x.Label(e.currency), e.url(t), t.String()))
	}
	if old.Wage != x.Wage {
		key := i18n.MsgExpNotWage
		if x.Wage {
			key = i18n.MsgExpWage
		}
		e.fire(ctx, t, notification.TypeExpedituresChange, user,
			notifyapp.NewMessage(key, user.String(), x.Label(e.currency), e.url(t), t.String()))
	}
}

func (e *events) expeditureRemoved(ctx context.Context, t *tracker.Ticket, x *tracker.Expediture, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew) {
		return
	}
	e.fire(ctx, t, notification.TypeExpedituresChange, user,
		notifyapp.NewMessage(i18n.MsgExpRemove, user.String(), x.Label(e.currency), e.url(t), t.String()))
}

func (e *events) mediaSaved(ctx context.Context, t *tracker.Ticket, created bool, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew, notification.TypeMediaNew) {
		return
	}
	if created {
		e.fire(ctx, t, notification.TypeMediaNew, user,
			notifyapp.NewMessage(i18n.MsgMediaNew, user.String(), e.url(t), t.String()))
		return
	}
	e.fire(ctx, t, notification.TypeMediaChange, user,
		notifyapp.NewMessage(i18n.MsgMediaChange, user.String(), e.url(t), t.String()))
}

func (e *events) mediaRemoved(ctx context.Context, t *tracker.Ticket, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew) {
		return
	}
	e.fire(ctx, t, notification.TypeMediaChange, user,
		notifyapp.NewMessage(i18n.MsgMediaRemove, user.String(), e.url(t), t.String()))
}

func documentDescription(d *tracker.Document) any {
	if d.Description == "" {
		return notifyapp.Localized(i18n.MsgNoDescription)
	}
	return d.Description
}

func (e *events) documentSaved(ctx context.Context, t *tracker.Ticket, d *tracker.Document, created bool, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew, notification.TypeDocument) {
		return
	}
	if created {
		e.fire(ctx, t, notification.TypeDocument, user,
			notifyapp.NewMessage(i18n.MsgDocumentNew, user.String(), d.Filename, documentDescription(d), e.url(t), t.String()))
		return
	}
	e.fire(ctx, t, notification.TypeDocument, user,
		notifyapp.NewMessage(i18n.MsgDocumentChange, user.String(), d.Filename, e.url(t), t.String()))
}

func (e *events) documentRemoved(ctx context.Context, t *tracker.Ticket, d *tracker.Document, user *identity.User) {
	if e.pending(ctx, t, notification.TypeTicketNew) {
		return
	}
	e.fire(ctx, t, notification.TypeDocument, user,
		notifyapp.NewMessage(i18n.MsgDocumentRemove, user.String(), d.Filename, documentDescription(d), e.url(t), t.String()))
}
