package tracker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	csvimport "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Export types
const (
	ExportTicket        = "ticket"
	ExportGrant         = "grant"
	ExportTopic         = "topic"
	ExportPreexpediture = "preexpediture"
	ExportExpediture    = "expediture"
	ExportUser          = "user"
)

var exportFilenames = map[string]string{
	ExportTicket:        "exported-tickets.csv",
	ExportGrant:         "exported-grants.csv",
	ExportTopic:         "exported-topics.csv",
	ExportPreexpediture: "exported-preexpeditures.csv",
	ExportExpediture:    "exported-expeditures.csv",
	ExportUser:          "exported-users.csv",
}

// AmountRange is an inclusive range. A nil bound is open.
type AmountRange struct {
	Min *decimal.Decimal `json:"min"`
	Max *decimal.Decimal `json:"max"`
}

// Contains reports whether v lies within the range
func (r AmountRange) Contains(v decimal.Decimal) bool {
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// CountRange is an inclusive range of counts. A nil bound is open.
type CountRange struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// Contains reports whether n lies within the range
func (r CountRange) Contains(n int64) bool {
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

// TicketExportFilter narrows the ticket export
type TicketExportFilter struct {
	States          []string    `json:"states"`
	TopicIDs        []int64     `json:"topics"`
	UserIDs         []int64     `json:"users"`
	Preexpeditures  AmountRange `json:"preexpeditures"`
	Expeditures     AmountRange `json:"expeditures"`
	Accepted        AmountRange `json:"accepted_expeditures"`
	MandatoryReport bool        `json:"mandatory_report"`
}

// ExpenseExportFilter narrows expediture and preexpediture exports. Paid
// is ignored for preexpeditures.
type ExpenseExportFilter struct {
	Amount AmountRange `json:"amount"`
	Wage   *bool       `json:"wage"`
	Paid   *bool       `json:"paid"`
}

// TopicExportFilter narrows the topic export. PaymentStatusCount applies
// to the number of the topic's tickets in PaymentStatus.
type TopicExportFilter struct {
	AdminIDs           []int64    `json:"admins"`
	Tickets            CountRange `json:"tickets"`
	PaymentStatus      string     `json:"payment_status"`
	PaymentStatusCount CountRange `json:"payment_status_count"`
}

// UserExportFilter narrows the user export. Permission is one of
// normal, staff or superuser.
type UserExportFilter struct {
	CreatedTickets CountRange  `json:"created_tickets"`
	Accepted       AmountRange `json:"accepted_expeditures"`
	Paid           AmountRange `json:"paid_expeditures"`
	Permission     string      `json:"permission" binding:"omitempty,oneof=normal staff superuser"`
}

// ExportRequest selects the export type and its filter
type ExportRequest struct {
	Type    string              `json:"type" binding:"required,oneof=ticket grant topic preexpediture expediture user"`
	Tickets TicketExportFilter  `json:"ticket"`
	Expense ExpenseExportFilter `json:"expense"`
	Topics  TopicExportFilter   `json:"topic"`
	Users   UserExportFilter    `json:"user"`
}

// ExportService writes CSV exports
type ExportService struct {
	tickets  tracker.TicketRepository
	grants   tracker.GrantRepository
	topics   tracker.TopicRepository
	users    identity.UserRepository
	profiles identity.ProfileRepository
	logger   *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	tickets tracker.TicketRepository,
	grants tracker.GrantRepository,
	topics tracker.TopicRepository,
	users identity.UserRepository,
	profiles identity.ProfileRepository,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tickets:  tickets,
		grants:   grants,
		topics:   topics,
		users:    users,
		profiles: profiles,
		logger:   logger,
	}
}

// Filename returns the attachment name of an export type
func (s *ExportService) Filename(typ string) (string, error) {
	name, ok := exportFilenames[typ]
	if !ok {
		return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown export type %q", typ))
	}
	return name, nil
}

// Authorize checks the caller may run the export before anything is
// written
func (s *ExportService) Authorize(user *identity.User, req ExportRequest) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if _, err := s.Filename(req.Type); err != nil {
		return err
	}
	if req.Type == ExportUser && !isStaff(user) {
		return shared.ErrForbidden.WithMessage("Only staff can export users")
	}
	return nil
}

// Export writes the requested CSV to w
func (s *ExportService) Export(ctx context.Context, user *identity.User, req ExportRequest, w io.Writer) error {
	if err := s.Authorize(user, req); err != nil {
		return err
	}
	var err error
	switch req.Type {
	case ExportTicket:
		err = s.exportTickets(ctx, req.Tickets, w)
	case ExportGrant:
		err = s.exportGrants(ctx, w)
	case ExportTopic:
		err = s.exportTopics(ctx, req.Topics, w)
	case ExportPreexpediture:
		err = s.exportPreexpeditures(ctx, req.Expense, w)
	case ExportExpediture:
		err = s.exportExpeditures(ctx, req.Expense, w)
	case ExportUser:
		err = s.exportUsers(ctx, req.Users, w)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Export written", zap.String("type", req.Type), zap.Int64("user_id", user.ID))
	return nil
}

// FilterTickets applies a ticket export filter
func FilterTickets(tickets []*tracker.Ticket, f TicketExportFilter) []*tracker.Ticket {
	states := toSet(f.States)
	users := toSet(f.UserIDs)
	out := make([]*tracker.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if len(states) > 0 && !states[t.StateCode()] {
			continue
		}
		if len(users) > 0 && (t.RequestedUserID == nil || !users[*t.RequestedUserID]) {
			continue
		}
		_, pre := t.PreexpeditureTotals()
		_, spent := t.ExpeditureTotals()
		if !f.Preexpeditures.Contains(pre) || !f.Expeditures.Contains(spent) ||
			!f.Accepted.Contains(t.AcceptedExpeditures()) {
			continue
		}
		if f.MandatoryReport && !t.MandatoryReport {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *ExportService) exportTickets(ctx context.Context, f TicketExportFilter, w io.Writer) error {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{TopicIDs: f.TopicIDs, OrderBy: "id"})
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w, "id", "created", "updated", "event_date", "event_url", "name",
		"requested_by", "grant", "topic", "subtopic", "state", "deposit", "description",
		"mandatory_report", "accepted_expeditures", "preexpeditures", "expeditures", "paid_expeditures")
	for _, t := range FilterTickets(tickets, f) {
		_, pre := t.PreexpeditureTotals()
		_, spent := t.ExpeditureTotals()
		cw.WriteRow(t.ID, t.Created, t.Updated, t.EventDate, t.EventURL, t.Name, t.RequestedBy(),
			grantName(t.Topic), topicName(t.Topic), t.Subtopic.String(), t.StateString(), t.Deposit,
			t.Description, t.MandatoryReport, t.AcceptedExpeditures(), pre, spent, t.PaidExpeditures())
	}
	return cw.Err()
}

func (s *ExportService) exportGrants(ctx context.Context, w io.Writer) error {
	grants, err := s.grants.FindAll(ctx)
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w, "full_name", "short_name", "slug", "description")
	for _, g := range grants {
		cw.WriteRow(g.FullName, g.ShortName, g.Slug, g.Description)
	}
	return cw.Err()
}

func (s *ExportService) exportTopics(ctx context.Context, f TopicExportFilter, w io.Writer) error {
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{})
	if err != nil {
		return err
	}
	perTopic := map[int64]int64{}
	perStatus := map[int64]int64{}
	for _, t := range tickets {
		perTopic[t.TopicID]++
		if f.PaymentStatus != "" && string(t.PaymentStatus) == f.PaymentStatus {
			perStatus[t.TopicID]++
		}
	}

	var adminIDs []int64
	for _, topic := range topics {
		adminIDs = append(adminIDs, topic.AdminIDs...)
	}
	admins, err := s.users.FindByIDs(ctx, adminIDs)
	if err != nil {
		return err
	}
	usernames := make(map[int64]string, len(admins))
	for _, u := range admins {
		usernames[u.ID] = u.Username
	}

	wanted := toSet(f.AdminIDs)
	cw := csvimport.NewWriter(w, "name", "grant", "open_for_new_tickets", "media", "expenses",
		"preexpenses", "description", "form_description", "admins")
	for _, topic := range topics {
		if len(wanted) > 0 && !anyIn(topic.AdminIDs, wanted) {
			continue
		}
		if !f.Tickets.Contains(perTopic[topic.ID]) {
			continue
		}
		if f.PaymentStatus != "" && !f.PaymentStatusCount.Contains(perStatus[topic.ID]) {
			continue
		}
		names := make([]string, 0, len(topic.AdminIDs))
		for _, id := range topic.AdminIDs {
			names = append(names, usernames[id])
		}
		cw.WriteRow(topic.Name, grantName(topic), topic.OpenForTickets, topic.TicketMedia,
			topic.TicketExpenses, topic.TicketPreexpenses, topic.Description, topic.FormDescription,
			strings.Join(names, ", "))
	}
	return cw.Err()
}

func (s *ExportService) exportPreexpeditures(ctx context.Context, f ExpenseExportFilter, w io.Writer) error {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{OrderBy: "id"})
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w, "ticket_id", "description", "amount", "wage")
	for _, t := range tickets {
		for _, p := range t.Preexpeditures {
			if !f.Amount.Contains(p.Amount) || (f.Wage != nil && p.Wage != *f.Wage) {
				continue
			}
			cw.WriteRow(p.TicketID, p.Description, p.Amount, p.Wage)
		}
	}
	return cw.Err()
}

func (s *ExportService) exportExpeditures(ctx context.Context, f ExpenseExportFilter, w io.Writer) error {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{OrderBy: "id"})
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w, "ticket_id", "description", "amount", "wage", "paid")
	for _, t := range tickets {
		for _, e := range t.Expeditures {
			if !f.Amount.Contains(e.Amount) || (f.Wage != nil && e.Wage != *f.Wage) ||
				(f.Paid != nil && e.Paid != *f.Paid) {
				continue
			}
			cw.WriteRow(e.TicketID, e.Description, e.Amount, e.Wage, e.Paid)
		}
	}
	return cw.Err()
}

func (s *ExportService) exportUsers(ctx context.Context, f UserExportFilter, w io.Writer) error {
	users, err := s.allUsers(ctx)
	if err != nil {
		return err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{})
	if err != nil {
		return err
	}
	totals := map[int64]*UserTotals{}
	for _, t := range tickets {
		if t.RequestedUserID == nil {
			continue
		}
		tot, ok := totals[*t.RequestedUserID]
		if !ok {
			fresh := newUserTotals(t.RequestedUserID)
			tot = &fresh
			totals[*t.RequestedUserID] = tot
		}
		addTicketTotals(tot, t)
	}

	cw := csvimport.NewWriter(w, "id", "username", "first_name", "last_name", "email", "is_active",
		"is_staff", "is_superuser", "last_login", "date_joined", "created_tickets",
		"accepted_expeditures", "paid_expeditures", "bank_account", "other_contact", "other_identification")
	for _, u := range users {
		tot, ok := totals[u.ID]
		if !ok {
			fresh := newUserTotals(nil)
			tot = &fresh
		}
		if !f.CreatedTickets.Contains(tot.TicketCount) || !f.Accepted.Contains(tot.AcceptedExpeditures) ||
			!f.Paid.Contains(tot.Transactions) || !matchesPermission(u, f.Permission) {
			continue
		}
		profile, err := s.profiles.FindProfile(ctx, u.ID)
		if shared.IsNotFound(err) {
			profile = identity.NewTrackerProfile(u.ID)
		} else if err != nil {
			return err
		}
		cw.WriteRow(u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.IsActive, u.IsStaff,
			u.IsSuperuser, u.LastLogin, u.CreatedAt, tot.TicketCount, tot.AcceptedExpeditures,
			tot.Transactions, profile.BankAccount, profile.OtherContact, profile.OtherIdentification)
	}
	return cw.Err()
}

// allUsers pages through the whole user table
func (s *ExportService) allUsers(ctx context.Context) ([]*identity.User, error) {
	const pageSize = 500
	var out []*identity.User
	for page := 1; ; page++ {
		users, total, err := s.users.FindAll(ctx, identity.UserFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, users...)
		if len(users) < pageSize || int64(len(out)) >= total {
			return out, nil
		}
	}
}

func matchesPermission(u *identity.User, permission string) bool {
	switch permission {
	case "normal":
		return !u.IsStaff && !u.IsSuperuser
	case "staff":
		return u.IsStaff
	case "superuser":
		return u.IsSuperuser
	}
	return true
}

func grantName(topic *tracker.Topic) string {
	if topic == nil || topic.Grant == nil {
		return ""
	}
	return topic.Grant.FullName
}

func topicName(topic *tracker.Topic) string {
	if topic == nil {
		return ""
	}
	return topic.Name
}

func toSet[T comparable](items []T) map[T]bool {
	set := make(map[T]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func anyIn(ids []int64, set map[int64]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}
