package tracker

import (
	"context"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	csvimport "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/import"
	"go.uber.org/zap"
)

// AckPerUserRow is how many content acks a user gave in one topic
type AckPerUserRow struct {
	UserID   int64  `json:"user_id"`
	User     string `json:"user"`
	GrantID  int64  `json:"grant_id"`
	Grant    string `json:"grant"`
	TopicID  int64  `json:"topic_id"`
	Topic    string `json:"topic"`
	AckCount int64  `json:"ack_count"`
}

// UserTotals sums what a user requested through the tracker
type UserTotals struct {
	UserID              *int64          `json:"user_id"`
	Username            string          `json:"username"`
	FullName            string          `json:"full_name"`
	TicketCount         int64           `json:"ticket_count"`
	MediaCount          int64           `json:"media_count"`
	AcceptedExpeditures decimal.Decimal `json:"accepted_expeditures"`
	Transactions        decimal.Decimal `json:"transactions"`
}

// UserSummary is the user list with totals. Unassigned covers tickets
// without a requesting user.
type UserSummary struct {
	Users      []UserTotals `json:"users"`
	Unassigned UserTotals   `json:"unassigned"`
	Total      UserTotals   `json:"total"`
}

// ReportService builds the cross-ticket summaries
type ReportService struct {
	reports tracker.ReportRepository
	tickets tracker.TicketRepository
	grants  tracker.GrantRepository
	topics  tracker.TopicRepository
	users   identity.UserRepository
	logger  *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	reports tracker.ReportRepository,
	tickets tracker.TicketRepository,
	grants tracker.GrantRepository,
	topics tracker.TopicRepository,
	users identity.UserRepository,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports: reports,
		tickets: tickets,
		grants:  grants,
		topics:  topics,
		users:   users,
		logger:  logger,
	}
}

// AcksPerUser lists content acks per user and topic
func (s *ReportService) AcksPerUser(ctx context.Context) ([]AckPerUserRow, error) {
	counts, err := s.reports.ContentAcksPerUser(ctx)
	if err != nil {
		return nil, err
	}
	grants, err := s.grants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return nil, err
	}
	userIDs := make([]int64, 0, len(counts))
	for _, c := range counts {
		userIDs = append(userIDs, c.UserID)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	grantNames := make(map[int64]string, len(grants))
	for _, g := range grants {
		grantNames[g.ID] = g.FullName
	}
	topicNames := make(map[int64]string, len(topics))
	for _, t := range topics {
		topicNames[t.ID] = t.Name
	}
	userNames := make(map[int64]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Username
	}

	out := make([]AckPerUserRow, 0, len(counts))
	for _, c := range counts {
		out = append(out, AckPerUserRow{
			UserID:   c.UserID,
			User:     userNames[c.UserID],
			GrantID:  c.GrantID,
			Grant:    grantNames[c.GrantID],
			TopicID:  c.TopicID,
			Topic:    topicNames[c.TopicID],
			AckCount: c.AckCount,
		})
	}
	return out, nil
}

// WriteAcksPerUserCSV writes AcksPerUser in the export format
func (s *ReportService) WriteAcksPerUserCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.AcksPerUser(ctx)
	if err != nil {
		return err
	}
	cw := csvimport.NewWriter(w, "user", "grant", "topic", "ack_count")
	for _, r := range rows {
		cw.WriteRow(r.User, r.Grant, r.Topic, r.AckCount)
	}
	return cw.Err()
}

// UserSummary computes totals for every user that requested a ticket
func (s *ReportService) UserSummary(ctx context.Context) (*UserSummary, error) {
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{})
	if err != nil {
		return nil, err
	}

	byUser := map[int64]*UserTotals{}
	summary := &UserSummary{Unassigned: newUserTotals(nil), Total: newUserTotals(nil)}
	for _, t := range tickets {
		addTicketTotals(&summary.Total, t)
		if t.RequestedUserID == nil {
			addTicketTotals(&summary.Unassigned, t)
			continue
		}
		totals, ok := byUser[*t.RequestedUserID]
		if !ok {
			fresh := newUserTotals(t.RequestedUserID)
			totals = &fresh
			byUser[*t.RequestedUserID] = totals
		}
		addTicketTotals(totals, t)
	}

	ids := make([]int64, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		byUser[u.ID].Username = u.Username
		byUser[u.ID].FullName = u.FullName()
	}

	summary.Users = make([]UserTotals, 0, len(byUser))
	for _, totals := range byUser {
		summary.Users = append(summary.Users, *totals)
	}
	sort.Slice(summary.Users, func(i, j int) bool {
		return summary.Users[i].Username < summary.Users[j].Username
	})
	return summary, nil
}

// UserTotalsFor computes the totals of one user
func (s *ReportService) UserTotalsFor(ctx context.Context, user *identity.User) (*UserTotals, error) {
	id := user.ID
	totals := newUserTotals(&id)
	totals.Username = user.Username
	totals.FullName = user.FullName()

	var err error
	if totals.TicketCount, err = s.reports.CountTickets(ctx, &id); err != nil {
		return nil, err
	}
	if totals.MediaCount, err = s.reports.CountMedia(ctx, &id); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{RequestedUserID: []int64{id}})
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		totals.AcceptedExpeditures = totals.AcceptedExpeditures.Add(t.AcceptedExpeditures())
		totals.Transactions = totals.Transactions.Add(t.PaidExpeditures())
	}
	return &totals, nil
}

func newUserTotals(id *int64) UserTotals {
	return UserTotals{
		UserID:              id,
		AcceptedExpeditures: decimal.Zero,
		Transactions:        decimal.Zero,
	}
}

func addTicketTotals(totals *UserTotals, t *tracker.Ticket) {
	totals.TicketCount++
	totals.MediaCount += t.MediaCount
	totals.AcceptedExpeditures = totals.AcceptedExpeditures.Add(t.AcceptedExpeditures())
	totals.Transactions = totals.Transactions.Add(t.PaidExpeditures())
}
