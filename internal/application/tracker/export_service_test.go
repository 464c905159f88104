package tracker

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func newTestExportService(f *testutil.Fixture) *ExportService {
	r := f.Repos
	return NewExportService(r.Tickets, r.Grants, r.Topics, r.Users, r.Profiles, nil)
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func export(t *testing.T, svc *ExportService, user *identity.User, req ExportRequest) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), user, req, &buf))
	return readCSV(t, buf.Bytes())
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestExportService_Authorize(t *testing.T) {
	f := testutil.NewFixture(t)
	svc := newTestExportService(f)

	assert.ErrorIs(t, svc.Authorize(nil, ExportRequest{Type: ExportTicket}), shared.ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize(f.Requester, ExportRequest{Type: "ledger"}), shared.ErrInvalidInput)
	assert.ErrorIs(t, svc.Authorize(f.Requester, ExportRequest{Type: ExportUser}), shared.ErrForbidden)
	assert.NoError(t, svc.Authorize(newStaff(t, f, "office"), ExportRequest{Type: ExportUser}))

	name, err := svc.Filename(ExportPreexpediture)
	require.NoError(t, err)
	assert.Equal(t, "exported-preexpeditures.csv", name)
}

func TestExportService_Tickets(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	expenses := newTestExpenseService(f, nil)

	big := f.CreateTicket(t, "Expensive trip")
	f.CreateTicket(t, "Cheap trip")
	_, err := expenses.CreatePreexpediture(ctx, f.Requester, CreatePreexpeditureRequest{
		TicketID:    big.ID,
		Description: "Hotel",
		Amount:      decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	svc := newTestExportService(f)
	rows := export(t, svc, f.Requester, ExportRequest{Type: ExportTicket})
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "name", rows[0][5])

	rows = export(t, svc, f.Requester, ExportRequest{
		Type:    ExportTicket,
		Tickets: TicketExportFilter{Preexpeditures: AmountRange{Min: decimalPtr("100")}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Expensive trip", rows[1][5])
	assert.Equal(t, "Community support", rows[1][7])
	assert.Equal(t, "Photography", rows[1][8])
	assert.Equal(t, "500.00", rows[1][15])

	rows = export(t, svc, f.Requester, ExportRequest{
		Type:    ExportTicket,
		Tickets: TicketExportFilter{States: []string{"archived"}},
	})
	assert.Len(t, rows, 1)
}

func TestExportService_Expeditures(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Trip")
	staff := f.CreateUser(t, "office", identity.PermAddExpediture)
	staff.IsStaff = true
	expenses := newTestExpenseService(f, nil)

	for _, paid := range []bool{true, false} {
		_, err := expenses.CreateExpediture(ctx, staff, CreateExpeditureRequest{
			TicketID:    ticket.ID,
			Description: "Bus",
			Amount:      decimal.NewFromInt(30),
			Paid:        boolPtr(paid),
		})
		require.NoError(t, err)
	}

	svc := newTestExportService(f)
	rows := export(t, svc, f.Requester, ExportRequest{
		Type:    ExportExpediture,
		Expense: ExpenseExportFilter{Paid: boolPtr(true)},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ticket_id", "description", "amount", "wage", "paid"}, rows[0])
	assert.Equal(t, "True", rows[1][4])
	assert.Equal(t, "30.00", rows[1][2])
}

func TestExportService_GrantsAndTopics(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	f.CreateTicket(t, "Trip")
	empty, err := tracker.NewTopic(f.Grant.ID, "Editathons")
	require.NoError(t, err)
	require.NoError(t, f.Repos.Topics.Create(ctx, empty))

	svc := newTestExportService(f)

	rows := export(t, svc, f.Requester, ExportRequest{Type: ExportGrant})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Community support", "CS", "community", ""}, rows[1])

	rows = export(t, svc, f.Requester, ExportRequest{Type: ExportTopic})
	assert.Len(t, rows, 3)

	rows = export(t, svc, f.Requester, ExportRequest{
		Type:   ExportTopic,
		Topics: TopicExportFilter{Tickets: CountRange{Min: int64Ptr(1)}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Photography", rows[1][0])
	assert.Equal(t, "topicadmin", rows[1][8])

	rows = export(t, svc, f.Requester, ExportRequest{
		Type:   ExportTopic,
		Topics: TopicExportFilter{AdminIDs: []int64{f.Supervisor.ID}},
	})
	assert.Len(t, rows, 1)
}

func TestExportService_Users(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	f.CreateTicket(t, "Trip")

	staff, err := identity.NewUser("office", "office@example.org", "password123")
	require.NoError(t, err)
	staff.IsStaff = true
	require.NoError(t, f.Repos.Users.Create(ctx, staff))

	svc := newTestExportService(f)

	rows := export(t, svc, staff, ExportRequest{Type: ExportUser})
	assert.Len(t, rows, 5)

	rows = export(t, svc, staff, ExportRequest{
		Type:  ExportUser,
		Users: UserExportFilter{Permission: "staff"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "office", rows[1][1])

	rows = export(t, svc, staff, ExportRequest{
		Type:  ExportUser,
		Users: UserExportFilter{CreatedTickets: CountRange{Min: int64Ptr(1)}},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "requester", rows[1][1])
	assert.Equal(t, "1", rows[1][10])
}

func TestFilterTickets(t *testing.T) {
	user := &identity.User{Username: "u", IsActive: true}
	user.ID = 5
	topic := &tracker.Topic{Name: "Photography"}
	ticket, err := tracker.NewTicket(topic, user, "Trip")
	require.NoError(t, err)
	ticket.MandatoryReport = true

	assert.Len(t, FilterTickets([]*tracker.Ticket{ticket}, TicketExportFilter{UserIDs: []int64{5}}), 1)
	assert.Empty(t, FilterTickets([]*tracker.Ticket{ticket}, TicketExportFilter{UserIDs: []int64{6}}))
	assert.Len(t, FilterTickets([]*tracker.Ticket{ticket}, TicketExportFilter{MandatoryReport: true}), 1)
	assert.Empty(t, FilterTickets([]*tracker.Ticket{ticket}, TicketExportFilter{
		Expeditures: AmountRange{Min: decimalPtr("1")},
	}))
}
