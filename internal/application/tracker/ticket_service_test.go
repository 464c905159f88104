package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

type recordingRows struct {
	calls []bool
}

func (r *recordingRows) Invalidate(_ context.Context, archived bool) error {
	r.calls = append(r.calls, archived)
	return nil
}

func TestTicketService_Create(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	t.Run("requester opens a draft with expenses", func(t *testing.T) {
		notifier := newMockNotifier()
		rows := &recordingRows{}
		svc := newTestTicketService(f, notifier)
		svc.SetRowsCache(rows)

		resp, err := svc.Create(ctx, f.Requester, CreateTicketRequest{
			Name:       "Castle photos",
			TopicID:    f.Topic.ID,
			SubtopicID: &f.Subtopic.ID,
			EventDate:  "2024-04-23",
			Preexpeditures: []ExpenseInput{
				{Description: "Train", Amount: decimal.NewFromInt(300)},
				{Description: "Hotel", Amount: decimal.NewFromInt(900)},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Castle photos", resp.Name)
		assert.Equal(t, "2024-04-23", resp.EventDate)
		assert.Equal(t, f.Subtopic.ID, *resp.Subtopic)
		assert.Equal(t, f.Requester.ID, *resp.RequestedUser)
		assert.Equal(t, tracker.StateDraft.Code, resp.StateCode)
		assert.Equal(t, 2, resp.PreexpeditureCount)
		assert.True(t, decimal.NewFromInt(1200).Equal(resp.PreexpeditureAmount))
		assert.Equal(t, []notification.Type{notification.TypeTicketNew}, notifier.firedTypes())
		assert.Equal(t, []bool{false}, rows.calls)
	})

	t.Run("deposit must be zero", func(t *testing.T) {
		svc := newTestTicketService(f, nil)
		_, err := svc.Create(ctx, f.Requester, CreateTicketRequest{
			Name:    "Castle photos",
			TopicID: f.Topic.ID,
			Deposit: decimal.NewFromInt(100),
		})
		assert.ErrorIs(t, err, tracker.ErrDepositNotZero)
	})

	t.Run("closed topic is staff only", func(t *testing.T) {
		topic, err := tracker.NewTopic(f.Grant.ID, "Closed topic")
		require.NoError(t, err)
		topic.OpenForTickets = false
		require.NoError(t, f.Repos.Topics.Create(ctx, topic))
		svc := newTestTicketService(f, nil)

		_, err = svc.Create(ctx, f.Requester, CreateTicketRequest{Name: "Late", TopicID: topic.ID})
		assert.ErrorIs(t, err, tracker.ErrTopicClosed)

		staff := f.CreateUser(t, "staffer")
		staff.IsStaff = true
		resp, err := svc.Create(ctx, staff, CreateTicketRequest{Name: "Late", TopicID: topic.ID})
		require.NoError(t, err)
		assert.Equal(t, topic.ID, resp.Topic)
	})

	t.Run("subtopic of another topic is rejected", func(t *testing.T) {
		other, err := tracker.NewTopic(f.Grant.ID, "Other")
		require.NoError(t, err)
		require.NoError(t, f.Repos.Topics.Create(ctx, other))
		svc := newTestTicketService(f, nil)

		_, err = svc.Create(ctx, f.Requester, CreateTicketRequest{
			Name:       "Mismatch",
			TopicID:    other.ID,
			SubtopicID: &f.Subtopic.ID,
		})
		assert.ErrorIs(t, err, tracker.ErrSubtopicMismatch)
	})

	t.Run("anonymous user is rejected", func(t *testing.T) {
		svc := newTestTicketService(f, nil)
		_, err := svc.Create(ctx, nil, CreateTicketRequest{Name: "Nope", TopicID: f.Topic.ID})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestTicketService_Update(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")

	t.Run("requester renames", func(t *testing.T) {
		notifier := newMockNotifier()
		svc := newTestTicketService(f, notifier)
		resp, err := svc.Update(ctx, f.Requester, ticket.ID, UpdateTicketRequest{
			Name:        strPtr("Chateau photos"),
			Description: strPtr("Three castles"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Chateau photos", resp.Name)
		assert.Equal(t, "Three castles", resp.Description)
		assert.ElementsMatch(t,
			[]notification.Type{notification.TypeTicketChange, notification.TypeTicketChange},
			notifier.firedTypes())
	})

	t.Run("admin fields are ignored for requesters", func(t *testing.T) {
		svc := newTestTicketService(f, nil)
		resp, err := svc.Update(ctx, f.Requester, ticket.ID, UpdateTicketRequest{
			TicketAdminFields: TicketAdminFields{
				RatingPercentage: intPtr(10),
				SupervisorNotes:  strPtr("sneaky"),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, tracker.DefaultRatingPercentage, *resp.RatingPercentage)
		assert.Empty(t, resp.SupervisorNotes)
	})

	t.Run("staff sets admin fields", func(t *testing.T) {
		staff := f.CreateUser(t, "staffer", identity.PermAddTicket, identity.PermChangeTicket)
		staff.IsStaff = true
		notifier := newMockNotifier()
		svc := newTestTicketService(f, notifier)

		resp, err := svc.Update(ctx, staff, ticket.ID, UpdateTicketRequest{
			TicketAdminFields: TicketAdminFields{
				RatingPercentage: intPtr(50),
				SupervisorNotes:  strPtr("Check the receipts"),
				MandatoryReport:  boolPtr(true),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 50, *resp.RatingPercentage)
		assert.Equal(t, "Check the receipts", resp.SupervisorNotes)
		assert.True(t, resp.MandatoryReport)
		assert.Contains(t, notifier.firedTypes(), notification.TypeSupervisorNotes)
	})

	t.Run("other users cannot edit", func(t *testing.T) {
		stranger := f.CreateUser(t, "stranger")
		svc := newTestTicketService(f, nil)
		_, err := svc.Update(ctx, stranger, ticket.ID, UpdateTicketRequest{Name: strPtr("Mine")})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("nonzero deposit needs preexpeditures", func(t *testing.T) {
		svc := newTestTicketService(f, nil)
		deposit := decimal.NewFromInt(500)
		_, err := svc.Update(ctx, f.Requester, ticket.ID, UpdateTicketRequest{Deposit: &deposit})
		assert.ErrorIs(t, err, tracker.ErrDepositTooHigh)
	})
}

func TestTicketService_Delete(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	svc := newTestTicketService(f, nil)

	err := svc.Delete(ctx, f.Admin, ticket.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, f.Requester, ticket.ID))
	_, err = svc.Get(ctx, ticket.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestTicketService_Acks(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	t.Run("requester submits, topic admin preaccepts", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		notifier := newMockNotifier()
		svc := newTestTicketService(f, notifier)

		res, err := svc.AddAck(ctx, f.Requester, ticket.ID, AddAckRequest{AckType: string(tracker.AckUserPrecontent)})
		require.NoError(t, err)
		assert.Equal(t, string(tracker.AckUserPrecontent), res.Ack.AckType)
		assert.Equal(t, tracker.StateWaitingPreapprove.Code, res.Ticket.StateCode)

		res, err = svc.AddAck(ctx, f.Admin, ticket.ID, AddAckRequest{AckType: string(tracker.AckPrecontent)})
		require.NoError(t, err)
		assert.Equal(t, tracker.StateWaitingSubmitting.Code, res.Ticket.StateCode)
		assert.Equal(t, []notification.Type{notification.TypeAckAdd, notification.TypeAckAdd}, notifier.firedTypes())

		_, err = svc.AddAck(ctx, f.Admin, ticket.ID, AddAckRequest{AckType: string(tracker.AckPrecontent)})
		assert.ErrorIs(t, err, tracker.ErrAckExists)
	})

	t.Run("admin ack waits for the user ack", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		svc := newTestTicketService(f, nil)

		_, err := svc.AddAck(ctx, f.Admin, ticket.ID, AddAckRequest{AckType: string(tracker.AckContent)})
		assert.ErrorIs(t, err, tracker.ErrAckNotAllowed)
	})

	t.Run("strangers cannot ack", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		stranger := f.CreateUser(t, "ackstranger")
		svc := newTestTicketService(f, nil)

		_, err := svc.AddAck(ctx, stranger, ticket.ID, AddAckRequest{AckType: string(tracker.AckUserContent)})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("unknown ack type", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		svc := newTestTicketService(f, nil)
		_, err := svc.AddAck(ctx, f.Requester, ticket.ID, AddAckRequest{AckType: "approved"})
		assert.ErrorIs(t, err, tracker.ErrUnknownAckType)
	})

	t.Run("content submission flags a missing bank account", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		svc := newTestTicketService(f, nil)
		res, err := svc.AddAck(ctx, f.Requester, ticket.ID, AddAckRequest{AckType: string(tracker.AckUserContent)})
		require.NoError(t, err)
		assert.True(t, res.MissingBankAccount)
	})

	t.Run("requester removes own ack only", func(t *testing.T) {
		ticket := f.CreateTicket(t, "Castle photos")
		svc := newTestTicketService(f, nil)
		res, err := svc.AddAck(ctx, f.Requester, ticket.ID, AddAckRequest{AckType: string(tracker.AckUserPrecontent)})
		require.NoError(t, err)
		userAckID := res.Ack.ID
		res, err = svc.AddAck(ctx, f.Supervisor, ticket.ID, AddAckRequest{AckType: string(tracker.AckArchive)})
		require.NoError(t, err)
		archiveID := res.Ack.ID

		_, err = svc.RemoveAck(ctx, f.Requester, ticket.ID, archiveID)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		resp, err := svc.RemoveAck(ctx, f.Supervisor, ticket.ID, archiveID)
		require.NoError(t, err)
		assert.False(t, resp.IsCompleted)

		resp, err = svc.RemoveAck(ctx, f.Requester, ticket.ID, userAckID)
		require.NoError(t, err)
		assert.Empty(t, resp.Acks)
	})
}

func TestTicketService_CopyPreexpeditures(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	notifier := newMockNotifier()
	svc := newTestTicketService(f, notifier)

	created, err := svc.Create(ctx, f.Requester, CreateTicketRequest{
		Name:           "Castle photos",
		TopicID:        f.Topic.ID,
		Expeditures:    []ExpenseInput{{Description: "Old", Amount: decimal.NewFromInt(5)}},
		Preexpeditures: []ExpenseInput{{Description: "Train", Amount: decimal.NewFromInt(300), Wage: true}},
	})
	require.NoError(t, err)
	notifier.Calls = nil

	resp, err := svc.CopyPreexpeditures(ctx, f.Requester, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []notification.Type{notification.TypeExpedituresChange, notification.TypeExpedituresNew}, notifier.firedTypes())
	assert.Equal(t, 1, resp.ExpeditureCount)
	assert.True(t, decimal.NewFromInt(300).Equal(resp.ExpeditureAmount))

	items, err := f.Repos.Tickets.ListExpeditures(ctx, []int64{created.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Train", items[0].Description)
	assert.True(t, items[0].Wage)

	_, err = svc.CopyPreexpeditures(ctx, f.Admin, created.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

// failingReplaceRepo fails the expediture swap, leaving storage untouched
type failingReplaceRepo struct {
	tracker.TicketRepository
}

func (failingReplaceRepo) ReplaceExpeditures(context.Context, *tracker.Ticket, []*tracker.Expediture) error {
	return errors.New("connection reset")
}

func TestTicketService_CopyPreexpeditures_StoreFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	created, err := newTestTicketService(f, nil).Create(ctx, f.Requester, CreateTicketRequest{
		Name:           "Castle photos",
		TopicID:        f.Topic.ID,
		Expeditures:    []ExpenseInput{{Description: "Old", Amount: decimal.NewFromInt(5)}},
		Preexpeditures: []ExpenseInput{{Description: "Train", Amount: decimal.NewFromInt(300)}},
	})
	require.NoError(t, err)

	r := f.Repos
	notifier := newMockNotifier()
	rows := &recordingRows{}
	svc := NewTicketService(failingReplaceRepo{r.Tickets}, r.Topics, r.Subtopics, r.Signatures, r.Users, r.Profiles, testSettings(), nil)
	svc.SetNotifier(notifier)
	svc.SetRowsCache(rows)

	_, err = svc.CopyPreexpeditures(ctx, f.Requester, created.ID)
	require.Error(t, err)
	assert.Empty(t, notifier.firedTypes())
	assert.Empty(t, rows.calls)

	items, err := r.Tickets.ListExpeditures(ctx, []int64{created.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Old", items[0].Description)
}

func TestTicketService_Sign(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	svc := newTestTicketService(f, nil)

	ticket := f.CreateTicket(t, "Road trip")
	_, err := svc.Sign(ctx, f.Admin, ticket.ID, SignRequest{StatutoryDeclaration: true})
	assert.ErrorIs(t, err, tracker.ErrSignatureUnsupported)

	topic := f.Topic
	topic.TicketStatutoryDeclaration = true
	require.NoError(t, f.Repos.Topics.Update(ctx, topic))
	ticket.CarTravel = true
	require.NoError(t, f.Repos.Tickets.Update(ctx, ticket))

	status, err := svc.Sign(ctx, f.Admin, ticket.ID, SignRequest{StatutoryDeclaration: true})
	require.NoError(t, err)
	assert.True(t, status.Signed)
	assert.Equal(t, testSettings().StatutoryText, status.Declaration)

	sigs, err := svc.Signatures(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, f.Admin.ID, sigs[0].UserID)

	_, err = svc.Sign(ctx, f.Requester, ticket.ID, SignRequest{StatutoryDeclaration: true})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	status, err = svc.Sign(ctx, f.Admin, ticket.ID, SignRequest{StatutoryDeclaration: false})
	require.NoError(t, err)
	assert.False(t, status.Signed)
	state, err := svc.SignState(ctx, f.Admin, ticket.ID)
	require.NoError(t, err)
	assert.False(t, state.Signed)
}
