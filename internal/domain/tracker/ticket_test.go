package tracker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
)

func newUser(id int64, perms ...identity.Permission) *identity.User {
	u := &identity.User{Username: "user", IsActive: true, Permissions: perms}
	u.ID = id
	return u
}

func newTestTicket(t *testing.T, requester *identity.User, acks ...AckType) *Ticket {
	t.Helper()
	topic, err := NewTopic(1, "Photography")
	require.NoError(t, err)
	topic.ID = 10
	ticket, err := NewTicket(topic, requester, "Trip to Brno")
	require.NoError(t, err)
	ticket.ID = 42
	for _, a := range acks {
		ticket.Acks = append(ticket.Acks, TicketAck{TicketID: 42, AckType: a, Added: time.Now()})
	}
	return ticket
}

func ratingPtr(v int) *int { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTicket_State(t *testing.T) {
	tests := []struct {
		name     string
		acks     []AckType
		rating   *int
		imported bool
		want     string
		code     string
	}{
		{"no acks", nil, ratingPtr(100), false, "draft", "draft"},
		{"imported wins", []AckType{AckClose}, ratingPtr(100), true, "historical", "historical"},
		{"closed", []AckType{AckArchive, AckClose}, ratingPtr(100), false, "closed", "closed"},
		{"archived", []AckType{AckContent, AckArchive}, ratingPtr(100), false, "archived", "archived"},
		{"content without rating", []AckType{AckContent}, nil, false, "waiting for content rating", "wfrating"},
		{"content with zero rating", []AckType{AckContent}, ratingPtr(0), false, "waiting for content rating", "wfrating"},
		{"content and docs", []AckType{AckContent, AckDocs}, ratingPtr(80), false, "complete", "complete"},
		{"content and user docs", []AckType{AckContent, AckUserDocs}, ratingPtr(80), false, "waiting for filing of documents", "wffill"},
		{"content only", []AckType{AckContent}, ratingPtr(80), false, "waiting for document submission", "wfdocssub"},
		{"precontent and user content", []AckType{AckPrecontent, AckUserContent}, ratingPtr(100), false, "waiting for approval", "wfapproval"},
		{"precontent only", []AckType{AckPrecontent}, ratingPtr(100), false, "waiting for submitting", "wfsubmitting"},
		{"user precontent", []AckType{AckUserPrecontent}, ratingPtr(100), false, "waiting for preapproval", "wfpreapproval"},
		{"user content", []AckType{AckUserContent}, ratingPtr(100), false, "waiting for approval", "wfapproval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := newTestTicket(t, newUser(1), tt.acks...)
			ticket.RatingPercentage = tt.rating
			ticket.Imported = tt.imported

			assert.Equal(t, tt.want, ticket.StateString())
			assert.Equal(t, tt.code, ticket.StateCode())
		})
	}
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, PaymentNA, PaymentStatusFor(0, 0))
	assert.Equal(t, PaymentUnpaid, PaymentStatusFor(0, 3))
	assert.Equal(t, PaymentPartiallyPaid, PaymentStatusFor(1, 3))
	assert.Equal(t, PaymentPaid, PaymentStatusFor(3, 3))
	assert.Equal(t, "n/a", PaymentNA.Display())
	assert.True(t, PaymentOverpaid.IsValid())
}

func TestTicket_Expeditures(t *testing.T) {
	t.Run("accepted needs content ack", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.Expeditures = []Expediture{{Amount: money("100")}}

		assert.True(t, ticket.AcceptedExpeditures().IsZero())
	})

	t.Run("accepted applies rating with half-up rounding", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckContent)
		ticket.RatingPercentage = ratingPtr(50)
		ticket.Expeditures = []Expediture{{Amount: money("10.01")}, {Amount: money("0.00")}}

		assert.Equal(t, "5.01", ticket.AcceptedExpeditures().StringFixed(2))
	})

	t.Run("accepted is zero without rating", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckContent)
		ticket.RatingPercentage = nil
		ticket.Expeditures = []Expediture{{Amount: money("100")}}

		assert.True(t, ticket.AcceptedExpeditures().IsZero())
	})

	t.Run("paid counts only paid items without ack check", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.RatingPercentage = ratingPtr(80)
		ticket.Expeditures = []Expediture{
			{Amount: money("100"), Paid: true},
			{Amount: money("50"), Paid: false},
		}

		assert.Equal(t, "80.00", ticket.PaidExpeditures().StringFixed(2))
	})

	t.Run("paid is zero without rating", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.RatingPercentage = nil
		ticket.Expeditures = []Expediture{{Amount: money("100"), Paid: true}}

		assert.True(t, ticket.PaidExpeditures().IsZero())
	})

	t.Run("payment status follows paid counts", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		assert.Equal(t, PaymentNA, ticket.ComputePaymentStatus())

		ticket.Expeditures = []Expediture{{Amount: money("1")}, {Amount: money("2"), Paid: true}}
		assert.Equal(t, PaymentPartiallyPaid, ticket.ComputePaymentStatus())

		ticket.Expeditures[0].Paid = true
		assert.Equal(t, PaymentPaid, ticket.ComputePaymentStatus())
	})
}

func TestTicket_PossibleUserAckTypes(t *testing.T) {
	t.Run("all on draft", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))

		assert.Equal(t, []AckType{AckUserPrecontent, AckUserContent, AckUserDocs}, ticket.PossibleUserAckTypes())
	})

	t.Run("uber acks hide their user ack", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckPrecontent, AckUserContent)

		assert.Equal(t, []AckType{AckUserDocs}, ticket.PossibleUserAckTypes())
		assert.Equal(t, "expense documents submitted", ticket.PossibleUserAcks()[0].Display)
	})
}

func TestTicket_CanAckBeAdded(t *testing.T) {
	minWait := 3 * 24 * time.Hour
	now := time.Now()

	t.Run("non wait acks pass", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckClose)

		assert.True(t, ticket.CanAckBeAdded(AckDocs, now, minWait))
		assert.True(t, ticket.CanAckBeAdded(AckArchive, now, minWait))
	})

	t.Run("needs user ack", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))

		assert.False(t, ticket.CanAckBeAdded(AckContent, now, minWait))
	})

	t.Run("needs wait to pass", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.Acks = []TicketAck{{AckType: AckUserContent, Added: now.Add(-24 * time.Hour)}}

		assert.False(t, ticket.CanAckBeAdded(AckContent, now, minWait))

		ticket.Acks[0].Added = now.Add(-4 * 24 * time.Hour)
		assert.True(t, ticket.CanAckBeAdded(AckContent, now, minWait))
	})

	t.Run("precontent blocked after content", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.Acks = []TicketAck{
			{AckType: AckUserPrecontent, Added: now.Add(-10 * 24 * time.Hour)},
			{AckType: AckContent, Added: now},
		}

		assert.False(t, ticket.CanAckBeAdded(AckPrecontent, now, minWait))
	})

	t.Run("locked or already present", func(t *testing.T) {
		old := now.Add(-10 * 24 * time.Hour)
		ticket := newTestTicket(t, newUser(1))
		ticket.Acks = []TicketAck{{AckType: AckUserContent, Added: old}, {AckType: AckArchive, Added: old}}
		assert.False(t, ticket.CanAckBeAdded(AckContent, now, minWait))

		ticket.Acks = []TicketAck{{AckType: AckUserContent, Added: old}, {AckType: AckContent, Added: old}}
		assert.False(t, ticket.CanAckBeAdded(AckContent, now, minWait))
	})
}

func TestTicket_Permissions(t *testing.T) {
	requester := newUser(1)
	stranger := newUser(2)
	supervisor := newUser(3, identity.PermSupervisor)

	t.Run("editable until archived", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		assert.True(t, ticket.IsEditable(stranger))
		assert.True(t, ticket.CanEdit(requester))
		assert.False(t, ticket.CanEdit(stranger))

		ticket.Acks = append(ticket.Acks, TicketAck{AckType: AckArchive})
		assert.False(t, ticket.IsEditable(requester))
		assert.False(t, ticket.CanEdit(requester))
		assert.True(t, ticket.IsEditable(supervisor))
	})

	t.Run("anonymous cannot edit", func(t *testing.T) {
		ticket := newTestTicket(t, requester)

		assert.False(t, ticket.IsEditable(nil))
		assert.False(t, ticket.CanEdit(nil))
	})

	t.Run("documents", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		viewer := newUser(4, identity.PermSeeAllDocs)
		editor := newUser(5, identity.PermEditAllDocs)

		assert.True(t, ticket.CanSeeAllDocuments(requester))
		assert.True(t, ticket.CanSeeAllDocuments(viewer))
		assert.True(t, ticket.CanSeeAllDocuments(editor))
		assert.False(t, ticket.CanSeeAllDocuments(stranger))
		assert.False(t, ticket.CanEditDocuments(viewer))
		assert.True(t, ticket.CanEditDocuments(editor))
	})

	t.Run("comments", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		assert.True(t, ticket.CanSeeComments(nil, nil))

		ticket.Topic.TicketCommentsPublic = false
		assert.False(t, ticket.CanSeeComments(nil, nil))
		assert.False(t, ticket.CanSeeComments(stranger, &identity.TrackerProfile{}))
		assert.True(t, ticket.CanSeeComments(stranger, &identity.TrackerProfile{ChapterUsername: "jan"}))
		assert.True(t, ticket.CanSeeComments(requester, nil))
		assert.True(t, ticket.CanSeeComments(supervisor, nil))
	})

	t.Run("copy preexpeditures only before content", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		assert.True(t, ticket.CanCopyPreexpeditures(requester))

		ticket.Acks = append(ticket.Acks, TicketAck{AckType: AckContent})
		assert.False(t, ticket.CanCopyPreexpeditures(requester))
	})

	t.Run("expense editing windows", func(t *testing.T) {
		ticket := newTestTicket(t, requester, AckPrecontent)
		assert.True(t, ticket.CanEditExpeditures(requester, identity.PermAddExpediture))
		assert.False(t, ticket.CanEditPreexpeditures(requester, identity.PermAddPreexpediture))
		assert.True(t, ticket.CanEditPreexpeditures(newUser(9, identity.PermAddPreexpediture), identity.PermAddPreexpediture))
	})

	t.Run("admin acks", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		ticket.Topic.AdminIDs = []int64{2}

		assert.True(t, ticket.CanAdminAck(stranger))
		assert.True(t, ticket.CanAdminAck(supervisor))
		assert.False(t, ticket.CanAdminAck(requester))
	})

	t.Run("signing", func(t *testing.T) {
		ticket := newTestTicket(t, requester)
		assert.False(t, ticket.CanSign(stranger))

		ticket.Topic.TicketStatutoryDeclaration = true
		ticket.CarTravel = true
		assert.True(t, ticket.CanSign(stranger))
		assert.False(t, ticket.CanSign(requester))
	})
}

func TestTicket_Touch(t *testing.T) {
	now := time.Date(2024, 5, 17, 14, 30, 0, 0, time.UTC)

	t.Run("sets defaults and derived fields", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckClose)
		ticket.Expeditures = []Expediture{{Amount: money("1"), Paid: true}}

		ticket.Touch(nil, now)

		assert.Equal(t, now, ticket.Updated)
		require.NotNil(t, ticket.EventDate)
		assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *ticket.EventDate)
		assert.Equal(t, PaymentPaid, ticket.PaymentStatus)
		assert.True(t, ticket.IsCompleted)
	})

	t.Run("keeps explicit event date", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		eventDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		ticket.EventDate = &eventDate

		ticket.Touch(nil, now)

		assert.Equal(t, eventDate, *ticket.EventDate)
	})

	t.Run("declaration date follows the declaration", func(t *testing.T) {
		prev := newTestTicket(t, newUser(1))
		ticket := newTestTicket(t, newUser(1))
		ticket.CarTravel = true
		ticket.StatutoryDeclaration = true

		ticket.Touch(prev, now)
		require.NotNil(t, ticket.StatutoryDeclarationDate)
		assert.Equal(t, now, *ticket.StatutoryDeclarationDate)

		prev.StatutoryDeclaration = true
		ticket.StatutoryDeclaration = false
		ticket.Touch(prev, now)
		assert.Nil(t, ticket.StatutoryDeclarationDate)
	})

	t.Run("declaration requires car travel", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.StatutoryDeclaration = true

		ticket.Touch(nil, now)

		assert.False(t, ticket.StatutoryDeclaration)
		assert.Nil(t, ticket.StatutoryDeclarationDate)
	})
}

func TestTicket_Validation(t *testing.T) {
	t.Run("deposit on create", func(t *testing.T) {
		assert.NoError(t, ValidateDepositOnCreate(decimal.Zero))
		assert.ErrorIs(t, ValidateDepositOnCreate(money("10")), ErrDepositNotZero)
	})

	t.Run("deposit capped by preexpeditures", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		assert.ErrorIs(t, ticket.ValidateDepositOnUpdate(money("1")), ErrDepositTooHigh)

		ticket.Preexpeditures = []Preexpediture{{Amount: money("100")}, {Amount: money("50")}}
		assert.NoError(t, ticket.ValidateDepositOnUpdate(money("150")))
		assert.ErrorIs(t, ticket.ValidateDepositOnUpdate(money("150.01")), ErrDepositTooHigh)
	})

	t.Run("deposit locked after precontent", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1), AckPrecontent)
		ticket.Preexpeditures = []Preexpediture{{Amount: money("100")}}

		assert.ErrorIs(t, ticket.ValidateDepositOnUpdate(money("10")), ErrDepositLocked)
		assert.NoError(t, ticket.ValidateDepositOnUpdate(decimal.Zero))
	})

	t.Run("subtopic must match topic", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))

		assert.NoError(t, ticket.ValidateSubtopic(nil))
		assert.NoError(t, ticket.ValidateSubtopic(&Subtopic{TopicID: 10}))
		assert.ErrorIs(t, ticket.ValidateSubtopic(&Subtopic{TopicID: 11}), ErrSubtopicMismatch)
	})

	t.Run("statutory declaration", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))
		ticket.Topic.TicketStatutoryDeclaration = true
		ticket.CarTravel = true

		assert.ErrorIs(t, ticket.ValidateStatutoryDeclaration(), ErrStatutoryRequired)

		ticket.StatutoryDeclaration = true
		assert.NoError(t, ticket.ValidateStatutoryDeclaration())
	})

	t.Run("name length", func(t *testing.T) {
		ticket := newTestTicket(t, newUser(1))

		assert.Error(t, ticket.Rename(""))
		assert.NoError(t, ticket.Rename("Wikimania"))
	})
}

func TestTicket_RequestedBy(t *testing.T) {
	requester := newUser(1)
	requester.Username = "jan"
	ticket := newTestTicket(t, requester)
	assert.Equal(t, "jan", ticket.RequestedBy())
	assert.Equal(t, "42: Trip to Brno", ticket.String())

	anonymous := newTestTicket(t, nil)
	anonymous.RequestedText = "Old tracker"
	assert.Nil(t, anonymous.RequestedUserID)
	assert.Equal(t, "Old tracker", anonymous.RequestedBy())
}
