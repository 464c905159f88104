package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
)

func TestGormTicketRepository_CreateAndLoad(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()

	ticket := f.newTicket(t, "Castle photos", "100.00", "50.50")
	require.NotZero(t, ticket.ID)

	ack, err := tracker.NewTicketAck(ticket.ID, tracker.AckUserContent, &f.user.ID, "", time.Now())
	require.NoError(t, err)
	ticket.Acks = append(ticket.Acks, *ack)
	ticket.RecomputeDerived()
	require.NoError(t, repo.AddAck(ctx, ticket, ack))

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)

	assert.Equal(t, "Castle photos", loaded.Name)
	require.NotNil(t, loaded.Topic)
	assert.Equal(t, f.topic.ID, loaded.Topic.ID)
	assert.Equal(t, []int64{f.admin.ID}, loaded.Topic.AdminIDs)
	require.NotNil(t, loaded.Topic.Grant)
	assert.Equal(t, "CS", loaded.Topic.Grant.ShortName)
	require.NotNil(t, loaded.RequestedUser)
	assert.Equal(t, "requester", loaded.RequestedBy())

	require.Len(t, loaded.Acks, 1)
	assert.Equal(t, "requester", loaded.Acks[0].AddedBy)
	assert.Equal(t, tracker.StateWaitingApproval, loaded.State())

	count, sum := loaded.ExpeditureTotals()
	assert.Equal(t, 2, count)
	assert.Equal(t, "150.50", sum.StringFixed(2))
	assert.Equal(t, tracker.PaymentUnpaid, loaded.PaymentStatus)
	assert.NotNil(t, loaded.EventDate)

	_, err = repo.FindByID(ctx, 9999)
	assert.True(t, shared.IsNotFound(err))
}

func TestGormTicketRepository_Expeditures(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Trip", "10.00")

	t.Run("paying every expediture marks ticket paid", func(t *testing.T) {
		e := ticket.Expeditures[0]
		e.Paid = true
		ticket.Expeditures[0] = e
		ticket.RecomputeDerived()
		require.NoError(t, repo.SaveExpediture(ctx, ticket, &e))

		loaded, err := repo.FindByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, tracker.PaymentPaid, loaded.PaymentStatus)
		assert.True(t, loaded.Expeditures[0].Paid)
	})

	t.Run("adding an unpaid one makes it partial", func(t *testing.T) {
		e, err := tracker.NewExpediture(ticket.ID, "Train", decimal.RequireFromString("5"), false)
		require.NoError(t, err)
		ticket.Expeditures = append(ticket.Expeditures, *e)
		ticket.RecomputeDerived()
		require.NoError(t, repo.SaveExpediture(ctx, ticket, e))
		require.NotZero(t, e.ID)
		ticket.Expeditures[1].ID = e.ID

		loaded, err := repo.FindByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, tracker.PaymentPartiallyPaid, loaded.PaymentStatus)
		assert.Len(t, loaded.Expeditures, 2)
	})

	t.Run("expediture of another ticket is not found", func(t *testing.T) {
		other := f.newTicket(t, "Other")
		err := repo.DeleteExpediture(ctx, other, ticket.Expeditures[0].ID)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("delete and list", func(t *testing.T) {
		id := ticket.Expeditures[1].ID
		ticket.Expeditures = ticket.Expeditures[:1]
		ticket.RecomputeDerived()
		require.NoError(t, repo.DeleteExpediture(ctx, ticket, id))

		items, err := repo.ListExpeditures(ctx, []int64{ticket.ID})
		require.NoError(t, err)
		require.Len(t, items, 1)

		_, err = repo.FindExpediture(ctx, id)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormTicketRepository_ReplaceExpeditures(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()

	replacement := func(t *testing.T, ticketID int64, amounts ...string) []*tracker.Expediture {
		t.Helper()
		items := make([]*tracker.Expediture, len(amounts))
		for i, a := range amounts {
			e, err := tracker.NewExpediture(ticketID, "planned "+a, decimal.RequireFromString(a), false)
			require.NoError(t, err)
			items[i] = e
		}
		return items
	}

	t.Run("old expeditures are swapped for the new ones", func(t *testing.T) {
		ticket := f.newTicket(t, "Conference", "10.00", "20.00")
		items := replacement(t, ticket.ID, "7.50")
		ticket.Expeditures = []tracker.Expediture{*items[0]}
		ticket.RecomputeDerived()
		require.NoError(t, repo.ReplaceExpeditures(ctx, ticket, items))
		require.NotZero(t, items[0].ID)

		loaded, err := repo.FindByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Expeditures, 1)
		assert.Equal(t, "planned 7.50", loaded.Expeditures[0].Description)
		assert.Equal(t, tracker.PaymentUnpaid, loaded.PaymentStatus)
	})

	t.Run("empty replacement clears the ticket", func(t *testing.T) {
		ticket := f.newTicket(t, "Workshop", "5.00")
		ticket.Expeditures = nil
		ticket.RecomputeDerived()
		require.NoError(t, repo.ReplaceExpeditures(ctx, ticket, nil))

		items, err := repo.ListExpeditures(ctx, []int64{ticket.ID})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("failed insert keeps the old expeditures", func(t *testing.T) {
		other := f.newTicket(t, "Other", "1.00")
		ticket := f.newTicket(t, "Exhibition", "30.00", "40.00")
		before := ticket.PaymentStatus

		items := replacement(t, ticket.ID, "3.00", "4.00")
		items[1].ID = other.Expeditures[0].ID
		ticket.Expeditures = []tracker.Expediture{*items[0], *items[1]}
		ticket.RecomputeDerived()
		require.Error(t, repo.ReplaceExpeditures(ctx, ticket, items))

		loaded, err := repo.FindByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Expeditures, 2)
		count, sum := loaded.ExpeditureTotals()
		assert.Equal(t, 2, count)
		assert.Equal(t, "70.00", sum.StringFixed(2))
		assert.Equal(t, before, loaded.PaymentStatus)

		kept, err := repo.FindExpediture(ctx, other.Expeditures[0].ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, kept.TicketID)
	})
}

func TestGormTicketRepository_Preexpeditures(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Plan")

	p, err := tracker.NewPreexpediture(ticket.ID, "Hotel", decimal.RequireFromString("80"), false)
	require.NoError(t, err)
	require.NoError(t, repo.SavePreexpediture(ctx, ticket, p))
	require.NotZero(t, p.ID)

	p.Amount = decimal.RequireFromString("90")
	require.NoError(t, repo.SavePreexpediture(ctx, ticket, p))

	found, err := repo.FindPreexpediture(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "90.00", found.Amount.StringFixed(2))

	items, err := repo.ListPreexpeditures(ctx, []int64{ticket.ID})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.DeletePreexpediture(ctx, ticket, p.ID))
	items, err = repo.ListPreexpeditures(ctx, []int64{ticket.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGormTicketRepository_Acks(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Closing")

	ack, err := tracker.NewTicketAck(ticket.ID, tracker.AckClose, &f.admin.ID, "done", time.Now())
	require.NoError(t, err)
	ticket.Acks = append(ticket.Acks, *ack)
	ticket.RecomputeDerived()
	require.NoError(t, repo.AddAck(ctx, ticket, ack))

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsCompleted)
	assert.Equal(t, "topicadmin", loaded.Acks[0].AddedBy)

	ticket.Acks = nil
	ticket.RecomputeDerived()
	require.NoError(t, repo.RemoveAck(ctx, ticket, ack.ID))

	loaded, err = repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsCompleted)
	assert.Empty(t, loaded.Acks)
}

func TestGormTicketRepository_FindAll(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()

	first := f.newTicket(t, "Alpha meetup", "10")
	second := f.newTicket(t, "Beta workshop")
	second.SubtopicID = &f.subtopic.ID
	require.NoError(t, repo.Update(ctx, second))

	t.Run("pages and counts", func(t *testing.T) {
		tickets, total, err := repo.FindAll(ctx, tracker.TicketFilter{Page: 1, PageSize: 1, OrderBy: "id"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, tickets, 1)
		assert.Equal(t, first.ID, tickets[0].ID)
	})

	t.Run("search by name", func(t *testing.T) {
		tickets, _, err := repo.FindAll(ctx, tracker.TicketFilter{Search: "beta"})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, second.ID, tickets[0].ID)
		require.NotNil(t, tickets[0].Subtopic)
		assert.Equal(t, "Castles", tickets[0].Subtopic.Name)
	})

	t.Run("filters", func(t *testing.T) {
		tickets, err := repo.FindAllLoaded(ctx, tracker.TicketFilter{PaymentStatus: tracker.PaymentUnpaid})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, first.ID, tickets[0].ID)

		tickets, err = repo.FindAllLoaded(ctx, tracker.TicketFilter{GrantID: &f.grant.ID, OrderBy: "-name"})
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, second.ID, tickets[0].ID)

		other := int64(9999)
		tickets, err = repo.FindAllLoaded(ctx, tracker.TicketFilter{RequestedUserID: []int64{other}})
		require.NoError(t, err)
		assert.Empty(t, tickets)
	})
}

func TestGormTicketRepository_Delete(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Doomed", "10")

	media, err := tracker.NewMediaInfo(ticket.ID, "File:Castle.jpg", 0)
	require.NoError(t, err)
	media.Categories = []tracker.MediaInfoCategory{{Title: "Castles"}}
	require.NoError(t, NewGormMediaRepository(f.db).Create(ctx, media))
	require.NoError(t, NewGormWatcherRepository(f.db).Create(ctx,
		notification.NewWatcher(notification.WatchTicket, ticket.ID, f.user.ID, notification.TypeComment)))

	require.NoError(t, repo.Delete(ctx, ticket.ID))

	for _, model := range []any{&models.ExpeditureModel{}, &models.MediaInfoModel{}, &models.MediaInfoCategoryModel{}, &models.WatcherModel{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, ticket.ID)))
}

func TestGormTicketRepository_TouchAndMedia(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTicketRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Touched")

	require.NoError(t, repo.SetMediaUpdated(ctx, ticket.ID))
	require.NoError(t, repo.Touch(ctx, ticket.ID))
	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded.MediaUpdated)
	assert.False(t, loaded.Updated.Before(ticket.Updated))

	assert.True(t, shared.IsNotFound(repo.Touch(ctx, 9999)))
}
