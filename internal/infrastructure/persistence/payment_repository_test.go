package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/payment"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
)

func TestGormTransactionRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormTransactionRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Paid trip", "40")

	older, err := payment.NewTransaction(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("40"), "Refund")
	require.NoError(t, err)
	older.OtherID = &f.user.ID
	older.TicketIDs = []int64{ticket.ID, ticket.ID}
	require.NoError(t, repo.Create(ctx, older))

	newer, err := payment.NewTransaction(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("-5"), "Fee")
	require.NoError(t, err)
	newer.OtherText = "Bank"
	require.NoError(t, repo.Create(ctx, newer))

	t.Run("lists newest first with links", func(t *testing.T) {
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, newer.ID, all[0].ID)
		assert.Equal(t, "Bank", all[0].OtherParty())

		assert.Equal(t, []int64{ticket.ID}, all[1].TicketIDs)
		assert.Equal(t, []string{"CS"}, all[1].GrantShortNames)
		assert.Equal(t, "requester", all[1].OtherParty())
		assert.Equal(t, "35.00", payment.SumAmounts(all).StringFixed(2))
	})

	t.Run("by counterparty", func(t *testing.T) {
		mine, err := repo.FindByOther(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, older.ID, mine[0].ID)
	})
}

func TestGormClusterRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormClusterRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Clustered", "40")

	total := decimal.RequireFromString("40")
	paid := decimal.RequireFromString("30")
	require.NoError(t, f.db.Create(&models.ClusterModel{
		ID:                ticket.ID,
		MoreTickets:       false,
		TotalTickets:      &total,
		TotalTransactions: &paid,
	}).Error)
	require.NoError(t, f.db.Model(&models.TicketModel{}).Where("id = ?", ticket.ID).Update("cluster_id", ticket.ID).Error)

	tx, err := payment.NewTransaction(time.Now(), paid, "Partial refund")
	require.NoError(t, err)
	tx.ClusterID = &ticket.ID
	require.NoError(t, NewGormTransactionRepository(f.db).Create(ctx, tx))

	cluster, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{ticket.ID}, cluster.TicketIDs)
	require.Len(t, cluster.Transactions, 1)
	assert.Equal(t, "-10", cluster.Balance().String())

	id, err := repo.FindClusterIDOfTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, ticket.ID, *id)

	_, err = repo.FindByID(ctx, 9999)
	assert.True(t, shared.IsNotFound(err))
}
