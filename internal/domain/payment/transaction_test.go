package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates transaction", func(t *testing.T) {
		tx, err := NewTransaction(date, decimal.RequireFromString("120.456"), "Trip refund")

		require.NoError(t, err)
		assert.Equal(t, "120.46", tx.Amount.StringFixed(2))
		assert.Equal(t, "2024-03-01, 120.46: Trip refund", tx.String())
	})

	t.Run("requires description", func(t *testing.T) {
		_, err := NewTransaction(date, decimal.Zero, " ")

		assert.Error(t, err)
	})
}

func TestTransaction_OtherParty(t *testing.T) {
	tx := &Transaction{OtherText: "Bank"}
	assert.Equal(t, "Bank", tx.OtherParty())

	id := int64(4)
	tx.OtherID = &id
	tx.Other = "jan"
	assert.Equal(t, "jan", tx.OtherParty())
}

func TestSumAmounts(t *testing.T) {
	items := []*Transaction{
		{Amount: decimal.RequireFromString("10.50")},
		{Amount: decimal.RequireFromString("-2.25")},
	}

	assert.Equal(t, "8.25", SumAmounts(items).StringFixed(2))
	assert.True(t, SumAmounts(nil).IsZero())
}

func TestCluster_Balance(t *testing.T) {
	c := &Cluster{ID: 3}
	assert.True(t, c.Balance().IsZero())

	tickets := decimal.RequireFromString("100")
	txs := decimal.RequireFromString("80")
	c.TotalTickets = &tickets
	c.TotalTransactions = &txs
	assert.Equal(t, "-20", c.Balance().String())
}
