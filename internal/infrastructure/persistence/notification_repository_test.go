package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
)

func TestGormNotificationRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormNotificationRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Noisy")
	now := time.Now()

	n1 := notification.New(f.user.ID, notification.TypeComment, "Comment on 1: hello",
		"comment|Comment on 1: hello", &ticket.ID, now.Add(-time.Minute))
	n2 := notification.New(f.user.ID, notification.TypeAckAdd, "Ack added", "ack_add|Ack added", &ticket.ID, now)
	n3 := notification.New(f.admin.ID, notification.TypeComment, "Comment on 1: hello",
		"comment|Comment on 1: hello", &ticket.ID, now)
	for _, n := range []*notification.Notification{n1, n2, n3} {
		require.NoError(t, repo.Create(ctx, n))
	}

	t.Run("duplicates by dedup key", func(t *testing.T) {
		ok, err := repo.ExistsDuplicate(ctx, notification.TypeComment, "comment|Comment on 1: hello")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.ExistsDuplicate(ctx, notification.TypeAckAdd, "comment|Comment on 1: hello")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("per ticket", func(t *testing.T) {
		ok, err := repo.ExistsForTicket(ctx, ticket.ID, notification.TypeTicketNew, notification.TypeAckAdd)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.ExistsForTicket(ctx, ticket.ID, notification.TypeTicketDelete)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("text fragment", func(t *testing.T) {
		ok, err := repo.ExistsWithText(ctx, notification.TypeComment, "hello")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("pending users and digest order", func(t *testing.T) {
		ids, err := repo.FindPendingUserIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{f.user.ID, f.admin.ID}, ids)

		items, err := repo.FindByUser(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, n1.ID, items[0].ID)

		require.NoError(t, repo.DeleteByUser(ctx, f.user.ID))
		ids, err = repo.FindPendingUserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.admin.ID}, ids)
	})
}

func TestGormWatcherRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormWatcherRepository(f.db)
	ctx := context.Background()

	ticketRef := notification.ObjectRef{Kind: notification.WatchTicket, ID: 7}
	topicRef := notification.ObjectRef{Kind: notification.WatchTopic, ID: f.topic.ID}

	require.NoError(t, repo.Create(ctx, notification.NewWatcher(notification.WatchTicket, 7, f.user.ID, notification.TypeComment)))
	require.NoError(t, repo.Create(ctx, notification.NewWatcher(notification.WatchTicket, 7, f.user.ID, notification.TypeAckAdd)))
	require.NoError(t, repo.Create(ctx, notification.NewWatcher(notification.WatchTopic, f.topic.ID, f.admin.ID, notification.TypeComment)))

	t.Run("users watching", func(t *testing.T) {
		ids, err := repo.UserIDsWatching(ctx, ticketRef, notification.TypeComment)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.user.ID}, ids)

		ids, err = repo.UserIDsWatching(ctx, topicRef, notification.TypeAckAdd)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("has any and has type", func(t *testing.T) {
		ok, err := repo.HasAny(ctx, f.admin.ID, ticketRef, topicRef)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.HasAny(ctx, f.admin.ID, ticketRef)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.HasType(ctx, ticketRef, f.user.ID, notification.TypeAckAdd)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("find and delete for user", func(t *testing.T) {
		ws, err := repo.FindFor(ctx, ticketRef, f.user.ID)
		require.NoError(t, err)
		assert.Len(t, ws, 2)

		require.NoError(t, repo.DeleteFor(ctx, ticketRef, f.user.ID))
		ws, err = repo.FindFor(ctx, ticketRef, f.user.ID)
		require.NoError(t, err)
		assert.Empty(t, ws)
	})
}
