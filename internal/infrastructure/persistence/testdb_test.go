package persistence

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with every table.
// A single connection keeps the memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

// fixture builds the rows most repository tests need
type fixture struct {
	db       *gorm.DB
	user     *identity.User
	admin    *identity.User
	grant    *tracker.Grant
	topic    *tracker.Topic
	subtopic *tracker.Subtopic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()
	f := &fixture{db: db}

	users := NewGormUserRepository(db)
	f.user = mustUser(t, users, "requester")
	f.admin = mustUser(t, users, "topicadmin")

	grant, err := tracker.NewGrant("Community support", "CS", "community", "")
	require.NoError(t, err)
	require.NoError(t, NewGormGrantRepository(db).Create(ctx, grant))
	f.grant = grant

	topic, err := tracker.NewTopic(grant.ID, "Photography")
	require.NoError(t, err)
	topic.AdminIDs = []int64{f.admin.ID}
	require.NoError(t, NewGormTopicRepository(db).Create(ctx, topic))
	f.topic = topic

	subtopic, err := tracker.NewSubtopic(topic.ID, "Castles")
	require.NoError(t, err)
	require.NoError(t, NewGormSubtopicRepository(db).Create(ctx, subtopic))
	f.subtopic = subtopic
	return f
}

func mustUser(t *testing.T, repo *GormUserRepository, username string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.org", "password123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

// newTicket stores a ticket of the fixture topic requested by the fixture user
func (f *fixture) newTicket(t *testing.T, name string, amounts ...string) *tracker.Ticket {
	t.Helper()
	ticket, err := tracker.NewTicket(f.topic, f.user, name)
	require.NoError(t, err)
	for _, a := range amounts {
		e, err := tracker.NewExpediture(0, "item "+a, decimal.RequireFromString(a), false)
		require.NoError(t, err)
		ticket.Expeditures = append(ticket.Expeditures, *e)
	}
	ticket.Touch(nil, time.Now())
	require.NoError(t, NewGormTicketRepository(f.db).Create(context.Background(), ticket))
	return ticket
}
