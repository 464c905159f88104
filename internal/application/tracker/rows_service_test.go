package tracker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/cache"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func decodeRows(t *testing.T, body []byte) []TicketRow {
	t.Helper()
	var out ticketRows
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Data
}

func TestRowsService_Rows(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	first := f.CreateTicket(t, "First")
	second := f.CreateTicket(t, "Second")
	archived := addAck(t, f, f.CreateTicket(t, "Old"), tracker.AckArchive)

	store := cache.NewInMemoryStore()
	defer store.Close()
	rowsCache := cache.NewTicketRowsCache(store, time.Hour, nil)
	svc := NewRowsService(f.Repos.Tickets, rowsCache, nil)

	body, err := svc.Rows(ctx, "en", false)
	require.NoError(t, err)
	rows := decodeRows(t, body)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
	assert.Equal(t, "Community support", rows[0].Grant.Name)
	assert.Equal(t, "community", rows[0].GrantSlug)
	assert.Equal(t, "draft", rows[0].State.Display)
	require.NotNil(t, rows[0].RequestedUser)
	assert.Equal(t, "requester", *rows[0].RequestedUser)

	cached, err := rowsCache.Get(ctx, "en", false)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(cached))

	// served from cache until invalidated
	f.CreateTicket(t, "Third")
	body, err = svc.Rows(ctx, "en", false)
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, body), 2)

	require.NoError(t, rowsCache.Invalidate(ctx, false))
	body, err = svc.Rows(ctx, "en", false)
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, body), 3)

	body, err = svc.Rows(ctx, "cs", true)
	require.NoError(t, err)
	rows = decodeRows(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, archived.ID, rows[0].ID)
	assert.Equal(t, "archived", rows[0].State.Code)
}

func TestRowsService_WithoutCache(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTicket(t, "Only")
	svc := NewRowsService(f.Repos.Tickets, nil, nil)

	body, err := svc.Rows(context.Background(), "en", false)
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, body), 1)
	assert.NoError(t, svc.Warm(context.Background(), []string{"en"}))
}

func TestRowsService_Warm(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	f.CreateTicket(t, "Trip")

	rowsCache := cache.NewTicketRowsCache(cache.NewInMemoryStore(), 0, nil)
	svc := NewRowsService(f.Repos.Tickets, rowsCache, nil)
	require.NoError(t, svc.Warm(ctx, []string{"en", "cs"}))

	for _, lang := range []string{"en", "cs"} {
		_, err := rowsCache.Get(ctx, lang, false)
		assert.NoError(t, err, lang)
		_, err = rowsCache.Get(ctx, lang, true)
		assert.NoError(t, err, lang)
	}
}

func TestBuildTicketRow(t *testing.T) {
	f := testutil.NewFixture(t)
	ticket := f.CreateTicket(t, "Castle photos")
	loaded, err := f.Repos.Tickets.FindByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	event := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loaded.EventDate = &event

	row := BuildTicketRow(loaded, "cs")
	require.NotNil(t, row.EventDate)
	assert.Equal(t, "2024-05-01", *row.EventDate)
	assert.Equal(t, "Photography", row.Topic.Name)
	assert.Equal(t, "draft", row.State.Code)
	assert.Equal(t, "koncept", row.State.Display)
	assert.True(t, row.Expeditures.IsZero())
}
