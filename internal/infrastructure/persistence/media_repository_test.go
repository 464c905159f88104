package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
)

func TestGormMediaRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMediaRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Photos")

	media, err := tracker.NewMediaInfo(ticket.ID, "File:Karlstejn.jpg", 0)
	require.NoError(t, err)
	media.Categories = []tracker.MediaInfoCategory{{Title: "Castles"}, {Title: "Bohemia"}}
	require.NoError(t, repo.Create(ctx, media))
	require.NotZero(t, media.ID)

	t.Run("duplicate page is rejected", func(t *testing.T) {
		dup, err := tracker.NewMediaInfo(ticket.ID, "File:Karlstejn.jpg", 0)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), tracker.ErrDuplicateMedia)
	})

	t.Run("same page on another ticket is fine", func(t *testing.T) {
		other := f.newTicket(t, "Other photos")
		m, err := tracker.NewMediaInfo(other.ID, "File:Karlstejn.jpg", 0)
		require.NoError(t, err)
		assert.NoError(t, repo.Create(ctx, m))
	})

	t.Run("update replaces categories and usages", func(t *testing.T) {
		media.PageID = 42
		media.Width = 800
		media.Categories = []tracker.MediaInfoCategory{{Title: "Karlštejn"}}
		media.Usages = []tracker.MediaInfoUsage{
			{URL: "https://cs.wikipedia.org/wiki/Karl%C5%A1tejn", Title: "Karlštejn", Project: "cs.wikipedia.org"},
			{URL: "https://www.wikidata.org/wiki/Q1", Title: "Q1", Project: "www.wikidata.org"},
		}
		require.NoError(t, repo.Update(ctx, media))

		found, err := repo.FindByID(ctx, media.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), found.PageID)
		assert.Equal(t, 800, found.Width)
		require.Len(t, found.Categories, 1)
		assert.Equal(t, "Karlštejn", found.Categories[0].Title)
		require.Len(t, found.Usages, 2)
		assert.True(t, found.Usages[1].IsWikidata())
	})

	t.Run("ticket media count", func(t *testing.T) {
		loaded, err := NewGormTicketRepository(f.db).FindByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.MediaCount)

		items, err := repo.FindByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, media.ID))
		_, err := repo.FindByID(ctx, media.ID)
		assert.True(t, shared.IsNotFound(err))
		assert.True(t, shared.IsNotFound(repo.Delete(ctx, media.ID)))
	})
}

func TestGormDocumentRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormDocumentRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Invoices")

	doc, err := tracker.NewDocument(ticket.ID, "invoice-1.pdf", "application/pdf", "Hotel", 1024, &f.user.ID)
	require.NoError(t, err)
	doc.StorageKey = "tickets/1/invoice-1.pdf"
	require.NoError(t, repo.Create(ctx, doc))

	t.Run("filename is unique per ticket", func(t *testing.T) {
		dup, err := tracker.NewDocument(ticket.ID, "invoice-1.pdf", "", "", 1, nil)
		require.NoError(t, err)
		dup.StorageKey = "x"
		assert.ErrorIs(t, repo.Create(ctx, dup), tracker.ErrDuplicateDocument)
	})

	t.Run("loads uploader", func(t *testing.T) {
		found, err := repo.FindByFilename(ctx, ticket.ID, "invoice-1.pdf")
		require.NoError(t, err)
		assert.Equal(t, "requester", found.Uploader)
		assert.Equal(t, int64(1024), found.Size)
	})

	t.Run("update description", func(t *testing.T) {
		require.NoError(t, doc.SetDescription("Hotel in Brno"))
		require.NoError(t, repo.Update(ctx, doc))
		docs, err := repo.FindByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Hotel in Brno", docs[0].Description)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, doc.ID))
		_, err := repo.FindByID(ctx, doc.ID)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormSignatureRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormSignatureRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Car trip")

	require.NoError(t, repo.Create(ctx, tracker.NewSignature(ticket.ID, f.admin.ID, "I declare")))
	ok, err := repo.Exists(ctx, ticket.ID, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	sigs, err := repo.FindByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "I declare", sigs[0].SignedText)

	require.NoError(t, repo.DeleteFor(ctx, ticket.ID, f.admin.ID))
	ok, err = repo.Exists(ctx, ticket.ID, f.admin.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormCommentRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormCommentRepository(f.db)
	ctx := context.Background()
	ticket := f.newTicket(t, "Discussed")

	first, err := tracker.NewComment(ticket.ID, &f.user.ID, "requester", "First")
	require.NoError(t, err)
	first.Submitted = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, first))

	removed, err := tracker.NewComment(ticket.ID, &f.user.ID, "requester", "Spam")
	require.NoError(t, err)
	removed.IsRemoved = true
	require.NoError(t, repo.Create(ctx, removed))

	second, err := tracker.NewComment(ticket.ID, &f.admin.ID, "topicadmin", "Second")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	comments, err := repo.FindByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "First", comments[0].Comment)
	assert.Equal(t, "Second", comments[1].Comment)
}

func TestGormReportRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReportRepository(f.db)
	tickets := NewGormTicketRepository(f.db)
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		ticket := f.newTicket(t, name)
		ack, err := tracker.NewTicketAck(ticket.ID, tracker.AckContent, &f.admin.ID, "", time.Now())
		require.NoError(t, err)
		require.NoError(t, tickets.AddAck(ctx, ticket, ack))
	}
	third := f.newTicket(t, "Three")
	systemAck, err := tracker.NewTicketAck(third.ID, tracker.AckContent, nil, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, tickets.AddAck(ctx, third, systemAck))

	media, err := tracker.NewMediaInfo(third.ID, "File:A.jpg", 0)
	require.NoError(t, err)
	require.NoError(t, NewGormMediaRepository(f.db).Create(ctx, media))

	t.Run("content acks per user", func(t *testing.T) {
		rows, err := repo.ContentAcksPerUser(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tracker.AckCount{
			UserID:   f.admin.ID,
			GrantID:  f.grant.ID,
			TopicID:  f.topic.ID,
			AckCount: 2,
		}, rows[0])
	})

	t.Run("counts", func(t *testing.T) {
		n, err := repo.CountTickets(ctx, &f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountTickets(ctx, &f.admin.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repo.CountMedia(ctx, &f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.CountMedia(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
