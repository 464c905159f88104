package tracker

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/storage"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func newTestDocumentService(f *testutil.Fixture, store storage.ObjectStorage) *DocumentService {
	return NewDocumentService(f.Repos.Tickets, f.Repos.Documents, store, testSettings(), nil)
}

func upload(name, body string) UploadDocumentInput {
	return UploadDocumentInput{
		Filename:    name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestDocumentService_Upload(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	store := storage.NewMemoryStorage()
	notifier := newMockNotifier()
	svc := newTestDocumentService(f, store)
	svc.SetNotifier(notifier)

	doc, err := svc.Upload(ctx, f.Requester, ticket.ID, upload("invoice-1.pdf", "%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "requester", doc.Uploader)
	assert.Equal(t, int64(8), doc.Size)
	assert.Equal(t, []notification.Type{notification.TypeDocument}, notifier.firedTypes())

	obj, err := store.Open(ctx, storage.DocumentKey("docs", ticket.ID, "invoice-1.pdf"))
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = svc.Upload(ctx, f.Requester, ticket.ID, upload("invoice-1.pdf", "again"))
	assert.ErrorIs(t, err, tracker.ErrDuplicateDocument)

	_, err = svc.Upload(ctx, f.Requester, ticket.ID, upload("../etc/passwd", "x"))
	assert.ErrorIs(t, err, tracker.ErrInvalidFilename)

	_, err = svc.Upload(ctx, nil, ticket.ID, upload("invoice-2.pdf", "x"))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDocumentService_Visibility(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	svc := newTestDocumentService(f, storage.NewMemoryStorage())

	helper := f.CreateUser(t, "helper")
	clerk := f.CreateUser(t, "clerk", identity.PermSeeAllDocs)

	_, err := svc.Upload(ctx, f.Requester, ticket.ID, upload("receipt.pdf", "requester"))
	require.NoError(t, err)
	helperDoc, err := svc.Upload(ctx, helper, ticket.ID, upload("helper.pdf", "helper"))
	require.NoError(t, err)

	own, err := svc.List(ctx, helper, ticket.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "helper.pdf", own[0].Filename)

	all, err := svc.List(ctx, clerk, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Download(ctx, helper, ticket.ID, "receipt.pdf")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Update(ctx, clerk, helperDoc.ID, UpdateDocumentRequest{Description: "nope"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := svc.Update(ctx, f.Requester, helperDoc.ID, UpdateDocumentRequest{Description: "Fuel"})
	require.NoError(t, err)
	assert.Equal(t, "Fuel", updated.Description)
}

func TestDocumentService_DownloadAndDelete(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	store := storage.NewMemoryStorage()
	svc := newTestDocumentService(f, store)

	doc, err := svc.Upload(ctx, f.Requester, ticket.ID, upload("receipt.pdf", "payload"))
	require.NoError(t, err)

	dl, err := svc.Download(ctx, f.Requester, ticket.ID, "receipt.pdf")
	require.NoError(t, err)
	assert.Empty(t, dl.URL)
	require.NotNil(t, dl.Body)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "application/pdf", dl.ContentType)

	require.NoError(t, svc.Delete(ctx, f.Requester, doc.ID))
	_, err = store.Open(ctx, storage.DocumentKey("docs", ticket.ID, "receipt.pdf"))
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	_, err = svc.Download(ctx, f.Requester, ticket.ID, "receipt.pdf")
	assert.True(t, shared.IsNotFound(err))
}

func TestDocumentService_LockedTicket(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := addAck(t, f, f.CreateTicket(t, "Closed"), tracker.AckClose)
	svc := newTestDocumentService(f, storage.NewMemoryStorage())

	_, err := svc.Upload(ctx, f.Requester, ticket.ID, upload("late.pdf", "x"))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
