package comment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	notifyapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func newTestService(f *testutil.Fixture) *Service {
	r := f.Repos
	return NewService(
		r.Tickets, r.Comments, r.Users, r.Profiles,
		notifyapp.NewService(r.Notifications, r.Watchers, r.Users, r.Profiles, nil),
		notifyapp.NewWatchService(r.Watchers, r.Tickets, r.Topics, r.Grants, nil),
		nil, "https://tracker.example.org", nil,
	)
}

func pendingTypes(t *testing.T, f *testutil.Fixture, user *identity.User) []notification.Type {
	t.Helper()
	items, err := f.Repos.Notifications.FindByUser(context.Background(), user.ID)
	require.NoError(t, err)
	out := make([]notification.Type, 0, len(items))
	for _, n := range items {
		out = append(out, n.Type)
	}
	return out
}

func TestService_Create(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	svc := newTestService(f)

	c, err := svc.Create(ctx, f.Requester, ticket.ID, CreateCommentRequest{Comment: "  Thanks @supervisor and @nobody  "})
	require.NoError(t, err)
	assert.Equal(t, "requester", c.UserName)
	assert.Equal(t, "Thanks @supervisor and @nobody", c.Comment)

	assert.Empty(t, pendingTypes(t, f, f.Requester))
	assert.Equal(t, []notification.Type{notification.TypeComment}, pendingTypes(t, f, f.Admin))
	assert.Equal(t, []notification.Type{notification.TypeComment}, pendingTypes(t, f, f.Supervisor))

	items, err := f.Repos.Notifications.FindByUser(ctx, f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, items[0].Text, "https://tracker.example.org/ticket/")

	comments, err := svc.List(ctx, f.Requester, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)

	loaded, err := f.Repos.Tickets.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Updated.Before(ticket.Updated))
}

func TestService_RepeatedCommentNotifiesEachTime(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	svc := newTestService(f)

	for range 2 {
		_, err := svc.Create(ctx, f.Requester, ticket.ID, CreateCommentRequest{Comment: "ok"})
		require.NoError(t, err)
	}

	assert.Equal(t, []notification.Type{notification.TypeComment, notification.TypeComment}, pendingTypes(t, f, f.Admin))
}

func TestService_AutoWatchesCommenter(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")

	_, err := newTestService(f).Create(ctx, f.Supervisor, ticket.ID, CreateCommentRequest{Comment: "Looks good"})
	require.NoError(t, err)

	ref := notification.ObjectRef{Kind: notification.WatchTicket, ID: ticket.ID}
	watching, err := f.Repos.Watchers.HasType(ctx, ref, f.Supervisor.ID, notification.TypeComment)
	require.NoError(t, err)
	assert.True(t, watching)

	owner, err := f.Repos.Watchers.HasType(ctx, ref, f.Requester.ID, notification.TypeComment)
	require.NoError(t, err)
	assert.False(t, owner)
}

func TestService_DisabledComments(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ticket := f.CreateTicket(t, "Castle photos")
	ticket.EnableComments = false
	require.NoError(t, f.Repos.Tickets.Update(ctx, ticket))
	svc := newTestService(f)

	_, err := svc.Create(ctx, f.Requester, ticket.ID, CreateCommentRequest{Comment: "Hello"})
	assert.ErrorIs(t, err, tracker.ErrCommentsDisabled)

	moderator := f.CreateUser(t, "moderator", identity.PermBypassDisabledComments)
	_, err = svc.Create(ctx, moderator, ticket.ID, CreateCommentRequest{Comment: "Closing the discussion"})
	assert.NoError(t, err)
}

func TestService_Visibility(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	f.Topic.TicketCommentsPublic = false
	require.NoError(t, f.Repos.Topics.Update(ctx, f.Topic))
	ticket := f.CreateTicket(t, "Castle photos")
	svc := newTestService(f)
	stranger := f.CreateUser(t, "stranger")

	_, err := svc.List(ctx, stranger, ticket.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Create(ctx, stranger, ticket.ID, CreateCommentRequest{Comment: "Hi"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Create(ctx, nil, ticket.ID, CreateCommentRequest{Comment: "Hi"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Create(ctx, f.Requester, ticket.ID, CreateCommentRequest{Comment: "Only for staff"})
	require.NoError(t, err)
	comments, err := svc.List(ctx, f.Supervisor, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = svc.Create(ctx, f.Requester, ticket.ID, CreateCommentRequest{Comment: "   "})
	assert.ErrorIs(t, err, tracker.ErrInvalidTicket)
}
