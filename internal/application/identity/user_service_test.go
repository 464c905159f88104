package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	trackerapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func newTestUserService(f *testutil.Fixture, revoker TokenRevoker) *UserService {
	r := f.Repos
	reports := trackerapp.NewReportService(r.Reports, r.Tickets, r.Grants, r.Topics, r.Users, nil)
	return NewUserService(r.Users, r.Profiles, reports, revoker, nil)
}

func TestUserService_Visibility(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	f.CreateTicket(t, "Trip")
	svc := newTestUserService(f, nil)

	me, err := svc.Me(ctx, f.Requester)
	require.NoError(t, err)
	assert.Equal(t, "requester@example.org", me.Email)
	require.NotNil(t, me.Totals)
	assert.Equal(t, int64(1), me.Totals.TicketCount)

	other, err := svc.Get(ctx, f.Admin, f.Requester.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Email)

	staff := f.CreateUser(t, "office")
	staff.IsStaff = true
	other, err = svc.Get(ctx, staff, f.Requester.ID)
	require.NoError(t, err)
	assert.Equal(t, "requester@example.org", other.Email)

	byName, err := svc.GetByUsername(ctx, nil, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, f.Supervisor.ID, byName.ID)
	assert.Empty(t, byName.Permissions)

	_, err = svc.Me(ctx, nil)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestUserService_List(t *testing.T) {
	f := testutil.NewFixture(t)
	svc := newTestUserService(f, nil)

	result, err := svc.List(context.Background(), f.Requester, UserListFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Users, 2)
	assert.Equal(t, 2, result.TotalPages)
}

func TestUserService_Profile(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	svc := newTestUserService(f, nil)

	updated, err := svc.UpdateProfile(ctx, f.Requester, f.Requester.ID, UpdateProfileRequest{
		BankAccount:  "123456789/0800",
		OtherContact: "+420 123 456 789",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789/0800", updated.BankAccount)
	assert.False(t, updated.HasMediawikiToken)

	_, err = svc.GetProfile(ctx, f.Admin, f.Requester.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	clerk := f.CreateUser(t, "clerk", identity.PermChangeTrackerProfile)
	profile, err := svc.GetProfile(ctx, clerk, f.Requester.ID)
	require.NoError(t, err)
	assert.Equal(t, "+420 123 456 789", profile.OtherContact)

	_, err = svc.UpdateProfile(ctx, f.Requester, f.Requester.ID, UpdateProfileRequest{
		BankAccount: string(make([]byte, 121)),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUserService_Preferences(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	svc := newTestUserService(f, nil)

	prefs, err := svc.GetPreferences(ctx, f.Requester)
	require.NoError(t, err)
	assert.Equal(t, "en", prefs.EmailLanguage)

	prefs, err = svc.UpdatePreferences(ctx, f.Requester, UpdatePreferencesRequest{
		MutedNotifications: []string{"comment"},
		EmailLanguage:      "cs",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"comment"}, prefs.MutedNotifications)
	assert.Equal(t, identity.DefaultDisplayItems, prefs.DisplayItems)

	stored, err := f.Repos.Profiles.FindPreferences(ctx, f.Requester.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNotificationMuted("comment"))

	_, err = svc.UpdatePreferences(ctx, f.Requester, UpdatePreferencesRequest{EmailLanguage: "xx"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.NotEmpty(t, svc.Languages())
}

type recordingRevoker struct {
	revoked []int64
}

func (r *recordingRevoker) RevokeAll(_ context.Context, userID int64) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func TestUserService_Deactivate(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	revoker := &recordingRevoker{}
	svc := newTestUserService(f, revoker)

	require.NoError(t, svc.Deactivate(ctx, f.Requester))
	stored, err := f.Repos.Users.FindByID(ctx, f.Requester.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, []int64{f.Requester.ID}, revoker.revoked)

	assert.ErrorIs(t, svc.Deactivate(ctx, nil), shared.ErrUnauthorized)
}
