package identity

import (
	"context"

	trackerapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"go.uber.org/zap"
)

// TotalsProvider computes the activity totals shown on user pages
type TotalsProvider interface {
	UserTotalsFor(ctx context.Context, user *identity.User) (*trackerapp.UserTotals, error)
}

// TokenRevoker invalidates a user's tokens
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID int64) error
}

// UserService serves users, their tracker profiles and preferences
type UserService struct {
	userRepo identity.UserRepository
	profiles identity.ProfileRepository
	totals   TotalsProvider
	revoker  TokenRevoker
	logger   *zap.Logger
}

// NewUserService creates a new user service. totals and revoker may be nil.
func NewUserService(
	userRepo identity.UserRepository,
	profiles identity.ProfileRepository,
	totals TotalsProvider,
	revoker TokenRevoker,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		profiles: profiles,
		totals:   totals,
		revoker:  revoker,
		logger:   logger,
	}
}

// Me returns the calling user
func (s *UserService) Me(ctx context.Context, viewer *identity.User) (*UserDetail, error) {
	if !viewer.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	return s.detail(ctx, viewer, viewer)
}

// Get returns a user with their totals
func (s *UserService) Get(ctx context.Context, viewer *identity.User, id int64) (*UserDetail, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, viewer, user)
}

// GetByUsername returns a user looked up by username
func (s *UserService) GetByUsername(ctx context.Context, viewer *identity.User, username string) (*UserDetail, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, viewer, user)
}

func (s *UserService) detail(ctx context.Context, viewer, user *identity.User) (*UserDetail, error) {
	out := &UserDetail{UserResponse: ToUserResponse(user, viewer)}
	if s.totals != nil {
		totals, err := s.totals.UserTotalsFor(ctx, user)
		if err != nil {
			return nil, err
		}
		out.Totals = totals
	}
	return out, nil
}

// List returns a page of active users
func (s *UserService) List(ctx context.Context, viewer *identity.User, filter UserListFilter) (*UserListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = identity.DefaultDisplayItems
	}
	users, total, err := s.userRepo.FindAll(ctx, identity.UserFilter{
		Keyword:    filter.Keyword,
		ActiveOnly: true,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, err
	}
	out := &UserListResult{
		Users:    make([]UserResponse, 0, len(users)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	out.TotalPages = int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	for _, u := range users {
		out.Users = append(out.Users, ToUserResponse(u, viewer))
	}
	return out, nil
}

// GetProfile returns the tracker profile of a user. Only the user and
// holders of change_trackerprofile may read it.
func (s *UserService) GetProfile(ctx context.Context, viewer *identity.User, userID int64) (*ProfileResponse, error) {
	if err := s.canManageProfile(viewer, userID); err != nil {
		return nil, err
	}
	profile, err := s.findProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toProfileResponse(profile)
	return &resp, nil
}

// UpdateProfile changes the payout and contact details
func (s *UserService) UpdateProfile(ctx context.Context, viewer *identity.User, userID int64, req UpdateProfileRequest) (*ProfileResponse, error) {
	if err := s.canManageProfile(viewer, userID); err != nil {
		return nil, err
	}
	profile, err := s.findProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := profile.Update(req.BankAccount, req.OtherContact, req.OtherIdentification); err != nil {
		return nil, err
	}
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("Tracker profile updated", zap.Int64("user_id", userID), zap.Int64("by", viewer.ID))
	resp := toProfileResponse(profile)
	return &resp, nil
}

func (s *UserService) canManageProfile(viewer *identity.User, userID int64) error {
	if !viewer.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	if viewer.ID != userID && !viewer.HasPerm(identity.PermChangeTrackerProfile) {
		return shared.ErrForbidden
	}
	return nil
}

// findProfile returns the stored profile, or a fresh one for users that
// never saved theirs
func (s *UserService) findProfile(ctx context.Context, userID int64) (*identity.TrackerProfile, error) {
	profile, err := s.profiles.FindProfile(ctx, userID)
	if shared.IsNotFound(err) {
		if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
			return nil, err
		}
		return identity.NewTrackerProfile(userID), nil
	}
	return profile, err
}

// GetPreferences returns the caller's preferences
func (s *UserService) GetPreferences(ctx context.Context, viewer *identity.User) (*PreferencesResponse, error) {
	if !viewer.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	prefs, err := s.findPreferences(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	resp := toPreferencesResponse(prefs)
	return &resp, nil
}

// UpdatePreferences replaces the caller's preferences
func (s *UserService) UpdatePreferences(ctx context.Context, viewer *identity.User, req UpdatePreferencesRequest) (*PreferencesResponse, error) {
	if !viewer.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	prefs, err := s.findPreferences(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	displayItems := req.DisplayItems
	if displayItems == 0 {
		displayItems = prefs.DisplayItems
	}
	if err := prefs.Update(req.MutedAck, req.MutedNotifications, req.EmailLanguage, displayItems); err != nil {
		return nil, err
	}
	if err := s.profiles.SavePreferences(ctx, prefs); err != nil {
		return nil, err
	}
	resp := toPreferencesResponse(prefs)
	return &resp, nil
}

func (s *UserService) findPreferences(ctx context.Context, userID int64) (*identity.TrackerPreferences, error) {
	prefs, err := s.profiles.FindPreferences(ctx, userID)
	if shared.IsNotFound(err) {
		return identity.NewTrackerPreferences(userID), nil
	}
	return prefs, err
}

// Deactivate disables the caller's account and revokes their tokens
func (s *UserService) Deactivate(ctx context.Context, viewer *identity.User) error {
	if !viewer.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, viewer.ID)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Account deactivated", zap.Int64("user_id", user.ID))
	if s.revoker != nil {
		if err := s.revoker.RevokeAll(ctx, user.ID); err != nil {
			s.logger.Error("Failed to revoke tokens", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// Languages lists the supported email languages
func (s *UserService) Languages() []identity.Language {
	return identity.Languages()
}
