package persistence

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProfileRepository implements ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindProfile finds the tracker profile of a user
func (r *GormProfileRepository) FindProfile(ctx context.Context, userID int64) (*identity.TrackerProfile, error) {
	var model models.TrackerProfileModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveProfile inserts or updates a profile
func (r *GormProfileRepository) SaveProfile(ctx context.Context, profile *identity.TrackerProfile) error {
	model := models.TrackerProfileModelFromDomain(profile)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	profile.ID = model.ID
	return nil
}

// FindPreferences finds the preferences of a user
func (r *GormProfileRepository) FindPreferences(ctx context.Context, userID int64) (*identity.TrackerPreferences, error) {
	var model models.TrackerPreferencesModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPreferencesFor loads the preferences of several users keyed by user id.
// Users without stored preferences get the defaults.
func (r *GormProfileRepository) FindPreferencesFor(ctx context.Context, userIDs []int64) (map[int64]*identity.TrackerPreferences, error) {
	out := make(map[int64]*identity.TrackerPreferences, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.TrackerPreferencesModel
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].UserID] = rows[i].ToDomain()
	}
	for _, id := range userIDs {
		if _, ok := out[id]; !ok {
			out[id] = identity.NewTrackerPreferences(id)
		}
	}
	return out, nil
}

// SavePreferences inserts or updates preferences
func (r *GormProfileRepository) SavePreferences(ctx context.Context, prefs *identity.TrackerPreferences) error {
	model := models.TrackerPreferencesModelFromDomain(prefs)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	prefs.ID = model.ID
	return nil
}
