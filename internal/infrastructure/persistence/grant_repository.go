package persistence

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGrantRepository implements GrantRepository using GORM
type GormGrantRepository struct {
	db *gorm.DB
}

// NewGormGrantRepository creates a new GormGrantRepository
func NewGormGrantRepository(db *gorm.DB) *GormGrantRepository {
	return &GormGrantRepository{db: db}
}

// Create creates a new grant
func (r *GormGrantRepository) Create(ctx context.Context, grant *tracker.Grant) error {
	model := models.GrantModelFromDomain(grant)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("Grant with this name or slug already exists")
		}
		return err
	}
	grant.ID = model.ID
	grant.Created = model.CreatedAt
	return nil
}

// Update updates an existing grant
func (r *GormGrantRepository) Update(ctx context.Context, grant *tracker.Grant) error {
	result := r.db.WithContext(ctx).Save(models.GrantModelFromDomain(grant))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists.WithMessage("Grant with this name or slug already exists")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a grant. Grants that still have topics cannot be deleted.
func (r *GormGrantRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topics int64
		if err := tx.Model(&models.TopicModel{}).Where("grant_id = ?", id).Count(&topics).Error; err != nil {
			return err
		}
		if topics > 0 {
			return shared.ErrConflict.WithMessage("Grant still has topics")
		}
		result := tx.Delete(&models.GrantModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a grant by ID
func (r *GormGrantRepository) FindByID(ctx context.Context, id int64) (*tracker.Grant, error) {
	var model models.GrantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a grant by slug
func (r *GormGrantRepository) FindBySlug(ctx context.Context, slug string) (*tracker.Grant, error) {
	var model models.GrantModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every grant ordered by full name
func (r *GormGrantRepository) FindAll(ctx context.Context) ([]*tracker.Grant, error) {
	var rows []models.GrantModel
	if err := r.db.WithContext(ctx).Order("full_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*tracker.Grant, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
