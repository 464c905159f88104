package persistence

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMediaRepository implements MediaRepository using GORM
type GormMediaRepository struct {
	db *gorm.DB
}

// NewGormMediaRepository creates a new GormMediaRepository
func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

// Create attaches a media file to a ticket
func (r *GormMediaRepository) Create(ctx context.Context, media *tracker.MediaInfo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.MediaInfoModel{}).Where("ticket_id = ?", media.TicketID)
		switch {
		case media.PageTitle != "" && media.PageID > 0:
			query = query.Where("page_title = ? OR page_id = ?", media.PageTitle, media.PageID)
		case media.PageTitle != "":
			query = query.Where("page_title = ?", media.PageTitle)
		default:
			query = query.Where("page_id = ?", media.PageID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return tracker.ErrDuplicateMedia
		}

		model := models.MediaInfoModelFromDomain(media)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		media.ID = model.ID
		media.Created = model.CreatedAt
		return replaceMediaChildren(tx, media)
	})
}

// Update replaces the wiki data, categories and usages
func (r *GormMediaRepository) Update(ctx context.Context, media *tracker.MediaInfo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MediaInfoModel{}).
			Where("id = ?", media.ID).
			Updates(map[string]any{
				"page_title": media.PageTitle,
				"page_id":    media.PageID,
				"width":      media.Width,
				"height":     media.Height,
				"thumb_url":  media.ThumbURL,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return replaceMediaChildren(tx, media)
	})
}

// Delete removes a media file with its categories and usages
func (r *GormMediaRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_info_id = ?", id).Delete(&models.MediaInfoCategoryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("media_info_id = ?", id).Delete(&models.MediaInfoUsageModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.MediaInfoModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a media file with categories and usages
func (r *GormMediaRepository) FindByID(ctx context.Context, id int64) (*tracker.MediaInfo, error) {
	var model models.MediaInfoModel
	if err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("title") }).
		Preload("Usages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTicket lists the media of a ticket in upload order
func (r *GormMediaRepository) FindByTicket(ctx context.Context, ticketID int64) ([]*tracker.MediaInfo, error) {
	var rows []models.MediaInfoModel
	if err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("title") }).
		Preload("Usages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("ticket_id = ?", ticketID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*tracker.MediaInfo, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

func replaceMediaChildren(tx *gorm.DB, media *tracker.MediaInfo) error {
	if err := tx.Where("media_info_id = ?", media.ID).Delete(&models.MediaInfoCategoryModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("media_info_id = ?", media.ID).Delete(&models.MediaInfoUsageModel{}).Error; err != nil {
		return err
	}
	if len(media.Categories) > 0 {
		rows := make([]models.MediaInfoCategoryModel, len(media.Categories))
		for i, c := range media.Categories {
			rows[i] = models.MediaInfoCategoryModel{MediaInfoID: media.ID, Title: c.Title}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			media.Categories[i].ID = rows[i].ID
			media.Categories[i].MediaInfoID = media.ID
		}
	}
	if len(media.Usages) > 0 {
		rows := make([]models.MediaInfoUsageModel, len(media.Usages))
		for i, u := range media.Usages {
			rows[i] = models.MediaInfoUsageModel{MediaInfoID: media.ID, URL: u.URL, Title: u.Title, Project: u.Project}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			media.Usages[i].ID = rows[i].ID
			media.Usages[i].MediaInfoID = media.ID
		}
	}
	return nil
}
