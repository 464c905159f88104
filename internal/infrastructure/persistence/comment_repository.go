package persistence

import (
	"context"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommentRepository implements CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GormCommentRepository
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create stores a comment
func (r *GormCommentRepository) Create(ctx context.Context, comment *tracker.Comment) error {
	model := models.CommentModelFromDomain(comment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	comment.ID = model.ID
	return nil
}

// FindByTicket lists the visible comments of a ticket, oldest first
func (r *GormCommentRepository) FindByTicket(ctx context.Context, ticketID int64) ([]*tracker.Comment, error) {
	var rows []models.CommentModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ? AND is_removed = ?", ticketID, false).
		Order("submitted, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*tracker.Comment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
