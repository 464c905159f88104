package persistence

import (
	"context"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReportRepository implements ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// ContentAcksPerUser counts content acks by the user who added them,
// grouped by grant and topic
func (r *GormReportRepository) ContentAcksPerUser(ctx context.Context) ([]tracker.AckCount, error) {
	var rows []tracker.AckCount
	err := r.db.WithContext(ctx).
		Table("ticket_acks AS ack").
		Select("ack.added_by_id AS user_id, topic.grant_id AS grant_id, ticket.topic_id AS topic_id, COUNT(1) AS ack_count").
		Joins("LEFT JOIN tickets ticket ON ack.ticket_id = ticket.id").
		Joins("LEFT JOIN topics topic ON ticket.topic_id = topic.id").
		Where("ack.ack_type = ? AND ack.added_by_id IS NOT NULL", string(tracker.AckContent)).
		Group("ack.added_by_id, topic.grant_id, ticket.topic_id").
		Order("user_id, grant_id, topic_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []tracker.AckCount{}
	}
	return rows, nil
}

// CountTickets counts tickets, optionally of one requester
func (r *GormReportRepository) CountTickets(ctx context.Context, requestedUserID *int64) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TicketModel{})
	if requestedUserID != nil {
		query = query.Where("requested_user_id = ?", *requestedUserID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountMedia counts media attached to tickets, optionally of one requester
func (r *GormReportRepository) CountMedia(ctx context.Context, requestedUserID *int64) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MediaInfoModel{})
	if requestedUserID != nil {
		query = query.Where("ticket_id IN (?)", r.db.Model(&models.TicketModel{}).
			Select("id").Where("requested_user_id = ?", *requestedUserID))
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
