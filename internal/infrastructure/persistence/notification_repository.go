package persistence

import (
	"context"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create stores a pending notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	model := models.NotificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	n.ID = model.ID
	return nil
}

// ExistsDuplicate reports whether the event was already recorded
func (r *GormNotificationRepository) ExistsDuplicate(ctx context.Context, t notification.Type, dedupKey string) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("type = ? AND dedup_key = ?", string(t), dedupKey))
}

// ExistsForTicket reports whether a pending notification of any of types
// exists for the ticket
func (r *GormNotificationRepository) ExistsForTicket(ctx context.Context, ticketID int64, types ...notification.Type) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("ticket_id = ?", ticketID)
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		query = query.Where("type IN ?", names)
	}
	return r.exists(query)
}

// ExistsWithText reports whether a pending notification of type t contains
// fragment
func (r *GormNotificationRepository) ExistsWithText(ctx context.Context, t notification.Type, fragment string) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("type = ? AND text LIKE ?", string(t), "%"+fragment+"%"))
}

// FindPendingUserIDs returns every user with pending notifications
func (r *GormNotificationRepository) FindPendingUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Distinct("target_user_id").
		Where("target_user_id IS NOT NULL").
		Order("target_user_id").
		Pluck("target_user_id", &ids).Error; err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// FindByUser returns the pending notifications of a user, oldest first
func (r *GormNotificationRepository) FindByUser(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	var rows []models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("target_user_id = ?", userID).
		Order("fired, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*notification.Notification, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// DeleteByUser drops the pending notifications of a user
func (r *GormNotificationRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("target_user_id = ?", userID).
		Delete(&models.NotificationModel{}).Error
}

func (r *GormNotificationRepository) exists(query *gorm.DB) (bool, error) {
	var count int64
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormWatcherRepository implements notification.WatcherRepository using GORM
type GormWatcherRepository struct {
	db *gorm.DB
}

// NewGormWatcherRepository creates a new GormWatcherRepository
func NewGormWatcherRepository(db *gorm.DB) *GormWatcherRepository {
	return &GormWatcherRepository{db: db}
}

// Create stores a watcher
func (r *GormWatcherRepository) Create(ctx context.Context, w *notification.Watcher) error {
	model := models.WatcherModelFromDomain(w)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	w.ID = model.ID
	w.Created = model.CreatedAt
	return nil
}

// DeleteFor removes every watcher of user on the object
func (r *GormWatcherRepository) DeleteFor(ctx context.Context, obj notification.ObjectRef, userID int64) error {
	return r.onObject(ctx, obj).
		Where("user_id = ?", userID).
		Delete(&models.WatcherModel{}).Error
}

// FindFor returns the user's watchers on the object
func (r *GormWatcherRepository) FindFor(ctx context.Context, obj notification.ObjectRef, userID int64) ([]*notification.Watcher, error) {
	var rows []models.WatcherModel
	if err := r.onObject(ctx, obj).
		Where("user_id = ?", userID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*notification.Watcher, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// UserIDsWatching returns users watching the object for type t
func (r *GormWatcherRepository) UserIDsWatching(ctx context.Context, obj notification.ObjectRef, t notification.Type) ([]int64, error) {
	var ids []int64
	if err := r.onObject(ctx, obj).
		Where("type = ?", string(t)).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// HasAny reports whether user watches any of objs
func (r *GormWatcherRepository) HasAny(ctx context.Context, userID int64, objs ...notification.ObjectRef) (bool, error) {
	if len(objs) == 0 {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&models.WatcherModel{}).Where("user_id = ?", userID)
	cond := r.db.Where("object_kind = ? AND object_id = ?", string(objs[0].Kind), objs[0].ID)
	for _, obj := range objs[1:] {
		cond = cond.Or("object_kind = ? AND object_id = ?", string(obj.Kind), obj.ID)
	}
	var count int64
	if err := query.Where(cond).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasType reports whether user watches obj for type t
func (r *GormWatcherRepository) HasType(ctx context.Context, obj notification.ObjectRef, userID int64, t notification.Type) (bool, error) {
	var count int64
	if err := r.onObject(ctx, obj).
		Where("user_id = ? AND type = ?", userID, string(t)).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormWatcherRepository) onObject(ctx context.Context, obj notification.ObjectRef) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.WatcherModel{}).
		Where("object_kind = ? AND object_id = ?", string(obj.Kind), obj.ID)
}
