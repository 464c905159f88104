package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"gorm.io/gorm"
)

// GormTaskStore implements scheduler.Store on the tasks table.
// Claiming uses a conditional update per row so it works on any dialect.
type GormTaskStore struct {
	db *gorm.DB
}

// NewGormTaskStore creates a new GormTaskStore
func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{db: db}
}

// Enqueue stores a new task
func (s *GormTaskStore) Enqueue(ctx context.Context, task *scheduler.Task) error {
	model := models.TaskModelFromDomain(task)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	task.ID = model.ID
	task.Created = model.CreatedAt
	return nil
}

// ExistsPending reports whether an identical task is still queued
func (s *GormTaskStore) ExistsPending(ctx context.Context, name string, params json.RawMessage) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TaskModel{}).
		Where("name = ? AND params = ?", name, string(params)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Claim locks up to limit due tasks, oldest run time first
func (s *GormTaskStore) Claim(ctx context.Context, now time.Time, limit int, lockFor time.Duration) ([]*scheduler.Task, error) {
	db := s.db.WithContext(ctx)
	var candidates []models.TaskModel
	if err := db.
		Where("run_at <= ? AND (locked_until IS NULL OR locked_until < ?)", now, now).
		Order("run_at, id").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	until := now.Add(lockFor)
	claimed := make([]*scheduler.Task, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		result := db.Model(&models.TaskModel{}).
			Where("id = ? AND (locked_until IS NULL OR locked_until < ?)", c.ID, now).
			Updates(map[string]any{
				"locked_until": until,
				"attempts":     gorm.Expr("attempts + 1"),
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected != 1 {
			// another worker got it first
			continue
		}
		task := c.ToDomain()
		task.Attempts++
		task.LockedUntil = &until
		claimed = append(claimed, task)
	}
	return claimed, nil
}

// Complete deletes a finished task
func (s *GormTaskStore) Complete(ctx context.Context, id int64) error {
	return s.delete(ctx, id)
}

// Retry unlocks a task and schedules it again
func (s *GormTaskStore) Retry(ctx context.Context, id int64, runAt time.Time, lastError string) error {
	result := s.db.WithContext(ctx).Model(&models.TaskModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"run_at":       runAt,
			"last_error":   lastError,
			"locked_until": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Fail removes a task that used up its attempts
func (s *GormTaskStore) Fail(ctx context.Context, id int64, _ string) error {
	return s.delete(ctx, id)
}

func (s *GormTaskStore) delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.TaskModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ scheduler.Store = (*GormTaskStore)(nil)
