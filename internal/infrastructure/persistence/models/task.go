package models

import (
	"encoding/json"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"gorm.io/datatypes"
)

// TaskModel is one row of the delayed task queue
type TaskModel struct {
	BaseModel
	Name        string         `gorm:"type:varchar(100);not null;index:idx_tasks_name"`
	Params      datatypes.JSON `gorm:"not null"`
	RunAt       time.Time      `gorm:"not null;index"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxAttempts int            `gorm:"not null;default:1"`
	LastError   string         `gorm:"type:text"`
	LockedUntil *time.Time
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a scheduler Task
func (m *TaskModel) ToDomain() *scheduler.Task {
	return &scheduler.Task{
		ID:          m.ID,
		Name:        m.Name,
		Params:      json.RawMessage(m.Params),
		RunAt:       m.RunAt,
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		LastError:   m.LastError,
		LockedUntil: m.LockedUntil,
		Created:     m.CreatedAt,
	}
}

// TaskModelFromDomain creates a persistence model from a scheduler Task
func TaskModelFromDomain(t *scheduler.Task) *TaskModel {
	params := datatypes.JSON(t.Params)
	if len(params) == 0 {
		params = datatypes.JSON("null")
	}
	return &TaskModel{
		BaseModel:   base(t.ID, t.Created),
		Name:        t.Name,
		Params:      params,
		RunAt:       t.RunAt,
		Attempts:    t.Attempts,
		MaxAttempts: t.MaxAttempts,
		LastError:   t.LastError,
		LockedUntil: t.LockedUntil,
	}
}
