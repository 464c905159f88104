package models

import (
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
)

// BaseModel provides the auto-increment key and creation time shared by
// every table.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
}

// base builds a BaseModel from a plain id and creation time
func base(id int64, created time.Time) BaseModel {
	if created.IsZero() {
		created = time.Now()
	}
	return BaseModel{ID: id, CreatedAt: created}
}
