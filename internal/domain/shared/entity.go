package shared

import "time"

// Entity is the base interface for all persisted domain entities
type Entity interface {
	GetID() int64
	GetCreatedAt() time.Time
}

// BaseEntity provides the auto-increment id and creation time
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() int64 {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// IsNew reports whether the entity has not been persisted yet
func (e *BaseEntity) IsNew() bool {
	return e.ID == 0
}

// NewBaseEntity creates a base entity stamped with the current time.
// The id is assigned by the database on insert.
func NewBaseEntity() BaseEntity {
	return BaseEntity{CreatedAt: time.Now()}
}
