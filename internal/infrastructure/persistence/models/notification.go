package models

import (
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
)

// WatcherModel is the persistence model for Watcher. The watched object
// is addressed by kind and id.
type WatcherModel struct {
	BaseModel
	ObjectKind string `gorm:"type:varchar(16);not null;index:idx_watchers_object"`
	ObjectID   int64  `gorm:"not null;index:idx_watchers_object"`
	UserID     int64  `gorm:"not null;index"`
	Type       string `gorm:"type:varchar(50);not null"`
	AckType    string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (WatcherModel) TableName() string {
	return "watchers"
}

// ToDomain converts the persistence model to a domain Watcher
func (m *WatcherModel) ToDomain() *notification.Watcher {
	return &notification.Watcher{
		ID:       m.ID,
		Kind:     notification.WatchedKind(m.ObjectKind),
		ObjectID: m.ObjectID,
		UserID:   m.UserID,
		Type:     notification.Type(m.Type),
		AckType:  m.AckType,
		Created:  m.CreatedAt,
	}
}

// WatcherModelFromDomain creates a persistence model from a Watcher
func WatcherModelFromDomain(w *notification.Watcher) *WatcherModel {
	return &WatcherModel{
		BaseModel:  base(w.ID, w.Created),
		ObjectKind: string(w.Kind),
		ObjectID:   w.ObjectID,
		UserID:     w.UserID,
		Type:       string(w.Type),
		AckType:    w.AckType,
	}
}

// NotificationModel is the persistence model for a pending Notification
type NotificationModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	TargetUserID *int64    `gorm:"index"`
	Fired        time.Time `gorm:"not null"`
	Text         string    `gorm:"type:text;not null"`
	Type         string    `gorm:"type:varchar(50);not null;index:idx_notifications_dedup"`
	TicketID     *int64    `gorm:"index"`
	DedupKey     string    `gorm:"type:text;not null;index:idx_notifications_dedup"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		ID:           m.ID,
		TargetUserID: m.TargetUserID,
		Fired:        m.Fired,
		Text:         m.Text,
		Type:         notification.Type(m.Type),
		TicketID:     m.TicketID,
		DedupKey:     m.DedupKey,
	}
}

// NotificationModelFromDomain creates a persistence model from a Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:           n.ID,
		TargetUserID: n.TargetUserID,
		Fired:        n.Fired,
		Text:         n.Text,
		Type:         string(n.Type),
		TicketID:     n.TicketID,
		DedupKey:     n.DedupKey,
	}
}
