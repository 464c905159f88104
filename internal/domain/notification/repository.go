package notification

import (
	"context"
)

// Repository persists pending notifications
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// ExistsDuplicate reports whether the same event was already recorded
	ExistsDuplicate(ctx context.Context, t Type, dedupKey string) (bool, error)
	// ExistsForTicket reports whether a pending notification of any of
	// types exists for the ticket
	ExistsForTicket(ctx context.Context, ticketID int64, types ...Type) (bool, error)
	// ExistsWithText reports whether a pending notification of type t
	// mentions fragment
	ExistsWithText(ctx context.Context, t Type, fragment string) (bool, error)
	FindPendingUserIDs(ctx context.Context) ([]int64, error)
	FindByUser(ctx context.Context, userID int64) ([]*Notification, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// WatcherRepository persists watchers
type WatcherRepository interface {
	Create(ctx context.Context, w *Watcher) error
	// DeleteFor removes every watcher of user on the object
	DeleteFor(ctx context.Context, obj ObjectRef, userID int64) error
	// FindFor returns the user's watchers on the object
	FindFor(ctx context.Context, obj ObjectRef, userID int64) ([]*Watcher, error)
	// UserIDsWatching returns users watching the object for type t
	UserIDsWatching(ctx context.Context, obj ObjectRef, t Type) ([]int64, error)
	// HasAny reports whether user has any watcher on any of objs
	HasAny(ctx context.Context, userID int64, objs ...ObjectRef) (bool, error)
	// HasType reports whether user watches obj for type t
	HasType(ctx context.Context, obj ObjectRef, userID int64, t Type) (bool, error)
}
