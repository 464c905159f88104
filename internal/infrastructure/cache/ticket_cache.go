package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	activeVersionKey   = "tickets:version"
	archivedVersionKey = "tickets:archived:version"
	defaultRowsTTL     = 24 * time.Hour
)

// TicketRowsCache caches the rendered ticket listing per language.
// Active and archived tickets are cached under separate version counters:
// bumping a counter orphans every row set built under the old version, so
// no key scan is needed. Archived rows rarely change and survive edits to
// active tickets.
type TicketRowsCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketRowsCache creates the cache on top of store
func NewTicketRowsCache(store Store, ttl time.Duration, logger *zap.Logger) *TicketRowsCache {
	if ttl <= 0 {
		ttl = defaultRowsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketRowsCache{store: store, ttl: ttl, logger: logger}
}

// Get returns the cached rows, or ErrMiss
func (c *TicketRowsCache) Get(ctx context.Context, lang string, archived bool) ([]byte, error) {
	key, err := c.rowsKey(ctx, lang, archived)
	if err != nil {
		return nil, err
	}
	return c.store.Get(ctx, key)
}

// Set stores rows under the current version
func (c *TicketRowsCache) Set(ctx context.Context, lang string, archived bool, rows []byte) error {
	key, err := c.rowsKey(ctx, lang, archived)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, rows, c.ttl)
}

// Invalidate drops the active rows, and the archived rows too when
// archived is set
func (c *TicketRowsCache) Invalidate(ctx context.Context, archived bool) error {
	if _, err := c.store.Incr(ctx, activeVersionKey); err != nil {
		return err
	}
	if archived {
		if _, err := c.store.Incr(ctx, archivedVersionKey); err != nil {
			return err
		}
	}
	c.logger.Debug("Ticket rows invalidated", zap.Bool("archived", archived))
	return nil
}

func (c *TicketRowsCache) rowsKey(ctx context.Context, lang string, archived bool) (string, error) {
	versionKey, kind := activeVersionKey, "active"
	if archived {
		versionKey, kind = archivedVersionKey, "archived"
	}
	version, err := c.version(ctx, versionKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tickets:rows:%s:%s:%d", kind, lang, version), nil
}

func (c *TicketRowsCache) version(ctx context.Context, key string) (int64, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cache version at %s: %w", key, err)
	}
	return v, nil
}
