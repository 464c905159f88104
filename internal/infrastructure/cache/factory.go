package cache

import (
	"fmt"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory creates the cache store based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// store when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store if fallback is allowed
func (f *StoreFactory) CreateStore() (Store, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache")
		return NewInMemoryStore(WithInMemoryLogger(f.logger)), nil
	}

	store, err := NewRedisStore(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, "tracker:")
	if err == nil {
		f.logger.Info("Using Redis cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
		"Ticket listings will not be shared between instances.",
		zap.Error(err),
	)
	return NewInMemoryStore(WithInMemoryLogger(f.logger)), nil
}
