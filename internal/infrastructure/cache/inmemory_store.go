package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// entry wraps a cached value with its expiry; a zero expiresAt never
// expires
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryStore implements Store in process memory. State is not shared
// between instances.
type InMemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*entry
	logger   *zap.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// InMemoryStoreOption configures an InMemoryStore
type InMemoryStoreOption func(*InMemoryStore)

// WithInMemoryLogger sets the logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// NewInMemoryStore creates the store and starts its cleanup goroutine
func NewInMemoryStore(opts ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		entries:  make(map[string]*entry),
		logger:   zap.NewNop(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupExpired()
	return s
}

// Get returns the stored bytes or ErrMiss
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if e.isExpired(s.now()) {
		delete(s.entries, key)
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value
func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes keys
func (s *InMemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Incr increments a counter stored as a decimal string, like Redis INCR
func (s *InMemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if e, ok := s.entries[key]; ok && !e.isExpired(s.now()) {
		v, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer", key)
		}
		n = v
	}
	n++
	s.entries[key] = &entry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Close stops the cleanup goroutine
func (s *InMemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *InMemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.doCleanup()
		}
	}
}

func (s *InMemoryStore) doCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if e.isExpired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Expired cache entries removed", zap.Int("count", removed))
	}
}

var _ Store = (*InMemoryStore)(nil)
