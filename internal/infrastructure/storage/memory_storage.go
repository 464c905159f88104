package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps payloads in process memory. Used in development and
// tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStorage creates an empty store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

// Put reads body fully and stores it
func (m *MemoryStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// Open returns a reader over the stored bytes
func (m *MemoryStorage) Open(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

// Delete removes the object; a missing key is not an error
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// PresignDownload is not supported in memory
func (m *MemoryStorage) PresignDownload(context.Context, string, string) (string, time.Time, error) {
	return "", time.Time{}, ErrPresignUnsupported
}

var _ ObjectStorage = (*MemoryStorage)(nil)
