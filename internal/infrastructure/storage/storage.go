// Package storage keeps ticket document payloads in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	infraconfig "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	// ErrObjectNotFound is returned when the key holds no object
	ErrObjectNotFound = errors.New("object not found")
	// ErrPresignUnsupported is returned by backends that cannot hand out
	// direct download links; callers stream the object instead
	ErrPresignUnsupported = errors.New("presigned urls not supported")
	errEmptyKey           = errors.New("storage key is required")
)

// Object is a stored payload opened for reading
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStorage stores document payloads by key
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	// PresignDownload returns a time limited URL that serves the object as
	// an attachment named filename
	PresignDownload(ctx context.Context, key, filename string) (string, time.Time, error)
}

// DocumentKey builds the storage key of a new document. The random part
// keeps a re-uploaded filename from overwriting the previous payload.
func DocumentKey(prefix string, ticketID int64, filename string) string {
	return path.Join(prefix, fmt.Sprintf("%d", ticketID), uuid.NewString(), filename)
}

// New returns the backend selected by cfg.Driver
func New(cfg *infraconfig.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	switch cfg.Driver {
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		logger.Warn("Using in-memory document storage; documents are lost on restart")
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
