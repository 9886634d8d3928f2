package storage

import (
	"context"
	"errors"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var (
	// ErrObjectNotFound is returned when a key has no object behind it.
	ErrObjectNotFound = errors.New("object not found in storage")
	// ErrObjectTooLarge is returned when an object exceeds the size a caller accepts.
	ErrObjectTooLarge = errors.New("object too large")
)

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// PutObject stores data under objectKey, replacing any previous object.
	PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error

	// GetObject reads a whole object. Missing keys yield ErrObjectNotFound,
	// objects longer than maxBytes ErrObjectTooLarge. maxBytes <= 0 means no limit.
	GetObject(ctx context.Context, objectKey string, maxBytes int64) (*Object, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// Object is the content of a stored file.
type Object struct {
	Data        []byte
	ContentType string
}
