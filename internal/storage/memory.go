package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// memoryStorage keeps objects in a map. Its presigned URLs are not
// reachable; they only carry the key so local setups and tests can run
// without an S3 endpoint.
type memoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemoryStorage returns an empty in-process FileStorage whose URLs start with baseURL.
func NewMemoryStorage(baseURL string) FileStorage {
	if baseURL == "" {
		baseURL = "memory://photos"
	}
	return &memoryStorage{baseURL: baseURL, objects: make(map[string]Object)}
}

func (m *memoryStorage) url(objectKey, method string, expires time.Duration) string {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	q := url.Values{}
	q.Set("method", method)
	q.Set("expires", fmt.Sprint(int(expires.Seconds())))
	return m.baseURL + "/" + objectKey + "?" + q.Encode()
}

func (m *memoryStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return m.url(objectKey, "PUT", expires), nil
}

func (m *memoryStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return m.url(objectKey, "GET", expires), nil
}

func (m *memoryStorage) PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = Object{Data: cp, ContentType: contentType}
	return nil
}

func (m *memoryStorage) GetObject(ctx context.Context, objectKey string, maxBytes int64) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectKey]
	if !ok {
		return nil, ErrObjectNotFound
	}
	if maxBytes > 0 && int64(len(obj.Data)) > maxBytes {
		return nil, fmt.Errorf("%w: %q is %d bytes, limit %d", ErrObjectTooLarge, objectKey, len(obj.Data), maxBytes)
	}
	return &obj, nil
}

func (m *memoryStorage) DeleteObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectKey)
	return nil
}
