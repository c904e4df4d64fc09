package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// memoryStorage is an in-process IBlobStore used when MOCK_SERVICES is set.
type memoryStorage struct {
	mu         sync.RWMutex
	bucket     string
	publicBase string
	objects    map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStorage returns a blob store that keeps objects in memory.
func NewMemoryStorage(bucket, publicBase string) IBlobStore {
	return &memoryStorage{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		objects:    map[string]memoryObject{},
	}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := make([]byte, len(body))
	copy(data, body)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return m.PublicURL(key), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s not found", key)
	}
	return obj.data, obj.contentType, nil
}

func (m *memoryStorage) PublicURL(key string) string {
	return publicURL(m.publicBase, key)
}

func (m *memoryStorage) KeyFromURL(url string) (string, bool) {
	return keyFromURL(m.publicBase, m.bucket, url)
}

func (m *memoryStorage) ListBuckets(context.Context) ([]string, error) {
	return []string{m.bucket}, nil
}

func (m *memoryStorage) EnsureBucket(context.Context) (bool, error) {
	return false, nil
}
