package oss

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MockUploader keeps objects in memory for tests and local development.
type MockUploader struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// NewMockUploader creates a MockUploader.
func NewMockUploader() *MockUploader {
	return &MockUploader{Files: make(map[string][]byte)}
}

// Upload stores the object in memory.
func (m *MockUploader) Upload(_ context.Context, objectKey string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[objectKey] = data
	return m.GetURL(objectKey), nil
}

// UploadStream stores the object from a reader.
func (m *MockUploader) UploadStream(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return m.Upload(ctx, objectKey, data, contentType)
}

// Delete removes the object.
func (m *MockUploader) Delete(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, objectKey)
	return nil
}

// GetURL resolves a fake public URL.
func (m *MockUploader) GetURL(objectKey string) string {
	return fmt.Sprintf("https://mock-oss.local/%s", objectKey)
}

// GetSignedURL resolves a fake signed URL.
func (m *MockUploader) GetSignedURL(objectKey string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://mock-oss.local/%s?expires=%d", objectKey, int64(expires.Seconds())), nil
}
