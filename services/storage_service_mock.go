package services

import (
	"fmt"
	"mime/multipart"
	"sync"
)

// MockStorageService is an in-memory StorageService for testing.
type MockStorageService struct {
	mu    sync.RWMutex
	files map[string][]byte // storage key -> file content
}

// NewMockStorageService creates a new mock storage service
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{files: make(map[string][]byte)}
}

// SetAsMockForTesting sets this mock as the global storage service instance for testing
func (m *MockStorageService) SetAsMockForTesting() {
	SetStorageService(m)
}

// UploadDelivery simulates storing a delivery file.
func (m *MockStorageService) UploadDelivery(fileHeader *multipart.FileHeader, orderCode string, version int) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content := make([]byte, fileHeader.Size)
	if _, err := file.Read(content); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("deliveries/%s/v%d/%s", orderCode, version, fileHeader.Filename)

	m.mu.Lock()
	m.files[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetPresignedURL simulates generating a presigned URL.
func (m *MockStorageService) GetPresignedURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.files[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteFile simulates deleting a stored file.
func (m *MockStorageService) DeleteFile(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.files, key)
	m.mu.Unlock()

	return nil
}

// FileExists checks if a file exists in mock storage
func (m *MockStorageService) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[key]
	return exists
}

// Clear removes all files from mock storage
func (m *MockStorageService) Clear() {
	m.mu.Lock()
	m.files = make(map[string][]byte)
	m.mu.Unlock()
}
