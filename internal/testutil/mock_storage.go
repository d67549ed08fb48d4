// Package testutil holds test doubles shared by handler tests.
package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/storage"
)

// MockStorage implements storage.Store, writing file contents to a temp
// directory so sessions can open them by path.
type MockStorage struct {
	mu      sync.RWMutex
	tempDir string
	files   map[string]*models.FileInfo
	nextID  int
}

// NewMockStorage creates a mock store rooted at tempDir.
func NewMockStorage(tempDir string) *MockStorage {
	return &MockStorage{
		tempDir: tempDir,
		files:   make(map[string]*models.FileInfo),
	}
}

var _ storage.Store = (*MockStorage)(nil)

func (m *MockStorage) Save(name string, r io.Reader) (*models.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("test-id-%d", m.nextID)
	m.mu.Unlock()
	return m.AddFile(id, name, data), nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	c := *file
	return &c, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for _, file := range m.files {
		c := *file
		files = append(files, &c)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	os.Remove(filepath.Join(m.tempDir, id))
	delete(m.files, id)
	return nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[id]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return filepath.Join(m.tempDir, id), nil
}

func (m *MockStorage) SetEligible(id string, eligible bool) (*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	file.Eligible = eligible
	c := *file
	return &c, nil
}

// AddFile writes data to disk under id and registers it.
func (m *MockStorage) AddFile(id, name string, data []byte) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.WriteFile(filepath.Join(m.tempDir, id), data, 0644); err != nil {
		panic(fmt.Sprintf("failed to write test file: %v", err))
	}

	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     storage.StatusUploaded,
		Eligible:   true,
	}
	m.files[id] = file
	c := *file
	return &c
}

// GetFileCount returns the number of stored files
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
