package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/quizimport/internal/store"
)

// SettingsStore is an in-memory store.SettingsStore.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]int
}

var _ store.SettingsStore = (*SettingsStore)(nil)

// NewSettingsStore creates an empty SettingsStore.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]int)}
}

// GetInt implements store.SettingsStore.
func (s *SettingsStore) GetInt(_ context.Context, key string, fallback int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return fallback, nil
}

// SetInt implements store.SettingsStore.
func (s *SettingsStore) SetInt(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
