package memory

import (
	"context"
	"sync"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

type AdminStore struct {
	mu       sync.RWMutex
	byID     map[string]store.AdminRecord
	username map[string]string // username -> admin id
}

func NewAdminStore() *AdminStore {
	return &AdminStore{
		byID:     make(map[string]store.AdminRecord),
		username: make(map[string]string),
	}
}

func (s *AdminStore) CreateAdmin(_ context.Context, rec store.AdminRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.username[rec.Username]; ok {
		return store.ErrDuplicateUsername
	}
	s.byID[rec.ID] = rec
	s.username[rec.Username] = rec.ID
	return nil
}

func (s *AdminStore) GetAdmin(_ context.Context, adminID string) (store.AdminRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[adminID]
	if !ok {
		return store.AdminRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *AdminStore) GetAdminByUsername(_ context.Context, username string) (store.AdminRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.username[username]
	if !ok {
		return store.AdminRecord{}, store.ErrNotFound
	}
	return s.byID[id], nil
}
