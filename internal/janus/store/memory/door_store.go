package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

type DoorStore struct {
	mu    sync.RWMutex
	byID  map[string]store.DoorRecord
	order []string // creation order for ListDoors
}

func NewDoorStore() *DoorStore {
	return &DoorStore{byID: make(map[string]store.DoorRecord)}
}

func (s *DoorStore) CreateDoor(_ context.Context, rec store.DoorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byID {
		if d.Name == rec.Name {
			return store.ErrDuplicateDoorName
		}
	}
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *DoorStore) UpdateDoor(_ context.Context, rec store.DoorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; !ok {
		return store.ErrNotFound
	}
	for id, d := range s.byID {
		if id != rec.ID && d.Name == rec.Name {
			return store.ErrDuplicateDoorName
		}
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *DoorStore) GetDoor(_ context.Context, doorID string) (store.DoorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[doorID]
	if !ok {
		return store.DoorRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *DoorStore) ListDoors(_ context.Context) ([]store.DoorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.DoorRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

type CapabilityStore struct {
	mu     sync.RWMutex
	byDoor map[string]store.CapabilityRecord
	grants map[string]map[string]time.Time // admin id -> door id -> granted at
}

func NewCapabilityStore() *CapabilityStore {
	return &CapabilityStore{
		byDoor: make(map[string]store.CapabilityRecord),
		grants: make(map[string]map[string]time.Time),
	}
}

func (s *CapabilityStore) MintCapability(_ context.Context, rec store.CapabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDoor[rec.DoorID]; ok {
		return store.ErrCapabilityExists
	}
	s.byDoor[rec.DoorID] = rec
	return nil
}

func (s *CapabilityStore) CapabilityForDoor(_ context.Context, doorID string) (store.CapabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byDoor[doorID]
	if !ok {
		return store.CapabilityRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *CapabilityStore) GrantToAdmin(_ context.Context, adminID, doorID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[adminID] == nil {
		s.grants[adminID] = make(map[string]time.Time)
	}
	if _, ok := s.grants[adminID][doorID]; !ok {
		s.grants[adminID][doorID] = at
	}
	return nil
}

func (s *CapabilityStore) AdminHolds(_ context.Context, adminID, doorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.grants[adminID][doorID]
	return ok, nil
}
