package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

type LockUserStore struct {
	mu    sync.RWMutex
	byID  map[string]store.LockUserRecord
	order []string // creation order

	// grants preserves insertion order in both directions.
	userDoors map[string][]string // lock user id -> door ids
	doorUsers map[string][]string // door id -> lock user ids
}

func NewLockUserStore() *LockUserStore {
	return &LockUserStore{
		byID:      make(map[string]store.LockUserRecord),
		userDoors: make(map[string][]string),
		doorUsers: make(map[string][]string),
	}
}

func (s *LockUserStore) CreateLockUser(_ context.Context, rec store.LockUserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Email == rec.Email {
			return store.ErrDuplicateEmail
		}
	}
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *LockUserStore) UpdateLockUser(_ context.Context, rec store.LockUserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; !ok {
		return store.ErrNotFound
	}
	for id, u := range s.byID {
		if id != rec.ID && u.Email == rec.Email {
			return store.ErrDuplicateEmail
		}
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *LockUserStore) GetLockUser(_ context.Context, lockUserID string) (store.LockUserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[lockUserID]
	if !ok {
		return store.LockUserRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *LockUserStore) ListLockUsers(_ context.Context) ([]store.LockUserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.LockUserRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *LockUserStore) SetDoorGrants(_ context.Context, lockUserID string, doorIDs []string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(doorIDs))
	for _, id := range doorIDs {
		want[id] = struct{}{}
	}

	// Keep surviving grants in their original positions.
	var kept []string
	keptSet := make(map[string]struct{})
	for _, id := range s.userDoors[lockUserID] {
		if _, ok := want[id]; ok {
			kept = append(kept, id)
			keptSet[id] = struct{}{}
		} else {
			s.doorUsers[id] = remove(s.doorUsers[id], lockUserID)
		}
	}
	// Append new grants in the proposed order.
	for _, id := range doorIDs {
		if _, ok := keptSet[id]; !ok {
			kept = append(kept, id)
			s.doorUsers[id] = append(s.doorUsers[id], lockUserID)
		}
	}
	s.userDoors[lockUserID] = kept
	return nil
}

func (s *LockUserStore) DoorGrants(_ context.Context, lockUserID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.userDoors[lockUserID]))
	copy(out, s.userDoors[lockUserID])
	return out, nil
}

func (s *LockUserStore) HasDoorGrant(_ context.Context, lockUserID, doorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.userDoors[lockUserID] {
		if id == doorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *LockUserStore) UsersGrantedDoor(_ context.Context, doorID string) ([]store.LockUserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.LockUserRecord, 0, len(s.doorUsers[doorID]))
	for _, id := range s.doorUsers[doorID] {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
