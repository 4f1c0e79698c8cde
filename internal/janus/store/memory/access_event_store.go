package memory

import (
	"context"
	"sync"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// AccessEventStore is an in-memory append-only log of granted accesses.
type AccessEventStore struct {
	mu     sync.Mutex
	nextID int64
	events []store.AccessEventRecord
}

func NewAccessEventStore() *AccessEventStore {
	return &AccessEventStore{}
}

func (s *AccessEventStore) RecordEvent(_ context.Context, rec store.AccessEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	s.events = append(s.events, rec)
	return nil
}

func (s *AccessEventStore) EventsForLockUser(_ context.Context, lockUserID string, limit int) ([]store.AccessEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterNewestFirst(func(e store.AccessEventRecord) bool { return e.LockUserID == lockUserID }, limit), nil
}

func (s *AccessEventStore) EventsForDoor(_ context.Context, doorID string, limit int) ([]store.AccessEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterNewestFirst(func(e store.AccessEventRecord) bool { return e.DoorID == doorID }, limit), nil
}

func (s *AccessEventStore) filterNewestFirst(match func(store.AccessEventRecord) bool, limit int) []store.AccessEventRecord {
	var out []store.AccessEventRecord
	for i := len(s.events) - 1; i >= 0; i-- {
		if !match(s.events[i]) {
			continue
		}
		out = append(out, s.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Events returns a copy of all recorded events.  Test-only helper.
func (s *AccessEventStore) Events() []store.AccessEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
