package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

type ScanSessionStore struct {
	mu       sync.Mutex
	sessions []store.ScanSessionRecord // insertion order
}

func NewScanSessionStore() *ScanSessionStore {
	return &ScanSessionStore{}
}

func (s *ScanSessionStore) InsertSession(_ context.Context, rec store.ScanSessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, rec)
	return nil
}

func (s *ScanSessionStore) LatestForDoor(_ context.Context, doorID string) (store.ScanSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := -1
	for i, sess := range s.sessions {
		if sess.DoorID != doorID {
			continue
		}
		if best < 0 || !sess.InitiatedAt.Before(s.sessions[best].InitiatedAt) {
			best = i
		}
	}
	if best < 0 {
		return store.ScanSessionRecord{}, store.ErrNotFound
	}
	return s.sessions[best], nil
}

func (s *ScanSessionStore) MarkReady(_ context.Context, sessionID, rfid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID != sessionID {
			continue
		}
		if !s.sessions[i].Waiting {
			return false, nil
		}
		s.sessions[i].Waiting = false
		s.sessions[i].Ready = true
		s.sessions[i].RFID = rfid
		return true, nil
	}
	return false, nil
}

func (s *ScanSessionStore) ConsumeReadyForAssigner(_ context.Context, assignerID string, notBefore time.Time) (store.ScanSessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := -1
	for i, sess := range s.sessions {
		if sess.AssignerID != assignerID || !sess.Ready || sess.InitiatedAt.Before(notBefore) {
			continue
		}
		if best < 0 || !sess.InitiatedAt.Before(s.sessions[best].InitiatedAt) {
			best = i
		}
	}
	if best < 0 {
		return store.ScanSessionRecord{}, false, nil
	}
	// Clearing the flag under the same lock is what makes consumption a
	// single read-and-clear: a concurrent caller sees ready=false.
	s.sessions[best].Ready = false
	return s.sessions[best], true, nil
}

func (s *ScanSessionStore) DeleteStaleBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []store.ScanSessionRecord
	var deleted int64
	for _, sess := range s.sessions {
		if sess.InitiatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	return deleted, nil
}
