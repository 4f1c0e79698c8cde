package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

type KeycardStore struct {
	mu    sync.Mutex
	cards []store.KeycardRecord // insertion order
}

func NewKeycardStore() *KeycardStore {
	return &KeycardStore{}
}

func (s *KeycardStore) InsertKeycard(_ context.Context, rec store.KeycardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, rec)
	return nil
}

func (s *KeycardStore) RevokeKeycard(_ context.Context, keycardID, revokerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cards {
		if s.cards[i].ID != keycardID {
			continue
		}
		if s.cards[i].RevokedAt != nil {
			return store.ErrAlreadyRevoked
		}
		t := at
		s.cards[i].RevokedAt = &t
		s.cards[i].RevokerID = revokerID
		return nil
	}
	return store.ErrNotFound
}

func (s *KeycardStore) ActiveCardsFor(_ context.Context, lockUserID string) ([]store.KeycardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.KeycardRecord
	for _, c := range s.cards {
		if c.LockUserID == lockUserID && c.RevokedAt == nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *KeycardStore) CardsFor(_ context.Context, lockUserID string) ([]store.KeycardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.KeycardRecord
	for _, c := range s.cards {
		if c.LockUserID == lockUserID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *KeycardStore) ActiveCardsByRFID(_ context.Context, rfid string) ([]store.KeycardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.KeycardRecord
	for _, c := range s.cards {
		if c.RFID == rfid && c.RevokedAt == nil {
			out = append(out, c)
		}
	}
	return out, nil
}
