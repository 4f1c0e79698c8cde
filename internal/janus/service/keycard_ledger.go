package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// KeycardLedger is the append-mostly history of RFID keycards: who a card
// belongs to, who assigned and revoked it, and when. Cards are never
// mutated after revocation and never deleted.
type KeycardLedger struct {
	cards store.KeycardStore
	clock Clock
}

func NewKeycardLedger(cards store.KeycardStore, clock Clock) *KeycardLedger {
	return &KeycardLedger{cards: cards, clock: orUTC(clock)}
}

// Issue creates a new keycard for the lock user. The RFID code is not
// checked for uniqueness: physical cards get reused over time.
func (l *KeycardLedger) Issue(ctx context.Context, lockUserID, rfid, assignerID string) (store.KeycardRecord, error) {
	rfid = strings.TrimSpace(rfid)
	if rfid == "" {
		return store.KeycardRecord{}, ErrInvalidRFID
	}

	rec := store.KeycardRecord{
		ID:         uuid.NewString(),
		RFID:       rfid,
		LockUserID: lockUserID,
		AssignerID: assignerID,
		CreatedAt:  l.clock(),
	}
	if err := l.cards.InsertKeycard(ctx, rec); err != nil {
		return store.KeycardRecord{}, err
	}
	return rec, nil
}

// Revoke marks the card revoked now, recording the revoker. A card already
// revoked fails with store.ErrAlreadyRevoked; the original revocation is
// never overwritten.
func (l *KeycardLedger) Revoke(ctx context.Context, keycardID, revokerID string) error {
	return l.cards.RevokeKeycard(ctx, keycardID, revokerID, l.clock())
}

// ActiveCardFor returns the lock user's single unrevoked keycard, or nil
// if they have none. Finding more than one is an invariant breach and
// halts with an IntegrityError instead of guessing.
func (l *KeycardLedger) ActiveCardFor(ctx context.Context, lockUserID string) (*store.KeycardRecord, error) {
	return l.activeCardExcluding(ctx, lockUserID, "")
}

// activeCardExcluding is ActiveCardFor with one card ignored. The save
// orchestration uses it to find the prior card after issuing a fresh one
// in the same unit of work.
func (l *KeycardLedger) activeCardExcluding(ctx context.Context, lockUserID, excludeID string) (*store.KeycardRecord, error) {
	active, err := l.cards.ActiveCardsFor(ctx, lockUserID)
	if err != nil {
		return nil, err
	}

	var remaining []store.KeycardRecord
	for _, c := range active {
		if c.ID != excludeID {
			remaining = append(remaining, c)
		}
	}

	switch len(remaining) {
	case 0:
		return nil, nil
	case 1:
		c := remaining[0]
		return &c, nil
	default:
		return nil, &IntegrityError{LockUserID: lockUserID, ActiveCards: len(remaining)}
	}
}

// HistoryFor returns every card ever issued to the lock user, most recent
// first. Presentation ("activated by X, revoked by Y") is a UI concern.
func (l *KeycardLedger) HistoryFor(ctx context.Context, lockUserID string) ([]store.KeycardRecord, error) {
	return l.cards.CardsFor(ctx, lockUserID)
}
