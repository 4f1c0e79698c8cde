package store

import (
	"context"
	"time"
)

// KeycardRecord binds an RFID code to a lock user for a bounded active
// period. RevokedAt nil means the card is active. Rows are historical:
// inserted once, revoked at most once, never deleted.
type KeycardRecord struct {
	ID         string
	RFID       string // not unique — physical cards get reused
	LockUserID string
	AssignerID string
	RevokerID  string // empty until revoked
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

func (r KeycardRecord) Active() bool { return r.RevokedAt == nil }

type KeycardStore interface {
	InsertKeycard(ctx context.Context, rec KeycardRecord) error

	// RevokeKeycard is conditional on the card still being active, so a
	// second revocation cannot overwrite the first revoker or timestamp.
	// Fails with ErrAlreadyRevoked (or ErrNotFound for an unknown card).
	RevokeKeycard(ctx context.Context, keycardID, revokerID string, at time.Time) error

	// ActiveCardsFor returns unrevoked cards oldest-first. More than one
	// element is an upstream invariant breach, not valid state.
	ActiveCardsFor(ctx context.Context, lockUserID string) ([]KeycardRecord, error)

	// CardsFor returns every card ever issued, most-recent-first.
	CardsFor(ctx context.Context, lockUserID string) ([]KeycardRecord, error)

	ActiveCardsByRFID(ctx context.Context, rfid string) ([]KeycardRecord, error)
}
