package store

import (
	"context"
	"time"
)

// ScanSessionRecord tracks one in-flight "scan a new card" interaction:
// initiated by an administrator, marked ready when the reader reports a
// scan, consumed exactly once when a keycard is created from it.
type ScanSessionRecord struct {
	ID          string
	DoorID      string
	AssignerID  string
	InitiatedAt time.Time
	Waiting     bool
	Ready       bool
	RFID        string // set when the scan arrives
}

type ScanSessionStore interface {
	InsertSession(ctx context.Context, rec ScanSessionRecord) error

	// LatestForDoor returns the most-recently-initiated session for a door,
	// or ErrNotFound.
	LatestForDoor(ctx context.Context, doorID string) (ScanSessionRecord, error)

	// MarkReady flips waiting→ready and stores the scanned RFID. The update
	// is conditional on waiting still being set; returns false if the
	// session was already resolved.
	MarkReady(ctx context.Context, sessionID, rfid string) (bool, error)

	// ConsumeReadyForAssigner finds the latest ready session initiated by
	// assignerID at or after notBefore and clears its ready flag in the
	// same operation. Exactly one of two concurrent callers can win; the
	// loser observes ok=false.
	ConsumeReadyForAssigner(ctx context.Context, assignerID string, notBefore time.Time) (ScanSessionRecord, bool, error)

	// DeleteStaleBefore removes sessions initiated before cutoff that are
	// no longer assignable. Returns the number of rows deleted.
	DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
