package store

import (
	"context"
	"time"
)

// AccessEventRecord is one granted door opening, written by the reader
// ingestion path. The log is append-only: no update or delete ever runs
// against it.
type AccessEventRecord struct {
	ID         int64
	RFID       string
	DoorID     string
	LockUserID string
	OccurredAt time.Time
	Payload    string // opaque reader-supplied data
}

type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error

	// EventsForLockUser returns events newest-first, capped at limit
	// (limit <= 0 means no cap).
	EventsForLockUser(ctx context.Context, lockUserID string, limit int) ([]AccessEventRecord, error)
	EventsForDoor(ctx context.Context, doorID string, limit int) ([]AccessEventRecord, error)
}
