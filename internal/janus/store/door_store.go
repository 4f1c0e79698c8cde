package store

import (
	"context"
	"time"
)

type DoorRecord struct {
	ID          string
	Name        string // unique, e.g. "Makerspace"
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CapabilityRecord is the management capability for one door. An
// administrator either holds it (via a grant) or does not.
type CapabilityRecord struct {
	DoorID   string
	Codename string // e.g. "can_manage_door_<door_id>"
	MintedAt time.Time
}

type DoorStore interface {
	CreateDoor(ctx context.Context, rec DoorRecord) error
	UpdateDoor(ctx context.Context, rec DoorRecord) error
	GetDoor(ctx context.Context, doorID string) (DoorRecord, error)
	ListDoors(ctx context.Context) ([]DoorRecord, error)
}

type CapabilityStore interface {
	// MintCapability fails with ErrCapabilityExists if the door already has
	// one; minting is a create-time side effect, never repeated on edits.
	MintCapability(ctx context.Context, rec CapabilityRecord) error
	CapabilityForDoor(ctx context.Context, doorID string) (CapabilityRecord, error)

	GrantToAdmin(ctx context.Context, adminID, doorID string, at time.Time) error
	AdminHolds(ctx context.Context, adminID, doorID string) (bool, error)
}
