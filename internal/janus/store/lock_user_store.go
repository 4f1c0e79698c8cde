package store

import (
	"context"
	"time"
)

type LockUserRecord struct {
	ID         string
	FirstName  string
	MiddleName string
	LastName   string
	Address    string
	Email      string // unique
	Phone      string
	Birthdate  string // "YYYY-MM-DD", empty when unknown

	// Transient save instructions, cleared once acted on.
	DeactivateKeycard bool
	KeycardRevokerID  string // admin performing the deactivation

	CreatedAt time.Time
	UpdatedAt time.Time
}

type LockUserStore interface {
	CreateLockUser(ctx context.Context, rec LockUserRecord) error
	UpdateLockUser(ctx context.Context, rec LockUserRecord) error
	GetLockUser(ctx context.Context, lockUserID string) (LockUserRecord, error)
	ListLockUsers(ctx context.Context) ([]LockUserRecord, error)

	// SetDoorGrants replaces the grant set. Grants the user already holds
	// keep their original insertion position.
	SetDoorGrants(ctx context.Context, lockUserID string, doorIDs []string, at time.Time) error
	// DoorGrants returns door IDs in grant insertion order.
	DoorGrants(ctx context.Context, lockUserID string) ([]string, error)
	HasDoorGrant(ctx context.Context, lockUserID, doorID string) (bool, error)
	// UsersGrantedDoor returns lock users in grant insertion order.
	UsersGrantedDoor(ctx context.Context, doorID string) ([]LockUserRecord, error)
}
