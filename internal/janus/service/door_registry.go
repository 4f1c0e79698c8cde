package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// DoorRegistry owns door identity and each door's management capability.
type DoorRegistry struct {
	doors  store.DoorStore
	caps   store.CapabilityStore
	users  store.LockUserStore
	ledger *KeycardLedger
	atomic store.Atomic
	clock  Clock
}

func NewDoorRegistry(doors store.DoorStore, caps store.CapabilityStore,
	users store.LockUserStore, ledger *KeycardLedger, atomic store.Atomic, clock Clock) *DoorRegistry {
	return &DoorRegistry{
		doors:  doors,
		caps:   caps,
		users:  users,
		ledger: ledger,
		atomic: atomic,
		clock:  orUTC(clock),
	}
}

// CreateDoor registers a door and mints its management capability, both in
// one unit of work. The capability is minted here and only here; editing a
// door later never touches it.
func (r *DoorRegistry) CreateDoor(ctx context.Context, name, description string) (store.DoorRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.DoorRecord{}, ErrInvalidDoorName
	}

	now := r.clock()
	rec := store.DoorRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.atomic.Atomically(ctx, func(ctx context.Context) error {
		if err := r.doors.CreateDoor(ctx, rec); err != nil {
			return err
		}
		return r.caps.MintCapability(ctx, store.CapabilityRecord{
			DoorID:   rec.ID,
			Codename: "can_manage_door_" + rec.ID,
			MintedAt: now,
		})
	})
	if err != nil {
		return store.DoorRecord{}, err
	}
	return rec, nil
}

// UpdateDoor changes name/description. Deliberately capability-free.
func (r *DoorRegistry) UpdateDoor(ctx context.Context, doorID, name, description string) (store.DoorRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.DoorRecord{}, ErrInvalidDoorName
	}

	rec, err := r.doors.GetDoor(ctx, doorID)
	if err != nil {
		return store.DoorRecord{}, err
	}
	rec.Name = name
	rec.Description = strings.TrimSpace(description)
	rec.UpdatedAt = r.clock()

	if err := r.doors.UpdateDoor(ctx, rec); err != nil {
		return store.DoorRecord{}, err
	}
	return rec, nil
}

func (r *DoorRegistry) Door(ctx context.Context, doorID string) (store.DoorRecord, error) {
	return r.doors.GetDoor(ctx, doorID)
}

func (r *DoorRegistry) Doors(ctx context.Context) ([]store.DoorRecord, error) {
	return r.doors.ListDoors(ctx)
}

// ListAllowedRFIDs returns, for every lock user granted this door, the
// RFID of their currently active keycard. Users with no active card are
// skipped. Order follows grant insertion order and is not sorted.
func (r *DoorRegistry) ListAllowedRFIDs(ctx context.Context, doorID string) ([]string, error) {
	granted, err := r.users.UsersGrantedDoor(ctx, doorID)
	if err != nil {
		return nil, err
	}

	var rfids []string
	for _, u := range granted {
		card, err := r.ledger.ActiveCardFor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if card == nil {
			continue
		}
		rfids = append(rfids, card.RFID)
	}
	return rfids, nil
}
