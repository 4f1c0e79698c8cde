package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// LockUserDirectory owns lock-user identity, door grants and the
// one-active-keycard-at-a-time invariant. Save is the core state machine:
// it orchestrates the keycard ledger and the scan tracker inside a single
// unit of work.
type LockUserDirectory struct {
	users   store.LockUserStore
	ledger  *KeycardLedger
	tracker *ScanTracker
	atomic  store.Atomic
	clock   Clock
}

func NewLockUserDirectory(users store.LockUserStore, ledger *KeycardLedger,
	tracker *ScanTracker, atomic store.Atomic, clock Clock) *LockUserDirectory {
	return &LockUserDirectory{
		users:   users,
		ledger:  ledger,
		tracker: tracker,
		atomic:  atomic,
		clock:   orUTC(clock),
	}
}

// SaveInput carries one proposed lock-user state plus the administrator
// performing the save. Door grants here are assumed to have already passed
// the admin scoping review.
type SaveInput struct {
	LockUser store.LockUserRecord
	DoorIDs  []string
	ActorID  string
}

// Create registers a new lock user with an initial grant set.
func (d *LockUserDirectory) Create(ctx context.Context, rec store.LockUserRecord, doorIDs []string) (store.LockUserRecord, error) {
	if err := validateLockUser(&rec); err != nil {
		return store.LockUserRecord{}, err
	}

	now := d.clock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := d.atomic.Atomically(ctx, func(ctx context.Context) error {
		if err := d.users.CreateLockUser(ctx, rec); err != nil {
			return err
		}
		return d.users.SetDoorGrants(ctx, rec.ID, doorIDs, now)
	})
	if err != nil {
		return store.LockUserRecord{}, err
	}
	return rec, nil
}

// Save runs the save sequence in strict order, all-or-nothing:
//
//  1. persist identity, contact fields and door grants
//  2. consume the actor's ready scan session, if any, and issue the
//     scanned card to this user
//  3. look up the current active card, ignoring a card issued in step 2
//  4. if deactivation was requested and a prior card exists, revoke it and
//     clear the transient deactivation fields
//
// A card issued in step 2 can never be the card revoked in step 4, and a
// failure anywhere rolls the whole sequence back.
func (d *LockUserDirectory) Save(ctx context.Context, in SaveInput) (store.LockUserRecord, error) {
	rec := in.LockUser
	if err := validateLockUser(&rec); err != nil {
		return store.LockUserRecord{}, err
	}

	err := d.atomic.Atomically(ctx, func(ctx context.Context) error {
		now := d.clock()
		rec.UpdatedAt = now
		if err := d.users.UpdateLockUser(ctx, rec); err != nil {
			return err
		}
		if err := d.users.SetDoorGrants(ctx, rec.ID, in.DoorIDs, now); err != nil {
			return err
		}

		var issuedID string
		sess, err := d.tracker.ConsumeReady(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if sess != nil {
			issued, err := d.ledger.Issue(ctx, rec.ID, sess.RFID, sess.AssignerID)
			if err != nil {
				return err
			}
			issuedID = issued.ID
		}

		prior, err := d.ledger.activeCardExcluding(ctx, rec.ID, issuedID)
		if err != nil {
			return err
		}

		if rec.DeactivateKeycard && prior != nil {
			revoker := rec.KeycardRevokerID
			if revoker == "" {
				revoker = in.ActorID
			}
			if err := d.ledger.Revoke(ctx, prior.ID, revoker); err != nil {
				return err
			}
			rec.DeactivateKeycard = false
			rec.KeycardRevokerID = ""
			rec.UpdatedAt = d.clock()
			if err := d.users.UpdateLockUser(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.LockUserRecord{}, err
	}
	return rec, nil
}

func (d *LockUserDirectory) LockUser(ctx context.Context, lockUserID string) (store.LockUserRecord, error) {
	return d.users.GetLockUser(ctx, lockUserID)
}

func (d *LockUserDirectory) LockUsers(ctx context.Context) ([]store.LockUserRecord, error) {
	return d.users.ListLockUsers(ctx)
}

func (d *LockUserDirectory) DoorGrants(ctx context.Context, lockUserID string) ([]string, error) {
	return d.users.DoorGrants(ctx, lockUserID)
}

// IsActive reports whether the lock user currently holds an active card.
func (d *LockUserDirectory) IsActive(ctx context.Context, lockUserID string) (bool, error) {
	card, err := d.ledger.ActiveCardFor(ctx, lockUserID)
	if err != nil {
		return false, err
	}
	return card != nil, nil
}

func validateLockUser(rec *store.LockUserRecord) error {
	rec.FirstName = strings.TrimSpace(rec.FirstName)
	rec.LastName = strings.TrimSpace(rec.LastName)
	rec.Email = strings.TrimSpace(rec.Email)

	if rec.FirstName == "" || rec.LastName == "" {
		return ErrInvalidName
	}
	if rec.Email == "" {
		return ErrInvalidEmail
	}
	return nil
}
