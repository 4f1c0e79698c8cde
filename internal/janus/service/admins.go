package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// Admins manages administrator accounts and door-management grants.
type Admins struct {
	admins store.AdminStore
	caps   store.CapabilityStore
	doors  store.DoorStore
	clock  Clock
}

func NewAdmins(admins store.AdminStore, caps store.CapabilityStore, doors store.DoorStore, clock Clock) *Admins {
	return &Admins{admins: admins, caps: caps, doors: doors, clock: orUTC(clock)}
}

// Create registers an administrator account. The password is stored only
// as a bcrypt hash.
func (a *Admins) Create(ctx context.Context, username, password string, superuser bool) (store.AdminRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return store.AdminRecord{}, ErrInvalidUsername
	}
	if password == "" {
		return store.AdminRecord{}, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.AdminRecord{}, err
	}

	rec := store.AdminRecord{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Superuser:    superuser,
		CreatedAt:    a.clock(),
	}
	if err := a.admins.CreateAdmin(ctx, rec); err != nil {
		return store.AdminRecord{}, err
	}
	return rec, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords both yield ErrBadCredentials.
func (a *Admins) Authenticate(ctx context.Context, username, password string) (store.AdminRecord, error) {
	rec, err := a.admins.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return store.AdminRecord{}, ErrBadCredentials
	}
	if err != nil {
		return store.AdminRecord{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return store.AdminRecord{}, ErrBadCredentials
	}
	return rec, nil
}

// Get returns one administrator record.
func (a *Admins) Get(ctx context.Context, adminID string) (store.AdminRecord, error) {
	return a.admins.GetAdmin(ctx, adminID)
}

// GrantDoor hands an administrator the management capability for a door.
// Only superusers may grant; granting is idempotent.
func (a *Admins) GrantDoor(ctx context.Context, actor store.AdminRecord, adminID, doorID string) error {
	if !actor.Superuser {
		return ErrNotSuperuser
	}
	if _, err := a.admins.GetAdmin(ctx, adminID); err != nil {
		return err
	}
	if _, err := a.doors.GetDoor(ctx, doorID); err != nil {
		return err
	}
	return a.caps.GrantToAdmin(ctx, adminID, doorID, a.clock())
}
