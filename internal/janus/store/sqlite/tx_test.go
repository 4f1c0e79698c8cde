package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/openmakerlabs/janus/internal/janus/store"
	sqlitestore "github.com/openmakerlabs/janus/internal/janus/store/sqlite"
)

func TestAtomically_RollsBackEveryStoreCall(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDoorStore(conn, w)
	cs := sqlitestore.NewCapabilityStore(conn, w)
	ctx := context.Background()

	boom := errors.New("boom")
	err := w.Atomically(ctx, func(ctx context.Context) error {
		if err := ds.CreateDoor(ctx, store.DoorRecord{
			ID: "d1", Name: "Makerspace", CreatedAt: seedTime, UpdatedAt: seedTime,
		}); err != nil {
			return err
		}
		if err := cs.MintCapability(ctx, store.CapabilityRecord{
			DoorID: "d1", Codename: "can_manage_door_d1", MintedAt: seedTime,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Nothing from the failed unit may survive.
	if _, err := ds.GetDoor(ctx, "d1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("door survived rollback: %v", err)
	}
	if _, err := cs.CapabilityForDoor(ctx, "d1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("capability survived rollback: %v", err)
	}
}

func TestAtomically_CommitsAsOneUnit(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDoorStore(conn, w)
	cs := sqlitestore.NewCapabilityStore(conn, w)
	ctx := context.Background()

	err := w.Atomically(ctx, func(ctx context.Context) error {
		if err := ds.CreateDoor(ctx, store.DoorRecord{
			ID: "d1", Name: "Makerspace", CreatedAt: seedTime, UpdatedAt: seedTime,
		}); err != nil {
			return err
		}
		return cs.MintCapability(ctx, store.CapabilityRecord{
			DoorID: "d1", Codename: "can_manage_door_d1", MintedAt: seedTime,
		})
	})
	if err != nil {
		t.Fatalf("atomically: %v", err)
	}

	if _, err := ds.GetDoor(ctx, "d1"); err != nil {
		t.Errorf("door missing after commit: %v", err)
	}
	if _, err := cs.CapabilityForDoor(ctx, "d1"); err != nil {
		t.Errorf("capability missing after commit: %v", err)
	}
}

// Reads issued inside an open unit must observe its uncommitted writes;
// with a single SQLite connection they would otherwise deadlock.
func TestAtomically_ReadsSeeUncommittedWrites(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDoorStore(conn, w)
	ctx := context.Background()

	err := w.Atomically(ctx, func(ctx context.Context) error {
		if err := ds.CreateDoor(ctx, store.DoorRecord{
			ID: "d1", Name: "Makerspace", CreatedAt: seedTime, UpdatedAt: seedTime,
		}); err != nil {
			return err
		}
		got, err := ds.GetDoor(ctx, "d1")
		if err != nil {
			return err
		}
		if got.Name != "Makerspace" {
			t.Errorf("unexpected read inside unit: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("atomically: %v", err)
	}
}
