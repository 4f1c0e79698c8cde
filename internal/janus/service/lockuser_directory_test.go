package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

func TestLockUserDirectory_CreateValidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.directory.Create(ctx, store.LockUserRecord{
		FirstName: "Ada", Email: "ada@example.com",
	}, nil)
	if !errors.Is(err, service.ErrInvalidName) {
		t.Fatalf("missing last name: expected ErrInvalidName, got %v", err)
	}

	_, err = e.directory.Create(ctx, store.LockUserRecord{
		FirstName: "Ada", LastName: "Lovelace",
	}, nil)
	if !errors.Is(err, service.ErrInvalidEmail) {
		t.Fatalf("missing email: expected ErrInvalidEmail, got %v", err)
	}
}

func TestLockUserDirectory_CreateDuplicateEmail(t *testing.T) {
	e := newEnv(t)

	e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com")
	_, err := e.directory.Create(context.Background(), store.LockUserRecord{
		FirstName: "Other", LastName: "Person", Email: "ada@example.com",
	}, nil)
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

// The full assignment flow: begin a session at the Makerspace door, scan a
// card, then save Ada. The scanned RFID becomes her active keycard.
func TestLockUserDirectory_SaveIssuesScannedCard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	door := e.mustCreateDoor(t, "Makerspace")
	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com", door.ID)

	if _, err := e.tracker.Begin(ctx, door.ID, "admin1"); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if err := e.tracker.RecordScan(ctx, door.ID, "RFID123"); err != nil {
		t.Fatalf("record scan: %v", err)
	}

	saved, err := e.directory.Save(ctx, service.SaveInput{
		LockUser: ada,
		DoorIDs:  []string{door.ID},
		ActorID:  "admin1",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	card, err := e.ledger.ActiveCardFor(ctx, saved.ID)
	if err != nil {
		t.Fatalf("active card: %v", err)
	}
	if card == nil {
		t.Fatal("expected an active card after save")
	}
	if card.RFID != "RFID123" {
		t.Errorf("expected RFID123, got %q", card.RFID)
	}
	if card.AssignerID != "admin1" {
		t.Errorf("expected assigner admin1, got %q", card.AssignerID)
	}

	// The session is spent: a second save must not issue another card.
	if _, err := e.directory.Save(ctx, service.SaveInput{
		LockUser: saved, DoorIDs: []string{door.ID}, ActorID: "admin1",
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	history, err := e.ledger.HistoryFor(ctx, saved.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 card after second save, got %d", len(history))
	}
}

func TestLockUserDirectory_SaveRevokesPriorOnDeactivate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com")
	prior, err := e.ledger.Issue(ctx, ada.ID, "RFID-OLD", "admin1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ada.DeactivateKeycard = true
	ada.KeycardRevokerID = "admin2"
	saved, err := e.directory.Save(ctx, service.SaveInput{
		LockUser: ada, ActorID: "admin2",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if saved.DeactivateKeycard || saved.KeycardRevokerID != "" {
		t.Errorf("transient fields not cleared: %+v", saved)
	}

	card, err := e.ledger.ActiveCardFor(ctx, ada.ID)
	if err != nil {
		t.Fatalf("active card: %v", err)
	}
	if card != nil {
		t.Fatalf("card should be revoked, got %+v", card)
	}

	history, err := e.ledger.HistoryFor(ctx, ada.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != prior.ID {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].RevokerID != "admin2" {
		t.Errorf("expected revoker admin2, got %q", history[0].RevokerID)
	}
}

// One save can both issue a freshly scanned card and revoke the previous
// one; the new card must never be the one revoked.
func TestLockUserDirectory_SaveIssuesAndRevokesInOneSave(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	door := e.mustCreateDoor(t, "Makerspace")
	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com", door.ID)

	old, err := e.ledger.Issue(ctx, ada.ID, "RFID-OLD", "admin1")
	if err != nil {
		t.Fatalf("issue old: %v", err)
	}

	e.clock.Advance(time.Minute)
	if _, err := e.tracker.Begin(ctx, door.ID, "admin1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := e.tracker.RecordScan(ctx, door.ID, "RFID-NEW"); err != nil {
		t.Fatalf("record scan: %v", err)
	}

	ada.DeactivateKeycard = true
	if _, err := e.directory.Save(ctx, service.SaveInput{
		LockUser: ada, DoorIDs: []string{door.ID}, ActorID: "admin1",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	card, err := e.ledger.ActiveCardFor(ctx, ada.ID)
	if err != nil {
		t.Fatalf("active card: %v", err)
	}
	if card == nil || card.RFID != "RFID-NEW" {
		t.Fatalf("expected RFID-NEW active, got %+v", card)
	}

	history, err := e.ledger.HistoryFor(ctx, ada.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(history))
	}
	for _, c := range history {
		if c.ID == old.ID && c.Active() {
			t.Error("old card still active")
		}
		if c.RFID == "RFID-NEW" && !c.Active() {
			t.Error("new card was revoked by its own save")
		}
	}
}

func TestLockUserDirectory_SaveDeactivateWithoutCardIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com")

	ada.DeactivateKeycard = true
	saved, err := e.directory.Save(ctx, service.SaveInput{LockUser: ada, ActorID: "admin1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	// No card to revoke: the request stays pending on the record.
	if !saved.DeactivateKeycard {
		t.Error("deactivation flag should survive when there is nothing to revoke")
	}
}

func TestLockUserDirectory_SaveReplacesGrants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	doorA := e.mustCreateDoor(t, "Door A")
	doorB := e.mustCreateDoor(t, "Door B")
	doorC := e.mustCreateDoor(t, "Door C")

	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com", doorA.ID, doorB.ID)

	if _, err := e.directory.Save(ctx, service.SaveInput{
		LockUser: ada, DoorIDs: []string{doorB.ID, doorC.ID}, ActorID: "admin1",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	grants, err := e.directory.DoorGrants(ctx, ada.ID)
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if len(grants) != 2 || grants[0] != doorB.ID || grants[1] != doorC.ID {
		t.Fatalf("expected [B C], got %v", grants)
	}
}

func TestLockUserDirectory_IsActive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ada := e.mustCreateLockUser(t, "Ada", "Lovelace", "ada@example.com")

	active, err := e.directory.IsActive(ctx, ada.ID)
	if err != nil {
		t.Fatalf("is active: %v", err)
	}
	if active {
		t.Error("user with no card should be inactive")
	}

	if _, err := e.ledger.Issue(ctx, ada.ID, "RFID123", "admin1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	active, err = e.directory.IsActive(ctx, ada.ID)
	if err != nil {
		t.Fatalf("is active: %v", err)
	}
	if !active {
		t.Error("user with active card should be active")
	}
}
