package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

func TestSessionPruner_DisabledWhenRetentionZero(t *testing.T) {
	e := newEnv(t)
	pruner := service.NewSessionPruner(e.sessions, service.PrunerConfig{
		RetentionHours: 0,
		IntervalHours:  1,
	}, e.clock.Now, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pruner.Start(ctx)
	// Stop should return immediately without error.
	pruner.Stop()
}

func TestSessionPruner_DeletesStaleSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	old := store.ScanSessionRecord{
		ID: "old", DoorID: "door1", AssignerID: "admin1",
		InitiatedAt: e.clock.Now().Add(-48 * time.Hour),
	}
	recent := store.ScanSessionRecord{
		ID: "recent", DoorID: "door1", AssignerID: "admin1",
		InitiatedAt: e.clock.Now().Add(-time.Hour),
	}
	for _, rec := range []store.ScanSessionRecord{old, recent} {
		if err := e.sessions.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", rec.ID, err)
		}
	}

	// Prune directly via the store (same operation the pruner calls).
	cutoff := e.clock.Now().Add(-24 * time.Hour)
	deleted, err := e.sessions.DeleteStaleBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteStaleBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	// The recent session survives.
	if _, err := e.sessions.LatestForDoor(ctx, "door1"); err != nil {
		t.Fatalf("recent session gone: %v", err)
	}
}

func TestSessionPruner_StartStop(t *testing.T) {
	e := newEnv(t)
	pruner := service.NewSessionPruner(e.sessions, service.PrunerConfig{
		RetentionHours: 24,
		IntervalHours:  1,
	}, e.clock.Now, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pruner.Start(ctx)
	pruner.Stop()
}
