package service_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store"
	"github.com/openmakerlabs/janus/internal/janus/store/memory"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeClock is a settable clock shared by every service in a test env.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// env wires every service against shared in-memory stores.
type env struct {
	clock    *fakeClock
	runner   *memory.Runner
	admins   *memory.AdminStore
	doors    *memory.DoorStore
	caps     *memory.CapabilityStore
	users    *memory.LockUserStore
	cards    *memory.KeycardStore
	sessions *memory.ScanSessionStore
	events   *memory.AccessEventStore

	ledger    *service.KeycardLedger
	tracker   *service.ScanTracker
	registry  *service.DoorRegistry
	directory *service.LockUserDirectory
	scope     *service.AdminScope
	accounts  *service.Admins
	ingest    *service.Ingest
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		clock:    newFakeClock(testStart),
		runner:   memory.NewRunner(),
		admins:   memory.NewAdminStore(),
		doors:    memory.NewDoorStore(),
		caps:     memory.NewCapabilityStore(),
		users:    memory.NewLockUserStore(),
		cards:    memory.NewKeycardStore(),
		sessions: memory.NewScanSessionStore(),
		events:   memory.NewAccessEventStore(),
	}

	e.ledger = service.NewKeycardLedger(e.cards, e.clock.Now)
	e.tracker = service.NewScanTracker(e.sessions, e.runner, service.DefaultScanTimeout, e.clock.Now)
	e.registry = service.NewDoorRegistry(e.doors, e.caps, e.users, e.ledger, e.runner, e.clock.Now)
	e.directory = service.NewLockUserDirectory(e.users, e.ledger, e.tracker, e.runner, e.clock.Now)
	e.scope = service.NewAdminScope(e.doors, e.caps, e.users)
	e.accounts = service.NewAdmins(e.admins, e.caps, e.doors, e.clock.Now)
	e.ingest = service.NewIngest(e.doors, e.users, e.cards, e.events, e.tracker, e.clock.Now, silentLogger())

	return e
}

func (e *env) mustCreateDoor(t *testing.T, name string) store.DoorRecord {
	t.Helper()
	door, err := e.registry.CreateDoor(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create door %q: %v", name, err)
	}
	return door
}

func (e *env) mustCreateLockUser(t *testing.T, first, last, email string, doorIDs ...string) store.LockUserRecord {
	t.Helper()
	rec, err := e.directory.Create(context.Background(), store.LockUserRecord{
		FirstName: first,
		LastName:  last,
		Email:     email,
	}, doorIDs)
	if err != nil {
		t.Fatalf("create lock user %q: %v", email, err)
	}
	return rec
}
