package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openmakerlabs/janus/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

var seedTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Seed helpers insert the foreign-key targets most store tests need.

func seedAdmin(t *testing.T, conn *sql.DB, adminID string) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO admins(admin_id, username, password_hash, superuser, created_at_ms)
VALUES (?, ?, 'x', 0, ?);`, adminID, "user_"+adminID, seedTime.UnixMilli())
	if err != nil {
		t.Fatalf("seedAdmin %s: %v", adminID, err)
	}
}

func seedDoor(t *testing.T, conn *sql.DB, doorID string) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO doors(door_id, name, description, created_at_ms, updated_at_ms)
VALUES (?, ?, '', ?, ?);`, doorID, "Door "+doorID, seedTime.UnixMilli(), seedTime.UnixMilli())
	if err != nil {
		t.Fatalf("seedDoor %s: %v", doorID, err)
	}
}

func seedLockUser(t *testing.T, conn *sql.DB, lockUserID string) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO lock_users(lock_user_id, first_name, last_name, email, created_at_ms, updated_at_ms)
VALUES (?, 'Test', 'User', ?, ?, ?);`,
		lockUserID, lockUserID+"@example.com", seedTime.UnixMilli(), seedTime.UnixMilli())
	if err != nil {
		t.Fatalf("seedLockUser %s: %v", lockUserID, err)
	}
}
