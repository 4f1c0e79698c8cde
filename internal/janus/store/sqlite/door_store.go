package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type DoorStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDoorStore(db *sql.DB, writer *dbpkg.Worker) *DoorStore {
	return &DoorStore{db: db, writer: writer}
}

func (s *DoorStore) CreateDoor(ctx context.Context, rec store.DoorRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO doors(door_id, name, description, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.ID, rec.Name, rec.Description, timeToMs(rec.CreatedAt), timeToMs(rec.UpdatedAt))
		if isUniqueViolation(err, "doors.name") {
			return store.ErrDuplicateDoorName
		}
		if err != nil {
			return fmt.Errorf("CreateDoor insert: %w", err)
		}
		return nil
	})
}

func (s *DoorStore) UpdateDoor(ctx context.Context, rec store.DoorRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE doors SET name = ?, description = ?, updated_at_ms = ?
WHERE door_id = ?;
`, rec.Name, rec.Description, timeToMs(rec.UpdatedAt), rec.ID)
		if isUniqueViolation(err, "doors.name") {
			return store.ErrDuplicateDoorName
		}
		if err != nil {
			return fmt.Errorf("UpdateDoor: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *DoorStore) GetDoor(ctx context.Context, doorID string) (store.DoorRecord, error) {
	var rec store.DoorRecord
	var createdMs, updatedMs int64

	err := dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT door_id, name, description, created_at_ms, updated_at_ms
FROM doors WHERE door_id = ?;
`, doorID).Scan(&rec.ID, &rec.Name, &rec.Description, &createdMs, &updatedMs)
	if err == sql.ErrNoRows {
		return store.DoorRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.DoorRecord{}, fmt.Errorf("GetDoor: %w", err)
	}
	rec.CreatedAt = msToTime(createdMs)
	rec.UpdatedAt = msToTime(updatedMs)
	return rec, nil
}

func (s *DoorStore) ListDoors(ctx context.Context) ([]store.DoorRecord, error) {
	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx, `
SELECT door_id, name, description, created_at_ms, updated_at_ms
FROM doors ORDER BY created_at_ms, door_id;
`)
	if err != nil {
		return nil, fmt.Errorf("ListDoors: %w", err)
	}
	defer rows.Close()

	var out []store.DoorRecord
	for rows.Next() {
		var rec store.DoorRecord
		var createdMs, updatedMs int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &createdMs, &updatedMs); err != nil {
			return nil, fmt.Errorf("ListDoors scan: %w", err)
		}
		rec.CreatedAt = msToTime(createdMs)
		rec.UpdatedAt = msToTime(updatedMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type CapabilityStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCapabilityStore(db *sql.DB, writer *dbpkg.Worker) *CapabilityStore {
	return &CapabilityStore{db: db, writer: writer}
}

func (s *CapabilityStore) MintCapability(ctx context.Context, rec store.CapabilityRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO door_capabilities(door_id, codename, minted_at_ms)
VALUES (?, ?, ?);
`, rec.DoorID, rec.Codename, timeToMs(rec.MintedAt))
		if isUniqueViolation(err, "door_capabilities.door_id") ||
			isUniqueViolation(err, "door_capabilities.codename") {
			return store.ErrCapabilityExists
		}
		if err != nil {
			return fmt.Errorf("MintCapability insert: %w", err)
		}
		return nil
	})
}

func (s *CapabilityStore) CapabilityForDoor(ctx context.Context, doorID string) (store.CapabilityRecord, error) {
	var rec store.CapabilityRecord
	var mintedMs int64

	err := dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT door_id, codename, minted_at_ms
FROM door_capabilities WHERE door_id = ?;
`, doorID).Scan(&rec.DoorID, &rec.Codename, &mintedMs)
	if err == sql.ErrNoRows {
		return store.CapabilityRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.CapabilityRecord{}, fmt.Errorf("CapabilityForDoor: %w", err)
	}
	rec.MintedAt = msToTime(mintedMs)
	return rec, nil
}

func (s *CapabilityStore) GrantToAdmin(ctx context.Context, adminID, doorID string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO admin_door_grants(admin_id, door_id, granted_at_ms)
VALUES (?, ?, ?);
`, adminID, doorID, timeToMs(at)); err != nil {
			return fmt.Errorf("GrantToAdmin: %w", err)
		}
		return nil
	})
}

func (s *CapabilityStore) AdminHolds(ctx context.Context, adminID, doorID string) (bool, error) {
	var one int
	err := dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT 1 FROM admin_door_grants WHERE admin_id = ? AND door_id = ?;
`, adminID, doorID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("AdminHolds: %w", err)
	}
	return true, nil
}
