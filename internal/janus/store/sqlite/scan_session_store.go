package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type ScanSessionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewScanSessionStore(db *sql.DB, writer *dbpkg.Worker) *ScanSessionStore {
	return &ScanSessionStore{db: db, writer: writer}
}

const sessionColumns = `
session_id, door_id, assigner_id, initiated_at_ms, waiting, ready, rfid`

func (s *ScanSessionStore) InsertSession(ctx context.Context, rec store.ScanSessionRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO scan_sessions(session_id, door_id, assigner_id, initiated_at_ms, waiting, ready, rfid)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, rec.ID, rec.DoorID, rec.AssignerID, timeToMs(rec.InitiatedAt),
			boolToInt(rec.Waiting), boolToInt(rec.Ready), rec.RFID); err != nil {
			return fmt.Errorf("InsertSession: %w", err)
		}
		return nil
	})
}

func (s *ScanSessionStore) LatestForDoor(ctx context.Context, doorID string) (store.ScanSessionRecord, error) {
	row := dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT `+sessionColumns+`
FROM scan_sessions
WHERE door_id = ?
ORDER BY initiated_at_ms DESC, rowid DESC
LIMIT 1;
`, doorID)

	rec, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return store.ScanSessionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.ScanSessionRecord{}, fmt.Errorf("LatestForDoor: %w", err)
	}
	return rec, nil
}

func (s *ScanSessionStore) MarkReady(ctx context.Context, sessionID, rfid string) (bool, error) {
	var applied bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE scan_sessions SET waiting = 0, ready = 1, rfid = ?
WHERE session_id = ? AND waiting = 1;
`, rfid, sessionID)
		if err != nil {
			return fmt.Errorf("MarkReady: %w", err)
		}
		n, _ := res.RowsAffected()
		applied = n == 1
		return nil
	})
	return applied, err
}

// ConsumeReadyForAssigner performs the read-and-clear as one transaction:
// the select and the conditional flag clear cannot interleave with another
// consumer, so a ready session is handed out at most once.
func (s *ScanSessionStore) ConsumeReadyForAssigner(ctx context.Context, assignerID string, notBefore time.Time) (store.ScanSessionRecord, bool, error) {
	var rec store.ScanSessionRecord
	var consumed bool

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
SELECT `+sessionColumns+`
FROM scan_sessions
WHERE assigner_id = ? AND ready = 1 AND initiated_at_ms >= ?
ORDER BY initiated_at_ms DESC, rowid DESC
LIMIT 1;
`, assignerID, timeToMs(notBefore))

		found, err := scanSession(row.Scan)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ConsumeReadyForAssigner select: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE scan_sessions SET ready = 0
WHERE session_id = ? AND ready = 1;
`, found.ID)
		if err != nil {
			return fmt.Errorf("ConsumeReadyForAssigner clear: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return nil
		}

		found.Ready = false
		rec = found
		consumed = true
		return nil
	})
	return rec, consumed, err
}

func (s *ScanSessionStore) DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM scan_sessions WHERE initiated_at_ms < ?;
`, timeToMs(cutoff))
		if err != nil {
			return fmt.Errorf("DeleteStaleBefore: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func scanSession(scan func(dest ...any) error) (store.ScanSessionRecord, error) {
	var rec store.ScanSessionRecord
	var initiatedMs int64
	var waiting, ready int

	err := scan(&rec.ID, &rec.DoorID, &rec.AssignerID, &initiatedMs, &waiting, &ready, &rec.RFID)
	if err != nil {
		return store.ScanSessionRecord{}, err
	}
	rec.InitiatedAt = msToTime(initiatedMs)
	rec.Waiting = waiting == 1
	rec.Ready = ready == 1
	return rec, nil
}
