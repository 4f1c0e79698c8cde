package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(rfid, door_id, lock_user_id, occurred_at_ms, payload)
VALUES (?, ?, ?, ?, ?);
`, rec.RFID, rec.DoorID, rec.LockUserID, timeToMs(rec.OccurredAt), rec.Payload); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

func (s *AccessEventStore) EventsForLockUser(ctx context.Context, lockUserID string, limit int) ([]store.AccessEventRecord, error) {
	return s.queryEvents(ctx, `lock_user_id`, lockUserID, limit)
}

func (s *AccessEventStore) EventsForDoor(ctx context.Context, doorID string, limit int) ([]store.AccessEventRecord, error) {
	return s.queryEvents(ctx, `door_id`, doorID, limit)
}

func (s *AccessEventStore) queryEvents(ctx context.Context, column, value string, limit int) ([]store.AccessEventRecord, error) {
	q := `
SELECT event_id, rfid, door_id, lock_user_id, occurred_at_ms, payload
FROM access_events
WHERE ` + column + ` = ?
ORDER BY occurred_at_ms DESC, event_id DESC`
	args := []any{value}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx, q+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query access_events: %w", err)
	}
	defer rows.Close()

	var out []store.AccessEventRecord
	for rows.Next() {
		var rec store.AccessEventRecord
		var occurredMs int64
		if err := rows.Scan(&rec.ID, &rec.RFID, &rec.DoorID, &rec.LockUserID,
			&occurredMs, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan access_event: %w", err)
		}
		rec.OccurredAt = msToTime(occurredMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}
