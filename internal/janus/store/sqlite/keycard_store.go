package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type KeycardStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewKeycardStore(db *sql.DB, writer *dbpkg.Worker) *KeycardStore {
	return &KeycardStore{db: db, writer: writer}
}

const keycardColumns = `
keycard_id, rfid, lock_user_id, assigner_id, COALESCE(revoker_id, ''),
created_at_ms, revoked_at_ms`

func (s *KeycardStore) InsertKeycard(ctx context.Context, rec store.KeycardRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO keycards(keycard_id, rfid, lock_user_id, assigner_id, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.ID, rec.RFID, rec.LockUserID, rec.AssignerID, timeToMs(rec.CreatedAt)); err != nil {
			return fmt.Errorf("InsertKeycard: %w", err)
		}
		return nil
	})
}

// RevokeKeycard updates only while revoked_at_ms is still NULL, so a lost
// race (or a repeated call) cannot clobber the original revocation.
func (s *KeycardStore) RevokeKeycard(ctx context.Context, keycardID, revokerID string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE keycards SET revoked_at_ms = ?, revoker_id = ?
WHERE keycard_id = ? AND revoked_at_ms IS NULL;
`, timeToMs(at), revokerID, keycardID)
		if err != nil {
			return fmt.Errorf("RevokeKeycard: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 1 {
			return nil
		}

		var one int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM keycards WHERE keycard_id = ?;`, keycardID).Scan(&one)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("RevokeKeycard lookup: %w", err)
		}
		return store.ErrAlreadyRevoked
	})
}

func (s *KeycardStore) ActiveCardsFor(ctx context.Context, lockUserID string) ([]store.KeycardRecord, error) {
	return s.queryCards(ctx, `
SELECT `+keycardColumns+`
FROM keycards
WHERE lock_user_id = ? AND revoked_at_ms IS NULL
ORDER BY created_at_ms, keycard_id;
`, lockUserID)
}

func (s *KeycardStore) CardsFor(ctx context.Context, lockUserID string) ([]store.KeycardRecord, error) {
	return s.queryCards(ctx, `
SELECT `+keycardColumns+`
FROM keycards
WHERE lock_user_id = ?
ORDER BY created_at_ms DESC, keycard_id DESC;
`, lockUserID)
}

func (s *KeycardStore) ActiveCardsByRFID(ctx context.Context, rfid string) ([]store.KeycardRecord, error) {
	return s.queryCards(ctx, `
SELECT `+keycardColumns+`
FROM keycards
WHERE rfid = ? AND revoked_at_ms IS NULL
ORDER BY created_at_ms, keycard_id;
`, rfid)
}

func (s *KeycardStore) queryCards(ctx context.Context, query string, args ...any) ([]store.KeycardRecord, error) {
	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keycards: %w", err)
	}
	defer rows.Close()

	var out []store.KeycardRecord
	for rows.Next() {
		var rec store.KeycardRecord
		var createdMs int64
		var revokedMs sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.RFID, &rec.LockUserID, &rec.AssignerID,
			&rec.RevokerID, &createdMs, &revokedMs); err != nil {
			return nil, fmt.Errorf("scan keycard: %w", err)
		}
		rec.CreatedAt = msToTime(createdMs)
		rec.RevokedAt = nullMsToTime(revokedMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}
