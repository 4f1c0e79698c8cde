package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type LockUserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLockUserStore(db *sql.DB, writer *dbpkg.Worker) *LockUserStore {
	return &LockUserStore{db: db, writer: writer}
}

const lockUserColumns = `
lock_user_id, first_name, middle_name, last_name, address, email, phone,
COALESCE(birthdate, ''), deactivate_keycard, COALESCE(keycard_revoker_id, ''),
created_at_ms, updated_at_ms`

func (s *LockUserStore) CreateLockUser(ctx context.Context, rec store.LockUserRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO lock_users(
  lock_user_id, first_name, middle_name, last_name, address, email, phone,
  birthdate, deactivate_keycard, keycard_revoker_id, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, rec.ID, rec.FirstName, rec.MiddleName, rec.LastName, rec.Address, rec.Email,
			rec.Phone, nullIfEmpty(rec.Birthdate), boolToInt(rec.DeactivateKeycard),
			nullIfEmpty(rec.KeycardRevokerID), timeToMs(rec.CreatedAt), timeToMs(rec.UpdatedAt))
		if isUniqueViolation(err, "lock_users.email") {
			return store.ErrDuplicateEmail
		}
		if err != nil {
			return fmt.Errorf("CreateLockUser insert: %w", err)
		}
		return nil
	})
}

func (s *LockUserStore) UpdateLockUser(ctx context.Context, rec store.LockUserRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE lock_users SET
  first_name = ?, middle_name = ?, last_name = ?, address = ?, email = ?,
  phone = ?, birthdate = ?, deactivate_keycard = ?, keycard_revoker_id = ?,
  updated_at_ms = ?
WHERE lock_user_id = ?;
`, rec.FirstName, rec.MiddleName, rec.LastName, rec.Address, rec.Email,
			rec.Phone, nullIfEmpty(rec.Birthdate), boolToInt(rec.DeactivateKeycard),
			nullIfEmpty(rec.KeycardRevokerID), timeToMs(rec.UpdatedAt), rec.ID)
		if isUniqueViolation(err, "lock_users.email") {
			return store.ErrDuplicateEmail
		}
		if err != nil {
			return fmt.Errorf("UpdateLockUser: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *LockUserStore) GetLockUser(ctx context.Context, lockUserID string) (store.LockUserRecord, error) {
	row := dbpkg.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+lockUserColumns+` FROM lock_users WHERE lock_user_id = ?;`, lockUserID)
	rec, err := scanLockUser(row.Scan)
	if err == sql.ErrNoRows {
		return store.LockUserRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.LockUserRecord{}, fmt.Errorf("GetLockUser: %w", err)
	}
	return rec, nil
}

func (s *LockUserStore) ListLockUsers(ctx context.Context) ([]store.LockUserRecord, error) {
	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+lockUserColumns+` FROM lock_users ORDER BY created_at_ms, lock_user_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListLockUsers: %w", err)
	}
	defer rows.Close()

	var out []store.LockUserRecord
	for rows.Next() {
		rec, err := scanLockUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ListLockUsers scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *LockUserStore) SetDoorGrants(ctx context.Context, lockUserID string, doorIDs []string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Drop grants that are no longer proposed; surviving rows keep their
		// rowid, which preserves insertion order.
		args := make([]any, 0, len(doorIDs)+1)
		args = append(args, lockUserID)
		q := `DELETE FROM lock_user_doors WHERE lock_user_id = ?`
		if len(doorIDs) > 0 {
			q += ` AND door_id NOT IN (` + placeholders(len(doorIDs)) + `)`
			for _, id := range doorIDs {
				args = append(args, id)
			}
		}
		if _, err := tx.ExecContext(ctx, q+`;`, args...); err != nil {
			return fmt.Errorf("SetDoorGrants delete: %w", err)
		}

		for _, doorID := range doorIDs {
			if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO lock_user_doors(lock_user_id, door_id, granted_at_ms)
VALUES (?, ?, ?);
`, lockUserID, doorID, timeToMs(at)); err != nil {
				return fmt.Errorf("SetDoorGrants insert %s: %w", doorID, err)
			}
		}
		return nil
	})
}

func (s *LockUserStore) DoorGrants(ctx context.Context, lockUserID string) ([]string, error) {
	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx, `
SELECT door_id FROM lock_user_doors WHERE lock_user_id = ? ORDER BY rowid;
`, lockUserID)
	if err != nil {
		return nil, fmt.Errorf("DoorGrants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DoorGrants scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *LockUserStore) HasDoorGrant(ctx context.Context, lockUserID, doorID string) (bool, error) {
	var one int
	err := dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT 1 FROM lock_user_doors WHERE lock_user_id = ? AND door_id = ?;
`, lockUserID, doorID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("HasDoorGrant: %w", err)
	}
	return true, nil
}

func (s *LockUserStore) UsersGrantedDoor(ctx context.Context, doorID string) ([]store.LockUserRecord, error) {
	rows, err := dbpkg.Q(ctx, s.db).QueryContext(ctx, `
SELECT `+lockUserColumns+`
FROM lock_users
JOIN lock_user_doors USING (lock_user_id)
WHERE lock_user_doors.door_id = ?
ORDER BY lock_user_doors.rowid;
`, doorID)
	if err != nil {
		return nil, fmt.Errorf("UsersGrantedDoor: %w", err)
	}
	defer rows.Close()

	var out []store.LockUserRecord
	for rows.Next() {
		rec, err := scanLockUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("UsersGrantedDoor scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanLockUser(scan func(dest ...any) error) (store.LockUserRecord, error) {
	var rec store.LockUserRecord
	var deactivate int
	var createdMs, updatedMs int64

	err := scan(&rec.ID, &rec.FirstName, &rec.MiddleName, &rec.LastName,
		&rec.Address, &rec.Email, &rec.Phone, &rec.Birthdate, &deactivate,
		&rec.KeycardRevokerID, &createdMs, &updatedMs)
	if err != nil {
		return store.LockUserRecord{}, err
	}
	rec.DeactivateKeycard = deactivate == 1
	rec.CreatedAt = msToTime(createdMs)
	rec.UpdatedAt = msToTime(updatedMs)
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
