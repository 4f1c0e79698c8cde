package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	dbpkg "github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/janus/store"
)

type AdminStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAdminStore(db *sql.DB, writer *dbpkg.Worker) *AdminStore {
	return &AdminStore{db: db, writer: writer}
}

func (s *AdminStore) CreateAdmin(ctx context.Context, rec store.AdminRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var superuser int
		if rec.Superuser {
			superuser = 1
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO admins(admin_id, username, password_hash, superuser, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.ID, rec.Username, rec.PasswordHash, superuser, timeToMs(rec.CreatedAt))
		if isUniqueViolation(err, "admins.username") {
			return store.ErrDuplicateUsername
		}
		if err != nil {
			return fmt.Errorf("CreateAdmin insert: %w", err)
		}
		return nil
	})
}

func (s *AdminStore) GetAdmin(ctx context.Context, adminID string) (store.AdminRecord, error) {
	return s.scanAdmin(dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT admin_id, username, password_hash, superuser, created_at_ms
FROM admins WHERE admin_id = ?;
`, adminID))
}

func (s *AdminStore) GetAdminByUsername(ctx context.Context, username string) (store.AdminRecord, error) {
	return s.scanAdmin(dbpkg.Q(ctx, s.db).QueryRowContext(ctx, `
SELECT admin_id, username, password_hash, superuser, created_at_ms
FROM admins WHERE username = ?;
`, username))
}

func (s *AdminStore) scanAdmin(row *sql.Row) (store.AdminRecord, error) {
	var rec store.AdminRecord
	var superuser int
	var createdMs int64

	err := row.Scan(&rec.ID, &rec.Username, &rec.PasswordHash, &superuser, &createdMs)
	if err == sql.ErrNoRows {
		return store.AdminRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AdminRecord{}, fmt.Errorf("scan admin: %w", err)
	}
	rec.Superuser = superuser == 1
	rec.CreatedAt = msToTime(createdMs)
	return rec, nil
}
