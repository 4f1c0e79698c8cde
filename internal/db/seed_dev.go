package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SeedDevOptions struct {
	// SuperuserPassword overrides the default dev password ("superuser").
	SuperuserPassword string
}

// SeedDev inserts a dev superuser and a starter door so a fresh database
// is immediately usable. Every statement is idempotent; rerunning on an
// already-seeded database changes nothing.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	password := opt.SuperuserPassword
	if password == "" {
		password = "superuser"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO admins(admin_id, username, password_hash, superuser, created_at_ms)
VALUES ('admin_dev', 'superuser', ?, 1, ?);`, string(hash), now); err != nil {
		return fmt.Errorf("seed superuser: %w", err)
	}

	// Starter door with its capability already minted.
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO doors(door_id, name, description, created_at_ms, updated_at_ms)
VALUES ('door_main', 'Main Door', 'Dev', ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed doors: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO door_capabilities(door_id, codename, minted_at_ms)
VALUES ('door_main', 'can_manage_door_door_main', ?);`, now); err != nil {
		return fmt.Errorf("seed door capability: %w", err)
	}

	return nil
}
