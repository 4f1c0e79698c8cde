package store

import (
	"context"
	"time"
)

type AdminRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Superuser    bool
	CreatedAt    time.Time
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, rec AdminRecord) error
	GetAdmin(ctx context.Context, adminID string) (AdminRecord, error)
	GetAdminByUsername(ctx context.Context, username string) (AdminRecord, error)
}
