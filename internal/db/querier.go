package db

import (
	"context"
	"database/sql"
)

// Querier is the read/write surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Q returns the transaction bound to ctx when one is open, else fallback.
// Store reads must go through this: the server runs SQLite on a single
// connection, and a read issued outside an open transaction would wait
// forever for the connection that transaction holds.
func Q(ctx context.Context, fallback *sql.DB) Querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}
