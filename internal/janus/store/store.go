package store

import "context"

// Atomic runs fn so that every store call made inside it belongs to one
// all-or-nothing unit. The sqlite implementation binds a write transaction
// to fn's context; the memory implementation serializes units behind a
// lock. The lock-user save sequence depends on this: a card must never be
// issued without its triggering session consumed, nor the reverse.
type Atomic interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}
