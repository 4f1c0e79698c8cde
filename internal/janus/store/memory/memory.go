// Package memory provides in-memory store implementations intended for
// tests and dev environments.
package memory

import (
	"context"
	"sync"
)

// Runner satisfies store.Atomic. It serializes units of work behind a
// single lock; it does not simulate rollback, which is acceptable for the
// tests and dev servers it backs.
type Runner struct {
	mu sync.Mutex
}

func NewRunner() *Runner {
	return &Runner{}
}

type unitKey struct{}

// Atomically runs fn holding the runner's lock. Re-entrant: a nested call
// inside an open unit runs fn directly.
func (r *Runner) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(unitKey{}) != nil {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(context.WithValue(ctx, unitKey{}, struct{}{}))
}
