package db

import (
	"context"
	"database/sql"
)

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

type Worker struct {
	db   *sql.DB
	jobs chan job
	done chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) Close() {
	close(w.jobs)
	<-w.done
}

type txKey struct{}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// Do runs fn inside a write transaction on the worker goroutine.
//
// Do is reentrant: if ctx already carries a transaction (from a Do or
// Atomically call higher up the stack), fn joins that transaction instead
// of enqueuing a new one. This is what lets a multi-step save span several
// store calls while still committing or rolling back as a unit.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(ctx, tx)
	}

	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	// Enqueue — bail out if the caller's context expires while the buffer is full.
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Wait for result — bail out if the caller's context expires while the
	// job is queued or executing.  The worker loop will still complete the
	// transaction; the result lands in the buffered ch and is discarded.
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Atomically runs fn with a transaction bound to its context, so every
// store call made inside fn joins the same transaction. Any error from fn
// rolls the whole unit back.
func (w *Worker) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx)
	})
}

func (w *Worker) loop() {
	defer close(w.done)

	for j := range w.jobs {
		tx, err := w.db.BeginTx(j.ctx, nil)
		if err != nil {
			j.ch <- err
			continue
		}

		if err := j.fn(context.WithValue(j.ctx, txKey{}, tx), tx); err != nil {
			_ = tx.Rollback()
			j.ch <- err
			continue
		}

		j.ch <- tx.Commit()
	}
}
