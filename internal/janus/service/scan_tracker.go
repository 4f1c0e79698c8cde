package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// DefaultScanTimeout is how long an assignment session stays valid after
// the administrator initiates it.
const DefaultScanTimeout = 2 * time.Minute

// ScanTracker manages the short-lived state between "administrator clicked
// assign new keycard" and "reader reported a scan". Expiry is computed
// lazily against stored timestamps; nothing is scheduled.
type ScanTracker struct {
	sessions store.ScanSessionStore
	atomic   store.Atomic
	timeout  time.Duration
	clock    Clock
}

func NewScanTracker(sessions store.ScanSessionStore, atomic store.Atomic, timeout time.Duration, clock Clock) *ScanTracker {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	return &ScanTracker{sessions: sessions, atomic: atomic, timeout: timeout, clock: orUTC(clock)}
}

// Begin opens an assignment session for a door: the next scan the reader
// reports for that door is treated as a new card, not an access attempt.
func (t *ScanTracker) Begin(ctx context.Context, doorID, assignerID string) (store.ScanSessionRecord, error) {
	rec := store.ScanSessionRecord{
		ID:          uuid.NewString(),
		DoorID:      doorID,
		AssignerID:  assignerID,
		InitiatedAt: t.clock(),
		Waiting:     true,
	}
	if err := t.sessions.InsertSession(ctx, rec); err != nil {
		return store.ScanSessionRecord{}, err
	}
	return rec, nil
}

// RecordScan attaches the scanned RFID to the door's most recent session.
// Fails with ErrNoPendingSession when no session exists (or it was already
// resolved), and with *SessionExpiredError when the session timed out.
func (t *ScanTracker) RecordScan(ctx context.Context, doorID, rfid string) error {
	return t.atomic.Atomically(ctx, func(ctx context.Context) error {
		sess, err := t.sessions.LatestForDoor(ctx, doorID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPendingSession
		}
		if err != nil {
			return err
		}

		if expired, elapsed := t.TimedOut(sess); expired {
			return &SessionExpiredError{ElapsedMinutes: elapsed}
		}
		if !sess.Waiting {
			return ErrNoPendingSession
		}

		ok, err := t.sessions.MarkReady(ctx, sess.ID, rfid)
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race with another resolution of the same session.
			return ErrNoPendingSession
		}
		return nil
	})
}

// ConsumeReady returns the assigner's latest ready, unexpired session and
// clears its ready flag in the same operation, or nil when there is
// nothing to consume. A session can be consumed exactly once.
func (t *ScanTracker) ConsumeReady(ctx context.Context, assignerID string) (*store.ScanSessionRecord, error) {
	notBefore := t.clock().Add(-t.timeout)
	rec, ok, err := t.sessions.ConsumeReadyForAssigner(ctx, assignerID, notBefore)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// TimedOut reports whether the session's timeout has elapsed, plus the
// elapsed minutes rounded to two decimals for operator messages.
func (t *ScanTracker) TimedOut(sess store.ScanSessionRecord) (bool, float64) {
	elapsed := t.clock().Sub(sess.InitiatedAt)
	minutes := math.Round(elapsed.Minutes()*100) / 100
	return elapsed > t.timeout, minutes
}

// Timeout exposes the configured session timeout.
func (t *ScanTracker) Timeout() time.Duration { return t.timeout }
