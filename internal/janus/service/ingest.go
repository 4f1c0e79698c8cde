package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// Scan outcomes reported back to the reader.
const (
	OutcomeAssignmentPending = "assignment_pending"
	OutcomeGranted           = "granted"
	OutcomeDenied            = "denied"
)

// ScanResult is the ingestion verdict for one reported scan.
type ScanResult struct {
	Outcome    string
	Granted    bool
	Reason     string
	LockUserID string // set when access was granted
}

// Ingest handles scans reported by door readers. Every scan is first
// offered to the door's pending assignment session; only when no session
// claims it does the scan fall through to access authorization.
type Ingest struct {
	doors   store.DoorStore
	users   store.LockUserStore
	cards   store.KeycardStore
	events  store.AccessEventStore
	tracker *ScanTracker
	clock   Clock
	logger  *log.Logger
}

func NewIngest(doors store.DoorStore, users store.LockUserStore, cards store.KeycardStore,
	events store.AccessEventStore, tracker *ScanTracker, clock Clock, logger *log.Logger) *Ingest {
	return &Ingest{
		doors:   doors,
		users:   users,
		cards:   cards,
		events:  events,
		tracker: tracker,
		clock:   orUTC(clock),
		logger:  logger,
	}
}

// HandleScan resolves a reader report for a door. The precedence is fixed:
// a waiting assignment session captures the RFID and short-circuits
// authorization, an expired session is discarded and the scan is treated
// as an ordinary access attempt.
func (s *Ingest) HandleScan(ctx context.Context, doorID, rfid, payload string) (ScanResult, error) {
	rfid = strings.TrimSpace(rfid)
	if rfid == "" {
		return ScanResult{}, ErrInvalidRFID
	}

	if _, err := s.doors.GetDoor(ctx, doorID); err != nil {
		return ScanResult{}, err
	}

	err := s.tracker.RecordScan(ctx, doorID, rfid)
	switch {
	case err == nil:
		return ScanResult{Outcome: OutcomeAssignmentPending}, nil
	case errors.Is(err, ErrNoPendingSession):
		// Fall through to authorization.
	default:
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			if s.logger != nil {
				s.logger.Printf("scan session for door %s expired after %.2f minutes, treating scan as access attempt", doorID, expired.ElapsedMinutes)
			}
			break
		}
		return ScanResult{}, err
	}

	return s.authorize(ctx, doorID, rfid, payload)
}

// EventsForLockUser returns the lock user's granted-entry history,
// newest-first, capped at limit (limit <= 0 means no cap).
func (s *Ingest) EventsForLockUser(ctx context.Context, lockUserID string, limit int) ([]store.AccessEventRecord, error) {
	return s.events.EventsForLockUser(ctx, lockUserID, limit)
}

// EventsForDoor returns the door's granted-entry history, newest-first.
func (s *Ingest) EventsForDoor(ctx context.Context, doorID string, limit int) ([]store.AccessEventRecord, error) {
	return s.events.EventsForDoor(ctx, doorID, limit)
}

// authorize grants access when some lock user holds an active card with
// this RFID and is granted this door. Only granted scans are logged;
// denials leave no event.
func (s *Ingest) authorize(ctx context.Context, doorID, rfid, payload string) (ScanResult, error) {
	cards, err := s.cards.ActiveCardsByRFID(ctx, rfid)
	if err != nil {
		return ScanResult{}, err
	}
	if len(cards) == 0 {
		return ScanResult{Outcome: OutcomeDenied, Reason: "no active keycard for rfid"}, nil
	}

	for _, card := range cards {
		granted, err := s.users.HasDoorGrant(ctx, card.LockUserID, doorID)
		if err != nil {
			return ScanResult{}, err
		}
		if !granted {
			continue
		}

		ev := store.AccessEventRecord{
			RFID:       rfid,
			DoorID:     doorID,
			LockUserID: card.LockUserID,
			OccurredAt: s.clock(),
			Payload:    payload,
		}
		if err := s.events.RecordEvent(ctx, ev); err != nil {
			return ScanResult{}, err
		}
		return ScanResult{Outcome: OutcomeGranted, Granted: true, LockUserID: card.LockUserID}, nil
	}

	return ScanResult{Outcome: OutcomeDenied, Reason: "door not granted"}, nil
}
