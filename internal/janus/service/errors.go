package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDoorName   = errors.New("door name is required")
	ErrInvalidDoorID     = errors.New("door_id is required")
	ErrInvalidRFID       = errors.New("rfid is required")
	ErrInvalidEmail      = errors.New("email is required")
	ErrInvalidName       = errors.New("first and last name are required")
	ErrInvalidUsername   = errors.New("username is required")
	ErrInvalidPassword   = errors.New("password is required")
	ErrBadCredentials    = errors.New("invalid username or password")
	ErrNotSuperuser      = errors.New("superuser privileges required")
	ErrDoorNotManageable = errors.New("administrator does not manage this door")

	// ErrNoPendingSession means a scan arrived with no assignment session
	// waiting for it, or the latest session was already resolved.
	ErrNoPendingSession = errors.New("no pending scan session")
)

// SessionExpiredError reports a scan that arrived after the assignment
// session's timeout. ElapsedMinutes is rounded to two decimals for
// operator feedback.
type SessionExpiredError struct {
	ElapsedMinutes float64
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("scan session expired (%.2f minutes elapsed)", e.ElapsedMinutes)
}

// IntegrityError reports an invariant breach found in stored data, such as
// a lock user holding more than one unrevoked keycard. The operation that
// detects it halts rather than proceeding with ambiguous state.
type IntegrityError struct {
	LockUserID  string
	ActiveCards int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation: lock user %s has %d active keycards",
		e.LockUserID, e.ActiveCards)
}
