package store

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	ErrDuplicateDoorName = errors.New("door name already in use")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrDuplicateUsername = errors.New("username already in use")

	// ErrCapabilityExists means a second mint was attempted for a door that
	// already has its management capability. Capabilities are minted exactly
	// once, at door creation.
	ErrCapabilityExists = errors.New("capability already minted for door")

	// ErrAlreadyRevoked means a revocation would have clobbered an earlier
	// one. The original revoker and timestamp are preserved.
	ErrAlreadyRevoked = errors.New("keycard already revoked")
)
