package types

// LockUserRequest is the admin-submitted lock-user edit. Deactivate is the
// transient "revoke the current keycard" instruction; it is subject to the
// scoping review before the save runs.
type LockUserRequest struct {
	FirstName  string   `json:"first_name"`
	MiddleName string   `json:"middle_name,omitempty"`
	LastName   string   `json:"last_name"`
	Address    string   `json:"address,omitempty"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Birthdate  string   `json:"birthdate,omitempty"` // "YYYY-MM-DD"
	DoorIDs    []string `json:"door_ids"`
	Deactivate bool     `json:"deactivate_current_keycard"`
}

type LockUserResponse struct {
	LockUserID string        `json:"lock_user_id"`
	FirstName  string        `json:"first_name"`
	MiddleName string        `json:"middle_name,omitempty"`
	LastName   string        `json:"last_name"`
	Address    string        `json:"address,omitempty"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	Birthdate  string        `json:"birthdate,omitempty"`
	DoorIDs    []string      `json:"door_ids"`
	Active     bool          `json:"active"`
	Current    *KeycardView  `json:"current_keycard,omitempty"`
	History    []KeycardView `json:"keycard_history,omitempty"`
	LastAccess string        `json:"last_access,omitempty"`
	Note       string        `json:"note,omitempty"`
}

type KeycardView struct {
	KeycardID  string `json:"keycard_id"`
	RFID       string `json:"rfid"`
	AssignerID string `json:"assigner_id"`
	RevokerID  string `json:"revoker_id,omitempty"`
	CreatedAt  string `json:"created_at"`
	RevokedAt  string `json:"revoked_at,omitempty"`
	Active     bool   `json:"active"`
}

type AccessEventView struct {
	EventID    int64  `json:"event_id"`
	RFID       string `json:"rfid"`
	DoorID     string `json:"door_id"`
	LockUserID string `json:"lock_user_id"`
	OccurredAt string `json:"occurred_at"`
	Payload    string `json:"payload,omitempty"`
}
