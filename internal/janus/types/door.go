package types

type DoorRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type DoorResponse struct {
	DoorID      string `json:"door_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AllowedRFIDsResponse struct {
	DoorID string   `json:"door_id"`
	RFIDs  []string `json:"rfids"`
}

type ScanSessionResponse struct {
	SessionID   string `json:"session_id"`
	DoorID      string `json:"door_id"`
	InitiatedAt string `json:"initiated_at"`
	Waiting     bool   `json:"waiting"`
}
