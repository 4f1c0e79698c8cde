package types

// ScanRequest is what a door reader reports: which door saw which RFID
// code. Payload is opaque reader data carried into the audit log.
type ScanRequest struct {
	DoorID  string `json:"door_id"`
	RFID    string `json:"rfid"`
	Payload string `json:"payload,omitempty"`
}

type ScanResponse struct {
	OK         bool   `json:"ok"`
	Granted    bool   `json:"granted"`
	Outcome    string `json:"outcome"` // "assignment_pending" | "granted" | "denied"
	Reason     string `json:"reason,omitempty"`
	DoorID     string `json:"door_id"`
	ServerTime string `json:"server_time"`
}
