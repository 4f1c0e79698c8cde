package httpapi

import (
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
	"github.com/openmakerlabs/janus/internal/janus/types"
)

func doorToResponse(d store.DoorRecord) types.DoorResponse {
	return types.DoorResponse{
		DoorID:      d.ID,
		Name:        d.Name,
		Description: d.Description,
	}
}

func keycardToView(c store.KeycardRecord) types.KeycardView {
	v := types.KeycardView{
		KeycardID:  c.ID,
		RFID:       c.RFID,
		AssignerID: c.AssignerID,
		RevokerID:  c.RevokerID,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		Active:     c.Active(),
	}
	if c.RevokedAt != nil {
		v.RevokedAt = c.RevokedAt.Format(time.RFC3339)
	}
	return v
}

func sessionToResponse(s store.ScanSessionRecord) types.ScanSessionResponse {
	return types.ScanSessionResponse{
		SessionID:   s.ID,
		DoorID:      s.DoorID,
		InitiatedAt: s.InitiatedAt.Format(time.RFC3339),
		Waiting:     s.Waiting,
	}
}

func eventToView(e store.AccessEventRecord) types.AccessEventView {
	return types.AccessEventView{
		EventID:    e.ID,
		RFID:       e.RFID,
		DoorID:     e.DoorID,
		LockUserID: e.LockUserID,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
		Payload:    e.Payload,
	}
}

func eventsToViews(events []store.AccessEventRecord) []types.AccessEventView {
	out := make([]types.AccessEventView, len(events))
	for i, e := range events {
		out[i] = eventToView(e)
	}
	return out
}

// lockUserToResponse assembles the full lock-user view. current and
// history may be nil/empty for the list endpoint's lighter payload.
func lockUserToResponse(rec store.LockUserRecord, doorIDs []string,
	current *store.KeycardRecord, history []store.KeycardRecord) types.LockUserResponse {
	resp := types.LockUserResponse{
		LockUserID: rec.ID,
		FirstName:  rec.FirstName,
		MiddleName: rec.MiddleName,
		LastName:   rec.LastName,
		Address:    rec.Address,
		Email:      rec.Email,
		Phone:      rec.Phone,
		Birthdate:  rec.Birthdate,
		DoorIDs:    doorIDs,
	}
	if current != nil {
		v := keycardToView(*current)
		resp.Current = &v
		resp.Active = true
	}
	for _, c := range history {
		resp.History = append(resp.History, keycardToView(c))
	}
	return resp
}

func lockUserFromRequest(req types.LockUserRequest) store.LockUserRecord {
	return store.LockUserRecord{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Address:    req.Address,
		Email:      req.Email,
		Phone:      req.Phone,
		Birthdate:  req.Birthdate,
	}
}
