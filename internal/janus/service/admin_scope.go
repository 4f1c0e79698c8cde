package service

import (
	"context"
	"strings"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

// AdminScope computes what an administrator is allowed to touch: the doors
// they manage, and the doors a lock user holds that are outside their
// authority. Superusers manage everything.
type AdminScope struct {
	doors store.DoorStore
	caps  store.CapabilityStore
	users store.LockUserStore
}

func NewAdminScope(doors store.DoorStore, caps store.CapabilityStore, users store.LockUserStore) *AdminScope {
	return &AdminScope{doors: doors, caps: caps, users: users}
}

// HasCapability reports whether the administrator holds the management
// capability for a door. Superusers hold every capability implicitly.
func (s *AdminScope) HasCapability(ctx context.Context, admin store.AdminRecord, doorID string) (bool, error) {
	if admin.Superuser {
		return true, nil
	}
	return s.caps.AdminHolds(ctx, admin.ID, doorID)
}

// ManageableDoors returns every door the administrator may manage.
func (s *AdminScope) ManageableDoors(ctx context.Context, admin store.AdminRecord) ([]store.DoorRecord, error) {
	all, err := s.doors.ListDoors(ctx)
	if err != nil {
		return nil, err
	}
	if admin.Superuser {
		return all, nil
	}

	var out []store.DoorRecord
	for _, d := range all {
		held, err := s.caps.AdminHolds(ctx, admin.ID, d.ID)
		if err != nil {
			return nil, err
		}
		if held {
			out = append(out, d)
		}
	}
	return out, nil
}

// OutOfScopeDoors returns the doors the lock user is granted that the
// administrator does NOT manage. Empty for superusers.
func (s *AdminScope) OutOfScopeDoors(ctx context.Context, lockUserID string, admin store.AdminRecord) ([]store.DoorRecord, error) {
	if admin.Superuser {
		return nil, nil
	}

	grantIDs, err := s.users.DoorGrants(ctx, lockUserID)
	if err != nil {
		return nil, err
	}

	var out []store.DoorRecord
	for _, doorID := range grantIDs {
		held, err := s.caps.AdminHolds(ctx, admin.ID, doorID)
		if err != nil {
			return nil, err
		}
		if held {
			continue
		}
		door, err := s.doors.GetDoor(ctx, doorID)
		if err != nil {
			return nil, err
		}
		out = append(out, door)
	}
	return out, nil
}

// Proposal is an administrator's submitted edit to a lock user's grants.
type Proposal struct {
	DoorIDs    []string
	Deactivate bool
}

// ReviewedProposal is the corrected edit plus an optional operator note.
type ReviewedProposal struct {
	DoorIDs    []string
	Deactivate bool
	Note       string
}

// ReviewProposal applies the scoping policy to a submitted edit:
//
//   - doors out of the administrator's scope are always retained in the
//     grant set (unchecking a door you cannot manage must not revoke it)
//   - a requested deactivation is overridden while out-of-scope doors
//     exist, because the card must stay active for those doors; the note
//     explains the override
//
// Pure function of its inputs; no store access, no side effects.
func ReviewProposal(p Proposal, outOfScope []store.DoorRecord) ReviewedProposal {
	out := ReviewedProposal{DoorIDs: p.DoorIDs, Deactivate: p.Deactivate}
	if len(outOfScope) == 0 {
		return out
	}

	seen := make(map[string]struct{}, len(p.DoorIDs))
	for _, id := range p.DoorIDs {
		seen[id] = struct{}{}
	}
	for _, d := range outOfScope {
		if _, ok := seen[d.ID]; !ok {
			out.DoorIDs = append(out.DoorIDs, d.ID)
			seen[d.ID] = struct{}{}
		}
	}

	if p.Deactivate {
		names := make([]string, len(outOfScope))
		for i, d := range outOfScope {
			names[i] = d.Name
		}
		out.Deactivate = false
		out.Note = "keycard was not deactivated because you do not have permission to manage " +
			strings.Join(names, ", ")
	}
	return out
}
