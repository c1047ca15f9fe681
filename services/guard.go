package services

import (
	"arena-tournament-service/models"
)

// JoinRequest carries everything a join decision needs besides the roster
// snapshot itself. ProfileID is the eligibility proof resolved before the
// guard runs; an empty value means the caller holds no esports profile.
type JoinRequest struct {
	CallerID    string
	ProfileID   string
	TeamName    string
	TeamMembers []string
}

// CheckJoin is the registration guard: pure validation of one join request
// against one consistent snapshot of the tournament and its roster. Order
// matters and is part of the contract: precondition, then duplicate, then
// capacity. Callers must hold the tournament's write lock so the snapshot
// stays authoritative until the append lands.
func CheckJoin(t *models.Tournament, req JoinRequest) *AppError {
	if req.ProfileID == "" {
		return appErr(KindPreconditionFailed, "you must have an esports profile to join tournaments")
	}

	if len(req.TeamMembers) > t.TeamSize-1 {
		return appErr(KindValidation, "team entry has %d members beyond the captain but team size is %d", len(req.TeamMembers), t.TeamSize)
	}
	seen := map[string]bool{req.CallerID: true}
	for _, m := range req.TeamMembers {
		if m == "" {
			return appErr(KindValidation, "team member id cannot be empty")
		}
		if seen[m] {
			return appErr(KindValidation, "duplicate user %s in team entry", m)
		}
		seen[m] = true
	}

	for i := range t.Participants {
		p := &t.Participants[i]
		if p.Covers(req.CallerID) {
			return appErr(KindConflict, "you are already registered for this tournament")
		}
		for _, m := range req.TeamMembers {
			if p.Covers(m) {
				return appErr(KindConflict, "user %s is already registered for this tournament", m)
			}
		}
	}

	if len(t.Participants) >= t.MaxParticipants {
		return appErr(KindFull, "tournament is full")
	}

	return nil
}
