package services

import (
	"arena-tournament-service/models"
)

// Role is the caller's standing relative to one tournament. Every operation
// in the service resolves access through this one primitive so the three
// levels are derived identically everywhere.
type Role int

const (
	RoleStranger Role = iota
	RoleParticipant
	RoleHost
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleParticipant:
		return "participant"
	default:
		return "stranger"
	}
}

// ResolveRole classifies callerID against a tournament whose Participants
// slice is already loaded. A caller listed as captain or team member of any
// entry is a participant; the creator outranks everything.
func ResolveRole(t *models.Tournament, callerID string) Role {
	if t.CreatedBy == callerID {
		return RoleHost
	}
	for i := range t.Participants {
		if t.Participants[i].Covers(callerID) {
			return RoleParticipant
		}
	}
	return RoleStranger
}
