package services

import (
	"time"

	"arena-tournament-service/models"
)

// RevealWindow is how long before start time participants may see the room
// credentials when the host has not forced visibility.
const RevealWindow = 5 * time.Minute

// CheckCredentialAccess decides whether a caller with the given role may read
// the room credentials at instant now. The host always may; strangers never
// may; participants are gated by the privacy flag, the reveal window and the
// Ongoing state, in that order.
func CheckCredentialAccess(t *models.Tournament, role Role, now time.Time) *AppError {
	switch role {
	case RoleHost:
		return nil
	case RoleParticipant:
		if !t.CredentialsPrivate {
			return nil
		}
		if t.Status == models.StatusOngoing {
			return nil
		}
		if t.StartDate.Sub(now) <= RevealWindow {
			return nil
		}
		return appErr(KindForbidden, "credentials are not visible yet; they are revealed 5 minutes before start")
	default:
		return appErr(KindForbidden, "only the host and registered participants can view credentials")
	}
}
