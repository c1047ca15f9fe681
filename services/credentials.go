package services

import (
	"fmt"
	"log"

	"arena-tournament-service/models"
)

// GetCredentials runs the disclosure policy and, when it authorizes the
// caller, returns the stored room credentials. Denials never distinguish
// "not a participant" from "too early" beyond the message text; both are
// Forbidden.
func (s *TournamentService) GetCredentials(tournamentID, callerID string) (*models.Credentials, error) {
	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}

	role := ResolveRole(t, callerID)
	if aerr := CheckCredentialAccess(t, role, s.Clock.Now()); aerr != nil {
		return nil, aerr
	}

	return &models.Credentials{
		RoomID:    t.RoomID,
		Password:  t.RoomPassword,
		IsPrivate: t.CredentialsPrivate,
	}, nil
}

type UpdateCredentialsRequest struct {
	RoomID    *string `json:"room_id"`
	Password  *string `json:"password"`
	IsPrivate *bool   `json:"is_private"`
}

// SetCredentials is a host-only partial update of the vault. Only fields
// present in the request are overwritten; an explicit empty string is a
// valid "unset".
func (s *TournamentService) SetCredentials(tournamentID, callerID string, req UpdateCredentialsRequest) (*models.Credentials, error) {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}
	if ResolveRole(t, callerID) != RoleHost {
		return nil, appErr(KindForbidden, "only the host can update credentials")
	}

	updates := map[string]interface{}{}
	if req.RoomID != nil {
		t.RoomID = *req.RoomID
		updates["room_id"] = *req.RoomID
	}
	if req.Password != nil {
		t.RoomPassword = *req.Password
		updates["room_password"] = *req.Password
	}
	if req.IsPrivate != nil {
		t.CredentialsPrivate = *req.IsPrivate
		updates["credentials_private"] = *req.IsPrivate
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&models.Tournament{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update credentials of %s: %w", tournamentID, err)
		}
		log.Printf("[VAULT] credentials of %s updated by host", t.ID)
	}

	return &models.Credentials{
		RoomID:    t.RoomID,
		Password:  t.RoomPassword,
		IsPrivate: t.CredentialsPrivate,
	}, nil
}
