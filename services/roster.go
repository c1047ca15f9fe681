package services

import (
	"fmt"
	"log"

	"arena-tournament-service/models"

	"github.com/google/uuid"
)

// Join registers callerID (plus optional team members) for a tournament.
// The read-validate-append sequence runs under the tournament's single-writer
// lock, so two concurrent joins can never both observe the last free slot.
func (s *TournamentService) Join(tournamentID, callerID string, teamName string, teamMembers []string) ([]models.Participant, error) {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}

	profileID, err := s.Profiles.HasProfile(callerID)
	if err != nil {
		return nil, err
	}

	req := JoinRequest{
		CallerID:    callerID,
		ProfileID:   profileID,
		TeamName:    teamName,
		TeamMembers: teamMembers,
	}
	if gerr := CheckJoin(t, req); gerr != nil {
		return nil, gerr
	}

	entry := models.Participant{
		ID:               uuid.NewString(),
		TournamentID:     t.ID,
		UserID:           callerID,
		EsportsProfileID: profileID,
		TeamName:         teamName,
		TeamMembers:      teamMembers,
		Status:           models.ParticipantRegistered,
		JoinedAt:         s.Clock.Now(),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append participant to %s: %w", tournamentID, err)
	}

	roster := append(t.Participants, entry)
	s.Events.Publish(Event{
		TournamentID: t.ID,
		Type:         EventRosterChanged,
		Status:       t.Status,
		RosterSize:   len(roster),
		At:           s.Clock.Now(),
	})
	log.Printf("[ROSTER] %s joined %s (%d/%d)", callerID, t.ID, len(roster), t.MaxParticipants)
	return roster, nil
}

// Kick removes the participant entry captained by targetUserID, team members
// included. Host only. Capacity freed here is only visible to joins that run
// afterwards; nothing is replayed for callers already rejected.
func (s *TournamentService) Kick(tournamentID, callerID, targetUserID string) ([]models.Participant, error) {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}
	if ResolveRole(t, callerID) != RoleHost {
		return nil, appErr(KindForbidden, "only the host can remove participants")
	}

	var target *models.Participant
	for i := range t.Participants {
		if t.Participants[i].UserID == targetUserID {
			target = &t.Participants[i]
			break
		}
	}
	if target == nil {
		return nil, appErr(KindNotFound, "user %s is not registered for this tournament", targetUserID)
	}

	if err := s.DB.Delete(&models.Participant{}, "id = ?", target.ID).Error; err != nil {
		return nil, fmt.Errorf("remove participant %s from %s: %w", target.ID, tournamentID, err)
	}

	roster := make([]models.Participant, 0, len(t.Participants)-1)
	for _, p := range t.Participants {
		if p.ID != target.ID {
			roster = append(roster, p)
		}
	}
	s.Events.Publish(Event{
		TournamentID: t.ID,
		Type:         EventRosterChanged,
		Status:       t.Status,
		RosterSize:   len(roster),
		At:           s.Clock.Now(),
	})
	log.Printf("[ROSTER] host %s kicked %s from %s", callerID, targetUserID, t.ID)
	return roster, nil
}
