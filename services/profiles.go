package services

import (
	"errors"
	"fmt"

	"arena-tournament-service/models"

	"gorm.io/gorm"
)

// ProfileStore answers the one question the tournament core asks about the
// eligibility collaborator: does this user hold an esports profile, and if
// so under which proof reference.
type ProfileStore interface {
	// HasProfile returns the profile id for userID, or "" when none exists.
	HasProfile(userID string) (string, error)
}

// GormProfileStore reads the local esports_profiles mirror kept fresh by the
// profile sync worker.
type GormProfileStore struct {
	DB *gorm.DB
}

var _ ProfileStore = (*GormProfileStore)(nil)

func (s *GormProfileStore) HasProfile(userID string) (string, error) {
	var profile models.EsportsProfile
	err := s.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("profile lookup for %s: %w", userID, err)
	}
	return profile.ID, nil
}
