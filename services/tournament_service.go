package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"arena-tournament-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// TournamentService owns the tournament aggregate: lifecycle transitions,
// the roster, and the credential vault. Every operation takes the caller id
// explicitly; there is no ambient session. The clock is injected so the
// reveal-window decision is deterministic under test.
type TournamentService struct {
	DB       *gorm.DB
	Clock    clockwork.Clock
	Profiles ProfileStore
	Events   *Broadcaster

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTournamentService(db *gorm.DB, clock clockwork.Clock, profiles ProfileStore, events *Broadcaster) *TournamentService {
	return &TournamentService{
		DB:       db,
		Clock:    clock,
		Profiles: profiles,
		Events:   events,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the single-writer lock for one tournament. All mutations
// of the same aggregate serialize through it; tournaments never share a
// lock, so throughput scales across tournaments.
func (s *TournamentService) lockFor(tournamentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tournamentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tournamentID] = l
	}
	return l
}

func (s *TournamentService) releaseLock(tournamentID string) {
	s.mu.Lock()
	delete(s.locks, tournamentID)
	s.mu.Unlock()
}

// fetch loads a tournament with its roster in registration order.
func (s *TournamentService) fetch(tournamentID string) (*models.Tournament, error) {
	var t models.Tournament
	err := s.DB.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC, id ASC")
	}).First(&t, "id = ?", tournamentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErr(KindNotFound, "tournament not found")
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tournament %s: %w", tournamentID, err)
	}
	return &t, nil
}

type CreateTournamentRequest struct {
	Name            string    `json:"name"`
	GameTitle       string    `json:"game_title"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date"`
	Region          string    `json:"region"`
	Platform        string    `json:"platform"`
	EntryFee        float64   `json:"entry_fee"`
	PrizePool       string    `json:"prize_pool"`
	BracketType     string    `json:"bracket_type"`
	Rules           []string  `json:"rules"`
	MaxParticipants int       `json:"max_participants"`
	TeamSize        int       `json:"team_size"`
}

// Create validates the request and inserts a new tournament owned by
// callerID. The caller must already hold an esports profile.
func (s *TournamentService) Create(callerID string, req CreateTournamentRequest) (*models.Tournament, error) {
	profileID, err := s.Profiles.HasProfile(callerID)
	if err != nil {
		return nil, err
	}
	if profileID == "" {
		return nil, appErr(KindPreconditionFailed, "you must set up your esports profile before hosting a tournament")
	}

	if len(req.Name) < 3 {
		return nil, appErr(KindValidation, "tournament name must be at least 3 characters")
	}
	if !models.ValidGameTitle(req.GameTitle) {
		return nil, appErr(KindValidation, "unsupported game title %q", req.GameTitle)
	}
	if req.StartDate.IsZero() {
		return nil, appErr(KindValidation, "start date is required")
	}
	if req.EntryFee < 0 {
		return nil, appErr(KindValidation, "entry fee must be non-negative")
	}
	if req.MaxParticipants == 0 {
		req.MaxParticipants = 16
	}
	if req.MaxParticipants < 2 {
		return nil, appErr(KindValidation, "max participants must be at least 2")
	}
	if req.TeamSize == 0 {
		req.TeamSize = 1
	}
	if req.TeamSize < 1 {
		return nil, appErr(KindValidation, "team size must be at least 1")
	}
	if req.BracketType != "" && !models.ValidBracketType(req.BracketType) {
		return nil, appErr(KindValidation, "unsupported bracket type %q", req.BracketType)
	}

	t := models.Tournament{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Slug:            slug.Make(req.Name),
		GameTitle:       req.GameTitle,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EntryFee:        req.EntryFee,
		PrizePool:       req.PrizePool,
		Rules:           req.Rules,
		MaxParticipants: req.MaxParticipants,
		TeamSize:        req.TeamSize,
		Status:          models.StatusRegistrationOpen,
		CreatedBy:       callerID,

		CredentialsPrivate: true,
	}
	if req.Region != "" {
		t.Region = req.Region
	} else {
		t.Region = "Global"
	}
	if req.Platform != "" {
		t.Platform = req.Platform
	} else {
		t.Platform = "PC"
	}
	if req.PrizePool == "" {
		t.PrizePool = "0"
	}
	if req.BracketType != "" {
		t.BracketType = req.BracketType
	} else {
		t.BracketType = "Single Elimination"
	}

	if err := s.DB.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	log.Printf("[TOURNAMENT] created %s (%s) by %s", t.ID, t.Name, callerID)
	return &t, nil
}

// Get returns one tournament with its roster. Credentials never travel with
// it; they are json-hidden on the model and only reachable via the vault.
func (s *TournamentService) Get(tournamentID string) (*models.Tournament, error) {
	return s.fetch(tournamentID)
}

// List returns all tournaments sorted by soonest start date.
func (s *TournamentService) List() ([]models.Tournament, error) {
	var tournaments []models.Tournament
	if err := s.DB.Order("start_date ASC").Find(&tournaments).Error; err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

type UpdateTournamentRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	StartDate       *time.Time `json:"start_date"`
	Region          *string    `json:"region"`
	Platform        *string    `json:"platform"`
	EntryFee        *float64   `json:"entry_fee"`
	PrizePool       *string    `json:"prize_pool"`
	BracketType     *string    `json:"bracket_type"`
	Rules           []string   `json:"rules"`
	MaxParticipants *int       `json:"max_participants"`
	TeamSize        *int       `json:"team_size"`
}

// Update applies a host-only partial update of descriptive and scheduling
// fields. Ownership, status, the roster and the vault are not reachable from
// here.
func (s *TournamentService) Update(tournamentID, callerID string, req UpdateTournamentRequest) (*models.Tournament, error) {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}
	if ResolveRole(t, callerID) != RoleHost {
		return nil, appErr(KindForbidden, "only the host can update this tournament")
	}

	if req.Name != nil {
		if len(*req.Name) < 3 {
			return nil, appErr(KindValidation, "tournament name must be at least 3 characters")
		}
		t.Name = *req.Name
		t.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.StartDate != nil {
		if req.StartDate.IsZero() {
			return nil, appErr(KindValidation, "start date cannot be cleared")
		}
		t.StartDate = *req.StartDate
	}
	if req.Region != nil {
		t.Region = *req.Region
	}
	if req.Platform != nil {
		t.Platform = *req.Platform
	}
	if req.EntryFee != nil {
		if *req.EntryFee < 0 {
			return nil, appErr(KindValidation, "entry fee must be non-negative")
		}
		t.EntryFee = *req.EntryFee
	}
	if req.PrizePool != nil {
		t.PrizePool = *req.PrizePool
	}
	if req.BracketType != nil {
		if !models.ValidBracketType(*req.BracketType) {
			return nil, appErr(KindValidation, "unsupported bracket type %q", *req.BracketType)
		}
		t.BracketType = *req.BracketType
	}
	if req.Rules != nil {
		t.Rules = req.Rules
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < 2 {
			return nil, appErr(KindValidation, "max participants must be at least 2")
		}
		if *req.MaxParticipants < len(t.Participants) {
			return nil, appErr(KindValidation, "max participants cannot drop below the current roster size (%d)", len(t.Participants))
		}
		t.MaxParticipants = *req.MaxParticipants
	}
	if req.TeamSize != nil {
		if *req.TeamSize < 1 {
			return nil, appErr(KindValidation, "team size must be at least 1")
		}
		t.TeamSize = *req.TeamSize
	}

	if err := s.DB.Save(t).Error; err != nil {
		return nil, fmt.Errorf("update tournament %s: %w", tournamentID, err)
	}
	return t, nil
}

// SetStatus overwrites the lifecycle state, host only. Any of the five
// enumerated values is accepted from any current state; the service never
// self-advances on a clock.
func (s *TournamentService) SetStatus(tournamentID, callerID, newStatus string) (*models.Tournament, error) {
	if !models.ValidTournamentStatus(newStatus) {
		return nil, appErr(KindInvalidStatus, "invalid tournament status %q", newStatus)
	}

	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return nil, err
	}
	if ResolveRole(t, callerID) != RoleHost {
		return nil, appErr(KindForbidden, "only the host can change the tournament status")
	}

	t.Status = newStatus
	if err := s.DB.Model(&models.Tournament{}).Where("id = ?", t.ID).Update("status", newStatus).Error; err != nil {
		return nil, fmt.Errorf("update status of %s: %w", tournamentID, err)
	}

	s.Events.Publish(Event{
		TournamentID: t.ID,
		Type:         EventStatusChanged,
		Status:       newStatus,
		RosterSize:   len(t.Participants),
		At:           s.Clock.Now(),
	})
	log.Printf("[TOURNAMENT] %s status -> %s by %s", t.ID, newStatus, callerID)
	return t, nil
}

// Delete hard-deletes the aggregate: tournament row, every participant and
// the embedded vault go together in one transaction.
func (s *TournamentService) Delete(tournamentID, callerID string) error {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	t, err := s.fetch(tournamentID)
	if err != nil {
		return err
	}
	if ResolveRole(t, callerID) != RoleHost {
		return appErr(KindForbidden, "only the host can delete this tournament")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tournament_id = ?", tournamentID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tournament{}, "id = ?", tournamentID).Error
	})
	if err != nil {
		return fmt.Errorf("delete tournament %s: %w", tournamentID, err)
	}

	s.Events.Publish(Event{
		TournamentID: tournamentID,
		Type:         EventDeleted,
		At:           s.Clock.Now(),
	})
	s.releaseLock(tournamentID)
	log.Printf("[TOURNAMENT] deleted %s by %s", tournamentID, callerID)
	return nil
}
