package services

import (
	"testing"
	"time"

	"arena-tournament-service/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database shared and serializes
	// writes under the concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Tournament{},
		&models.Participant{},
		&models.EsportsProfile{},
	))
	return db
}

func newTestService(t *testing.T) (*TournamentService, *clockwork.FakeClock, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC))
	svc := NewTournamentService(db, clock, &GormProfileStore{DB: db}, NewBroadcaster())
	return svc, clock, db
}

func seedProfile(t *testing.T, db *gorm.DB, userID string) string {
	t.Helper()
	profile := models.EsportsProfile{
		ID:       uuid.NewString(),
		UserID:   userID,
		Gamertag: "gt-" + userID,
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile.ID
}

func baseCreateRequest(startIn time.Duration, clock clockwork.Clock) CreateTournamentRequest {
	return CreateTournamentRequest{
		Name:            "Friday Night Clash",
		GameTitle:       "Valorant",
		Description:     "weekly community bracket",
		StartDate:       clock.Now().Add(startIn),
		MaxParticipants: 4,
		TeamSize:        1,
	}
}

func createTournament(t *testing.T, svc *TournamentService, clock clockwork.Clock, host string, mutate func(*CreateTournamentRequest)) *models.Tournament {
	t.Helper()
	req := baseCreateRequest(time.Hour, clock)
	if mutate != nil {
		mutate(&req)
	}
	tournament, err := svc.Create(host, req)
	require.NoError(t, err)
	return tournament
}
