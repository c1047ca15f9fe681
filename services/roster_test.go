package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"arena-tournament-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAppendsInRegistrationOrder(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	tournament := createTournament(t, svc, clock, "host-1", nil)

	for _, u := range []string{"u1", "u2", "u3"} {
		seedProfile(t, db, u)
		roster, err := svc.Join(tournament.ID, u, "", nil)
		require.NoError(t, err)
		require.Equal(t, u, roster[len(roster)-1].UserID)
		assert.Equal(t, models.ParticipantRegistered, roster[len(roster)-1].Status)
		assert.Equal(t, clock.Now(), roster[len(roster)-1].JoinedAt.UTC())
		clock.Advance(time.Second)
	}

	loaded, err := svc.Get(tournament.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Participants, 3)
	assert.Equal(t, "u1", loaded.Participants[0].UserID)
	assert.Equal(t, "u2", loaded.Participants[1].UserID)
	assert.Equal(t, "u3", loaded.Participants[2].UserID)
}

func TestJoinRequiresEsportsProfile(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	tournament := createTournament(t, svc, clock, "host-1", nil)

	_, err := svc.Join(tournament.ID, "no-profile", "", nil)
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindPreconditionFailed, ae.Kind)
}

func TestJoinUnknownTournament(t *testing.T) {
	svc, _, db := newTestService(t)
	seedProfile(t, db, "u1")

	_, err := svc.Join("missing", "u1", "", nil)
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, ae.Kind)
}

func TestJoinTwiceConflicts(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "u1")
	tournament := createTournament(t, svc, clock, "host-1", nil)

	_, err := svc.Join(tournament.ID, "u1", "", nil)
	require.NoError(t, err)

	_, err = svc.Join(tournament.ID, "u1", "", nil)
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, ae.Kind)
}

func TestJoinTeamMemberAlreadyRostered(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "cap-1")
	seedProfile(t, db, "cap-2")
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.TeamSize = 3
	})

	_, err := svc.Join(tournament.ID, "cap-1", "Alpha", []string{"mate-1"})
	require.NoError(t, err)

	// mate-1 already occupies a slot as a team member; neither a new captain
	// entry nor another team may include them.
	_, err = svc.Join(tournament.ID, "cap-2", "Bravo", []string{"mate-1"})
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, ae.Kind)

	seedProfile(t, db, "mate-1")
	_, err = svc.Join(tournament.ID, "mate-1", "", nil)
	ae, ok = AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, ae.Kind)
}

func TestJoinTeamValidation(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "cap-1")
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.TeamSize = 2
	})

	// teamSize 2 allows one extra member, not two.
	_, err := svc.Join(tournament.ID, "cap-1", "Crowded", []string{"m1", "m2"})
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, ae.Kind)

	// Captain listed again as a member.
	_, err = svc.Join(tournament.ID, "cap-1", "Echo", []string{"cap-1"})
	ae, ok = AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, ae.Kind)
}

func TestJoinFull(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.MaxParticipants = 2
	})

	for _, u := range []string{"u1", "u2", "u3"} {
		seedProfile(t, db, u)
	}
	_, err := svc.Join(tournament.ID, "u1", "", nil)
	require.NoError(t, err)
	_, err = svc.Join(tournament.ID, "u2", "", nil)
	require.NoError(t, err)

	_, err = svc.Join(tournament.ID, "u3", "", nil)
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindFull, ae.Kind)
}

// TestConcurrentJoinsNeverExceedCapacity fires more concurrent joins than
// there are slots and requires exactly capacity of them to win.
func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	const capacity = 3
	const attempts = 10
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.MaxParticipants = capacity
	})

	for i := 0; i < attempts; i++ {
		seedProfile(t, db, fmt.Sprintf("racer-%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Join(tournament.ID, fmt.Sprintf("racer-%d", i), "", nil)
		}(i)
	}
	wg.Wait()

	var wins, fulls int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		ae, ok := AsAppError(err)
		require.True(t, ok, "unexpected error: %v", err)
		require.Equal(t, KindFull, ae.Kind)
		fulls++
	}
	assert.Equal(t, capacity, wins)
	assert.Equal(t, attempts-capacity, fulls)

	loaded, err := svc.Get(tournament.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Participants, capacity)
}

func TestKickHostOnly(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "u1")
	tournament := createTournament(t, svc, clock, "host-1", nil)

	_, err := svc.Join(tournament.ID, "u1", "", nil)
	require.NoError(t, err)

	_, err = svc.Kick(tournament.ID, "u1", "u1")
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindForbidden, ae.Kind)
}

func TestKickUnknownCaptain(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "cap-1")
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.TeamSize = 2
	})

	_, err := svc.Join(tournament.ID, "cap-1", "Alpha", []string{"mate-1"})
	require.NoError(t, err)

	// Nobody by that id at all.
	_, err = svc.Kick(tournament.ID, "host-1", "ghost")
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, ae.Kind)

	// Team members are not independently addressable; only captains can be
	// the kick target.
	_, err = svc.Kick(tournament.ID, "host-1", "mate-1")
	ae, ok = AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, ae.Kind)
}

func TestKickRemovesWholeTeamAndFreesSlot(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "cap-1")
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.MaxParticipants = 2
		r.TeamSize = 3
	})

	_, err := svc.Join(tournament.ID, "cap-1", "Trio", []string{"mate-1", "mate-2"})
	require.NoError(t, err)

	roster, err := svc.Kick(tournament.ID, "host-1", "cap-1")
	require.NoError(t, err)
	assert.Empty(t, roster)

	// All three ids are gone; any of them can register again.
	for _, u := range []string{"cap-1", "mate-1", "mate-2"} {
		loaded, err := svc.Get(tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, RoleStranger, ResolveRole(loaded, u))
	}
	seedProfile(t, db, "mate-2")
	_, err = svc.Join(tournament.ID, "mate-2", "", nil)
	require.NoError(t, err)
}

func TestJoinPublishesRosterEvent(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	seedProfile(t, db, "u1")
	tournament := createTournament(t, svc, clock, "host-1", nil)

	events, cancel := svc.Events.Subscribe(tournament.ID)
	defer cancel()

	_, err := svc.Join(tournament.ID, "u1", "", nil)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventRosterChanged, ev.Type)
		assert.Equal(t, 1, ev.RosterSize)
	default:
		t.Fatal("expected a roster_changed event")
	}
}

// TestRegistrationScenario walks the end-to-end flow: fill a two-slot
// tournament, overflow, kick, refill.
func TestRegistrationScenario(t *testing.T) {
	svc, clock, db := newTestService(t)
	seedProfile(t, db, "host-1")
	for _, u := range []string{"alice", "bob", "carol"} {
		seedProfile(t, db, u)
	}
	tournament := createTournament(t, svc, clock, "host-1", func(r *CreateTournamentRequest) {
		r.MaxParticipants = 2
		r.TeamSize = 1
	})

	roster, err := svc.Join(tournament.ID, "alice", "", nil)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	clock.Advance(time.Second)

	roster, err = svc.Join(tournament.ID, "bob", "", nil)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].UserID)
	assert.Equal(t, "bob", roster[1].UserID)
	clock.Advance(time.Second)

	_, err = svc.Join(tournament.ID, "carol", "", nil)
	ae, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindFull, ae.Kind)

	roster, err = svc.Kick(tournament.ID, "host-1", "alice")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].UserID)

	roster, err = svc.Join(tournament.ID, "carol", "", nil)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "bob", roster[0].UserID)
	assert.Equal(t, "carol", roster[1].UserID)
}
