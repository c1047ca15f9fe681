package models

import (
	"time"
)

// Tournament lifecycle states. The host drives every transition by hand;
// nothing in the service advances status on a clock.
const (
	StatusRegistrationOpen   = "Registration Open"
	StatusRegistrationClosed = "Registration Closed"
	StatusOngoing            = "Ongoing"
	StatusCompleted          = "Completed"
	StatusCancelled          = "Cancelled"
)

// Participant entry states. Only "registered" is written by the join flow;
// the other two are reserved for check-in and moderation tooling.
const (
	ParticipantRegistered   = "registered"
	ParticipantCheckedIn    = "checked_in"
	ParticipantDisqualified = "disqualified"
)

var TournamentStatuses = []string{
	StatusRegistrationOpen,
	StatusRegistrationClosed,
	StatusOngoing,
	StatusCompleted,
	StatusCancelled,
}

var GameTitles = []string{
	"Valorant", "CS2", "League of Legends", "Dota 2", "Rocket League",
	"Overwatch 2", "Fortnite", "Apex Legends", "Call of Duty",
}

var BracketTypes = []string{
	"Single Elimination", "Double Elimination", "Round Robin", "Swiss",
}

// Tournament is the aggregate root. Room credentials live on the row but are
// tagged json:"-" so no general read path can ever serialize them; the only
// way out is the credentials endpoint, behind the vault policy.
type Tournament struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"index"`
	GameTitle   string    `json:"game_title" gorm:"not null"`
	Description string    `json:"description"`
	Region      string    `json:"region" gorm:"default:'Global'"`
	Platform    string    `json:"platform" gorm:"default:'PC'"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`

	// Stored for the bracket/payment collaborators, never processed here.
	EntryFee    float64  `json:"entry_fee" gorm:"default:0"`
	PrizePool   string   `json:"prize_pool" gorm:"default:'0'"`
	BracketType string   `json:"bracket_type" gorm:"default:'Single Elimination'"`
	Rules       []string `json:"rules,omitempty" gorm:"serializer:json"`

	MaxParticipants int `json:"max_participants" gorm:"default:16"`
	TeamSize        int `json:"team_size" gorm:"default:1"` // 1 = solo

	Status    string `json:"status" gorm:"default:'Registration Open'"`
	CreatedBy string `json:"created_by" gorm:"not null"` // immutable after create

	// Credential vault. Private until the host says otherwise.
	RoomID             string `json:"-"`
	RoomPassword       string `json:"-"`
	CredentialsPrivate bool   `json:"-" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:TournamentID"`
}

// Participant is one roster slot: a solo player or a captain plus team
// members. Rows are ordered by JoinedAt, which is registration order.
type Participant struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	TournamentID     string    `json:"tournament_id" gorm:"not null;index"`
	UserID           string    `json:"user_id" gorm:"not null;index"` // captain for team entries
	EsportsProfileID string    `json:"esports_profile_id" gorm:"not null"`
	TeamName         string    `json:"team_name,omitempty"`
	TeamMembers      []string  `json:"team_members,omitempty" gorm:"serializer:json"`
	Status           string    `json:"status" gorm:"default:'registered'"`
	JoinedAt         time.Time `json:"joined_at" gorm:"not null"`
}

// Covers returns every user id occupying this slot: the captain plus all
// team members.
func (p *Participant) Covers(userID string) bool {
	if p.UserID == userID {
		return true
	}
	for _, m := range p.TeamMembers {
		if m == userID {
			return true
		}
	}
	return false
}

// Credentials is the vault payload returned to authorized callers.
type Credentials struct {
	RoomID    string `json:"room_id"`
	Password  string `json:"password"`
	IsPrivate bool   `json:"is_private"`
}

func ValidTournamentStatus(s string) bool {
	return contains(TournamentStatuses, s)
}

func ValidGameTitle(s string) bool {
	return contains(GameTitles, s)
}

func ValidBracketType(s string) bool {
	return contains(BracketTypes, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
