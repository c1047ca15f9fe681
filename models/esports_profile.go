package models

import (
	"time"
)

// EsportsProfile is a local snapshot of the eligibility profile owned by the
// remote profile service. Populated by the sync worker; holding a row here is
// the precondition for creating or joining tournaments.
type EsportsProfile struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	Gamertag  string    `json:"gamertag" gorm:"index;not null"`
	Platform  string    `json:"platform" gorm:"default:'PC'"`
	Region    string    `json:"region" gorm:"default:'NA-East'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
