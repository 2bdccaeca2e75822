package models

import (
	"time"

	"github.com/google/uuid"
)

// Council is a Scouting council, the top of the selling hierarchy.
type Council struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Troop belongs to a council and groups scouts under a leader.
type Troop struct {
	ID        uuid.UUID  `json:"id"`
	CouncilID uuid.UUID  `json:"council_id"`
	Number    string     `json:"number"`
	Name      string     `json:"name"`
	LeaderID  *uuid.UUID `json:"leader_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ScoutStatus gates whether a scout account may sell cards.
type ScoutStatus string

const (
	ScoutStatusPendingConsent ScoutStatus = "pending_consent"
	ScoutStatusActive         ScoutStatus = "active"
	ScoutStatusInactive       ScoutStatus = "inactive"
)

// Scout links a user to a troop and carries sale attribution.
type Scout struct {
	ID           uuid.UUID   `json:"id"`
	TroopID      uuid.UUID   `json:"troop_id"`
	UserID       uuid.UUID   `json:"user_id"`
	ReferralCode string      `json:"referral_code"`
	CardsSold    int         `json:"cards_sold"`
	Status       ScoutStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
