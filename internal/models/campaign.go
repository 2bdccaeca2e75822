package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign channel and status.
const (
	CampaignChannelEmail = "email"
	CampaignChannelPush  = "push"

	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"
)

// Campaign is a council marketing message sent to card customers.
type Campaign struct {
	ID            uuid.UUID  `json:"id"`
	CouncilID     uuid.UUID  `json:"council_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Channel       string     `json:"channel"`
	TroopID       *uuid.UUID `json:"troop_id,omitempty"` // nil targets all customers
	MediaKey      string     `json:"media_key,omitempty"` // S3 object key
	Status        string     `json:"status"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	RecipientCount int       `json:"recipient_count"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
