package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsentStatus for parental consent requests.
const (
	ConsentStatusPending  = "pending"
	ConsentStatusApproved = "approved"
	ConsentStatusDeclined = "declined"
	ConsentStatusExpired  = "expired"
)

// ConsentRequest is a COPPA parental consent request for a scout account.
// The parent approves or declines via an emailed single-use token link.
type ConsentRequest struct {
	ID          uuid.UUID  `json:"id"`
	ScoutID     uuid.UUID  `json:"scout_id"`
	ParentEmail string     `json:"parent_email"`
	ParentName  string     `json:"parent_name,omitempty"`
	Token       string     `json:"-"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
