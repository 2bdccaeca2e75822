package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types and statuses.
const (
	NotificationTypeConsentRequest      = "consent_request"
	NotificationTypeRedemptionCompleted = "redemption_completed"
	NotificationTypeCampaign            = "campaign"
	NotificationTypeReceipt             = "receipt"

	NotificationStatusQueued = "queued"
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// Notification is one queued outbound message (email or push). Delivery is
// handled by the worker; rows double as the send audit log.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Channel      string     `json:"channel"`
	RecipientID  *uuid.UUID `json:"recipient_id,omitempty"`
	Recipient    string     `json:"recipient"` // email address or device token
	Subject      string     `json:"subject,omitempty"`
	Body         string     `json:"body,omitempty"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
