package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus for camp card subscriptions.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription is a purchased camp card. ScoutID attributes the sale for
// fundraising credit; an active subscription is required to redeem offers.
type Subscription struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ScoutID    *uuid.UUID `json:"scout_id,omitempty"`
	CardNumber string     `json:"card_number"`
	Plan       string     `json:"plan"`
	PriceCents int        `json:"price_cents"`
	Status     string     `json:"status"`
	StartsAt   *time.Time `json:"starts_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
