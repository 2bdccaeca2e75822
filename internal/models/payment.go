package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus for payments.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment represents a payment for a camp card subscription.
type Payment struct {
	ID                uuid.UUID  `json:"id"`
	SubscriptionID    uuid.UUID  `json:"subscription_id"`
	Provider          string     `json:"provider"`
	ProviderPaymentID string     `json:"provider_payment_id,omitempty"`
	AmountCents       int        `json:"amount_cents"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
