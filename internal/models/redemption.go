package models

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionStatus for offer redemptions. Transitions are monotonic:
// pending -> verified -> completed, or pending/verified -> cancelled/expired.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionVerified  RedemptionStatus = "verified"
	RedemptionCompleted RedemptionStatus = "completed"
	RedemptionCancelled RedemptionStatus = "cancelled"
	RedemptionExpired   RedemptionStatus = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s RedemptionStatus) Terminal() bool {
	switch s {
	case RedemptionCompleted, RedemptionCancelled, RedemptionExpired:
		return true
	}
	return false
}

// OfferRedemption is one redemption of an offer by a card holder.
// RedemptionToken is the opaque QR payload; VerificationCode is the short
// human-readable code shown alongside it. Both are unique and generated once.
type OfferRedemption struct {
	ID                 uuid.UUID        `json:"id"`
	OfferID            uuid.UUID        `json:"offer_id"`
	UserID             uuid.UUID        `json:"user_id"`
	MerchantID         uuid.UUID        `json:"merchant_id"`
	MerchantLocationID *uuid.UUID       `json:"merchant_location_id,omitempty"`
	PurchaseCents      *int             `json:"purchase_cents,omitempty"`
	DiscountCents      *int             `json:"discount_cents,omitempty"`
	FinalCents         *int             `json:"final_cents,omitempty"`
	VerificationCode   string           `json:"verification_code"`
	RedemptionToken    string           `json:"redemption_token"`
	Status             RedemptionStatus `json:"status"`
	RedeemedAt         *time.Time       `json:"redeemed_at,omitempty"`
	VerifiedAt         *time.Time       `json:"verified_at,omitempty"`
	VerifiedBy         *uuid.UUID       `json:"verified_by,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
