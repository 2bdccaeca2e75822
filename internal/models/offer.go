package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType is the closed set of offer discount kinds.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixedAmount  DiscountType = "fixed_amount"
	DiscountBogo         DiscountType = "bogo"
	DiscountFreeItem     DiscountType = "free_item"
	DiscountSpecialPrice DiscountType = "special_price"
)

// RequiresManualAmount reports whether the discount cannot be derived from
// stored fields and must be supplied by the verifying merchant.
func (d DiscountType) RequiresManualAmount() bool {
	switch d {
	case DiscountBogo, DiscountFreeItem, DiscountSpecialPrice:
		return true
	}
	return false
}

// OfferStatus for offers.
type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusActive    OfferStatus = "active"
	OfferStatusPaused    OfferStatus = "paused"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusSuspended OfferStatus = "suspended"
)

// Offer is a merchant discount unlocked by an active camp card.
// DiscountValue is a percent for percentage offers and cents otherwise.
type Offer struct {
	ID                uuid.UUID    `json:"id"`
	MerchantID        uuid.UUID    `json:"merchant_id"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     int          `json:"discount_value"`
	MinPurchaseCents  int          `json:"min_purchase_cents"`
	MaxDiscountCents  *int         `json:"max_discount_cents,omitempty"`
	ValidFrom         time.Time    `json:"valid_from"`
	ValidUntil        time.Time    `json:"valid_until"`
	UsageLimit        *int         `json:"usage_limit,omitempty"`
	UsageLimitPerUser *int         `json:"usage_limit_per_user,omitempty"`
	TotalRedemptions  int          `json:"total_redemptions"`
	Status            OfferStatus  `json:"status"`
	ImageKey          string       `json:"image_key,omitempty"` // S3 object key
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// IsValid reports whether the offer can be redeemed at the given instant:
// active, inside [valid_from, valid_until), and under its global usage limit.
func (o *Offer) IsValid(now time.Time) bool {
	if o.Status != OfferStatusActive {
		return false
	}
	if !now.After(o.ValidFrom) || !now.Before(o.ValidUntil) {
		return false
	}
	if o.UsageLimit != nil && o.TotalRedemptions >= *o.UsageLimit {
		return false
	}
	return true
}
