package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a participating business offering card discounts.
type Merchant struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	LogoKey     string    `json:"logo_key,omitempty"` // S3 object key
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MerchantLocation is a physical storefront with coordinates for geofenced checks.
type MerchantLocation struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Address    string    `json:"address"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
