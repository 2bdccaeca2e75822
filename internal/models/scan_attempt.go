package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanResult is the outcome of a QR scan attempt.
type ScanResult string

const (
	ScanPending         ScanResult = "pending"
	ScanSuccess         ScanResult = "success"
	ScanAlreadyRedeemed ScanResult = "already_redeemed"
	ScanExpired         ScanResult = "expired"
	ScanInvalid         ScanResult = "invalid"
	ScanFlagged         ScanResult = "flagged"
)

// ScanAttempt is one presentation of a redemption token. Rows are append-only:
// result/success/suspicion fields are set exactly once when the scan resolves,
// everything else is immutable. Rows are never deleted (audit trail).
// Device, IP, geo and merchant metadata are optional; abuse signals that need
// an absent field are skipped rather than evaluated against a sentinel. Offer
// and user are unset when the scanned token was never issued.
type ScanAttempt struct {
	ID                 uuid.UUID  `json:"id"`
	OfferID            *uuid.UUID `json:"offer_id,omitempty"`
	UserID             *uuid.UUID `json:"user_id,omitempty"`
	RedemptionID       *uuid.UUID `json:"redemption_id,omitempty"`
	RedemptionToken    string     `json:"redemption_token"`
	ScannedAt          time.Time  `json:"scanned_at"`
	DeviceFingerprint  *string    `json:"device_fingerprint,omitempty"`
	IPAddress          *string    `json:"ip_address,omitempty"`
	UserAgent          *string    `json:"user_agent,omitempty"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	Result             ScanResult `json:"result"`
	WasSuccessful      bool       `json:"was_successful"`
	FailureReason      *string    `json:"failure_reason,omitempty"`
	IsSuspicious       bool       `json:"is_suspicious"`
	SuspicionReason    *string    `json:"suspicion_reason,omitempty"`
	MerchantID         *uuid.UUID `json:"merchant_id,omitempty"`
	MerchantLocationID *uuid.UUID `json:"merchant_location_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
