package offers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// RedemptionCounter reports how many verified/completed redemptions a user
// already has for an offer. Implemented by the redemptions repository.
type RedemptionCounter interface {
	CountByOfferAndUser(ctx context.Context, offerID, userID uuid.UUID) (int, error)
}

// Validity is the outcome of an eligibility check. Expired, exhausted or
// capped offers produce CanRedeem=false with a reason; they are expected
// business outcomes, not errors.
type Validity struct {
	Valid     bool          `json:"valid"`
	CanRedeem bool          `json:"can_redeem"`
	Reason    string        `json:"reason,omitempty"`
	Offer     *models.Offer `json:"offer,omitempty"`
}

// Checker confirms offer and per-user eligibility before a redemption proceeds.
type Checker struct {
	repo        *Repository
	redemptions RedemptionCounter
}

// NewChecker creates a validity checker.
func NewChecker(repo *Repository, redemptions RedemptionCounter) *Checker {
	return &Checker{repo: repo, redemptions: redemptions}
}

// CheckValidity reports whether userID may start a new redemption of offerID.
// Returns ErrNotFound when the offer does not exist.
func (c *Checker) CheckValidity(ctx context.Context, offerID, userID uuid.UUID) (*Validity, error) {
	offer, err := c.repo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	userCount, err := c.redemptions.CountByOfferAndUser(ctx, offerID, userID)
	if err != nil {
		return nil, err
	}
	v := Evaluate(offer, userCount, time.Now())
	return v, nil
}

// Evaluate applies the validity and per-user rules to an offer snapshot.
// The final usage-limit race is closed at claim time with an atomic
// increment-and-check; this is the advisory pre-check.
func Evaluate(offer *models.Offer, userRedemptionCount int, now time.Time) *Validity {
	v := &Validity{Offer: offer}

	switch {
	case offer.Status != models.OfferStatusActive:
		v.Reason = "offer is not active"
	case !now.After(offer.ValidFrom):
		v.Reason = "offer is not yet valid"
	case !now.Before(offer.ValidUntil):
		v.Reason = "offer has expired"
	case offer.UsageLimit != nil && offer.TotalRedemptions >= *offer.UsageLimit:
		v.Reason = "offer usage limit reached"
	default:
		v.Valid = true
	}
	if !v.Valid {
		return v
	}

	if offer.UsageLimitPerUser != nil && userRedemptionCount >= *offer.UsageLimitPerUser {
		v.Reason = "per-user redemption limit reached"
		return v
	}
	v.CanRedeem = true
	return v
}
