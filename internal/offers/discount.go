package offers

import (
	"errors"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrManualDiscount is returned for discount types whose amount cannot be
// derived from stored offer fields (bogo, free item, special price). The
// verifying merchant must supply the amount instead.
var ErrManualDiscount = errors.New("discount type requires a merchant-supplied amount")

// CalculateDiscount returns the discount in cents for a purchase amount.
// Percentage discounts apply only when the purchase meets the offer's minimum
// purchase; fixed discounts are flat. The result is capped at the offer's
// max discount, and never exceeds the purchase amount.
func CalculateDiscount(o *models.Offer, purchaseCents int) (int, error) {
	if purchaseCents < 0 {
		purchaseCents = 0
	}

	var discount int
	switch o.DiscountType {
	case models.DiscountPercentage:
		if purchaseCents < o.MinPurchaseCents {
			return 0, nil
		}
		discount = purchaseCents * o.DiscountValue / 100
	case models.DiscountFixedAmount:
		discount = o.DiscountValue
	case models.DiscountBogo, models.DiscountFreeItem, models.DiscountSpecialPrice:
		return 0, ErrManualDiscount
	default:
		return 0, errors.New("unknown discount type: " + string(o.DiscountType))
	}

	if o.MaxDiscountCents != nil && discount > *o.MaxDiscountCents {
		discount = *o.MaxDiscountCents
	}
	if discount > purchaseCents {
		discount = purchaseCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

// CapManualDiscount applies the offer's max discount cap and purchase bound to
// a merchant-supplied discount amount.
func CapManualDiscount(o *models.Offer, discountCents, purchaseCents int) int {
	if discountCents < 0 {
		discountCents = 0
	}
	if o.MaxDiscountCents != nil && discountCents > *o.MaxDiscountCents {
		discountCents = *o.MaxDiscountCents
	}
	if purchaseCents >= 0 && discountCents > purchaseCents {
		discountCents = purchaseCents
	}
	return discountCents
}
