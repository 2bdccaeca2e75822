package offers

import (
	"errors"
	"testing"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		offer    models.Offer
		purchase int
		want     int
	}{
		{
			name:     "percentage basic",
			offer:    models.Offer{DiscountType: models.DiscountPercentage, DiscountValue: 20},
			purchase: 5000,
			want:     1000,
		},
		{
			name:     "percentage below minimum purchase",
			offer:    models.Offer{DiscountType: models.DiscountPercentage, DiscountValue: 20, MinPurchaseCents: 2000},
			purchase: 1500,
			want:     0,
		},
		{
			name:     "percentage capped at max discount",
			offer:    models.Offer{DiscountType: models.DiscountPercentage, DiscountValue: 20, MaxDiscountCents: intPtr(1000)},
			purchase: 10000,
			want:     1000,
		},
		{
			name:     "percentage truncates to cents",
			offer:    models.Offer{DiscountType: models.DiscountPercentage, DiscountValue: 15},
			purchase: 999,
			want:     149,
		},
		{
			name:     "fixed amount",
			offer:    models.Offer{DiscountType: models.DiscountFixedAmount, DiscountValue: 500},
			purchase: 3000,
			want:     500,
		},
		{
			name:     "fixed amount exceeds purchase",
			offer:    models.Offer{DiscountType: models.DiscountFixedAmount, DiscountValue: 500},
			purchase: 300,
			want:     300,
		},
		{
			name:     "negative purchase treated as zero",
			offer:    models.Offer{DiscountType: models.DiscountFixedAmount, DiscountValue: 500},
			purchase: -100,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateDiscount(&tt.offer, tt.purchase)
			if err != nil {
				t.Fatalf("CalculateDiscount: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateDiscountManualTypes(t *testing.T) {
	for _, dt := range []models.DiscountType{models.DiscountBogo, models.DiscountFreeItem, models.DiscountSpecialPrice} {
		o := models.Offer{DiscountType: dt, DiscountValue: 1}
		if _, err := CalculateDiscount(&o, 1000); !errors.Is(err, ErrManualDiscount) {
			t.Errorf("%s: want ErrManualDiscount, got %v", dt, err)
		}
	}
}

func TestCalculateDiscountUnknownType(t *testing.T) {
	o := models.Offer{DiscountType: "raffle", DiscountValue: 10}
	if _, err := CalculateDiscount(&o, 1000); err == nil {
		t.Fatal("want error for unknown discount type")
	}
}

func TestCapManualDiscount(t *testing.T) {
	tests := []struct {
		name     string
		offer    models.Offer
		discount int
		purchase int
		want     int
	}{
		{"within cap", models.Offer{MaxDiscountCents: intPtr(1000)}, 800, 5000, 800},
		{"above cap", models.Offer{MaxDiscountCents: intPtr(1000)}, 1500, 5000, 1000},
		{"no cap", models.Offer{}, 1500, 5000, 1500},
		{"exceeds purchase", models.Offer{}, 1500, 1200, 1200},
		{"negative clamps to zero", models.Offer{}, -50, 1200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapManualDiscount(&tt.offer, tt.discount, tt.purchase); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
