package models

import (
	"testing"
	"time"
)

func TestOfferIsValid(t *testing.T) {
	now := time.Now()
	limit := 10
	base := Offer{
		Status:     OfferStatusActive,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(*Offer)
		want   bool
	}{
		{"active inside window", func(o *Offer) {}, true},
		{"draft", func(o *Offer) { o.Status = OfferStatusDraft }, false},
		{"paused", func(o *Offer) { o.Status = OfferStatusPaused }, false},
		{"suspended", func(o *Offer) { o.Status = OfferStatusSuspended }, false},
		{"not yet started", func(o *Offer) { o.ValidFrom = now.Add(time.Minute) }, false},
		{"already ended", func(o *Offer) { o.ValidUntil = now.Add(-time.Minute) }, false},
		{"usage limit reached", func(o *Offer) { o.UsageLimit = &limit; o.TotalRedemptions = 10 }, false},
		{"under usage limit", func(o *Offer) { o.UsageLimit = &limit; o.TotalRedemptions = 9 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.mutate(&o)
			if got := o.IsValid(now); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscountTypeRequiresManualAmount(t *testing.T) {
	manual := []DiscountType{DiscountBogo, DiscountFreeItem, DiscountSpecialPrice}
	for _, d := range manual {
		if !d.RequiresManualAmount() {
			t.Errorf("%s should require a manual amount", d)
		}
	}
	for _, d := range []DiscountType{DiscountPercentage, DiscountFixedAmount} {
		if d.RequiresManualAmount() {
			t.Errorf("%s should not require a manual amount", d)
		}
	}
}

func TestRedemptionStatusTerminal(t *testing.T) {
	for _, s := range []RedemptionStatus{RedemptionCompleted, RedemptionCancelled, RedemptionExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []RedemptionStatus{RedemptionPending, RedemptionVerified} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
