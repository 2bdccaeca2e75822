package redemptions

import (
	"testing"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.RedemptionStatus
		want     bool
	}{
		{models.RedemptionPending, models.RedemptionVerified, true},
		{models.RedemptionPending, models.RedemptionCancelled, true},
		{models.RedemptionPending, models.RedemptionExpired, true},
		{models.RedemptionPending, models.RedemptionCompleted, false},
		{models.RedemptionVerified, models.RedemptionCompleted, true},
		{models.RedemptionVerified, models.RedemptionCancelled, true},
		{models.RedemptionVerified, models.RedemptionPending, false},
		{models.RedemptionCompleted, models.RedemptionCancelled, false},
		{models.RedemptionCancelled, models.RedemptionVerified, false},
		{models.RedemptionExpired, models.RedemptionVerified, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []models.RedemptionStatus{
		models.RedemptionCompleted, models.RedemptionCancelled, models.RedemptionExpired,
	}
	all := []models.RedemptionStatus{
		models.RedemptionPending, models.RedemptionVerified, models.RedemptionCompleted,
		models.RedemptionCancelled, models.RedemptionExpired,
	}
	for _, from := range terminals {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal state %s allows transition to %s", from, to)
			}
		}
	}
}
