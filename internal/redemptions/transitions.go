package redemptions

import (
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// transitions enumerates every legal redemption status move. Anything absent
// is rejected, which keeps the lifecycle monotonic: nothing leaves completed,
// cancelled or expired, and completion requires prior verification.
var transitions = map[models.RedemptionStatus][]models.RedemptionStatus{
	models.RedemptionPending:  {models.RedemptionVerified, models.RedemptionCancelled, models.RedemptionExpired},
	models.RedemptionVerified: {models.RedemptionCompleted, models.RedemptionCancelled, models.RedemptionExpired},
}

// CanTransition reports whether a redemption may move from one status to another.
func CanTransition(from, to models.RedemptionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
