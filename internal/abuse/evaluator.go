package abuse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// SignalSource provides the scan-history queries the evaluator scores.
// Implemented by the scans repository.
type SignalSource interface {
	CountDistinctDevices(ctx context.Context, token string) (int, error)
	CountDistinctIPs(ctx context.Context, token string) (int, error)
	CountMerchantScans(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error)
	CountDistinctMerchantUsers(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error)
	RecentGeoScans(ctx context.Context, token string, limit int) ([]models.ScanAttempt, error)
}

// Verdict is the combined outcome of all abuse signals for one scan.
// Suspicious flags the token/scan; MerchantFlagged flags the scanning
// merchant (bulk scanning, collusion patterns) without blaming the user.
type Verdict struct {
	Suspicious      bool     `json:"suspicious"`
	Reasons         []string `json:"reasons,omitempty"`
	MerchantFlagged bool     `json:"merchant_flagged"`
	MerchantReasons []string `json:"merchant_reasons,omitempty"`
}

// Reason joins the token-level reasons into one string.
func (v Verdict) Reason() string {
	return strings.Join(v.Reasons, "; ")
}

// Evaluator scores a scan against historical attempts. It is a deterministic,
// stateless function of the store snapshot: no learning, no decay, no
// external calls. A signal that cannot be computed is logged and skipped —
// a missing heuristic must never block a redemption.
type Evaluator struct {
	source SignalSource
	policy config.AbuseConfig
	logger *zap.Logger
}

// NewEvaluator creates an abuse signal evaluator.
func NewEvaluator(source SignalSource, policy config.AbuseConfig, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{source: source, policy: policy, logger: logger}
}

// Evaluate scores the scan currently being processed (already recorded in the
// store) against the attempt history for its token and merchant. Signals
// combine with OR semantics.
func (e *Evaluator) Evaluate(ctx context.Context, scan *models.ScanAttempt) Verdict {
	var v Verdict

	e.checkDeviceDiversity(ctx, scan, &v)
	e.checkIPDiversity(ctx, scan, &v)
	e.checkMerchantVelocity(ctx, scan, &v)
	e.checkMerchantUserReuse(ctx, scan, &v)
	e.checkImpossibleTravel(ctx, scan, &v)

	v.Suspicious = len(v.Reasons) > 0
	v.MerchantFlagged = len(v.MerchantReasons) > 0
	return v
}

func (e *Evaluator) checkDeviceDiversity(ctx context.Context, scan *models.ScanAttempt, v *Verdict) {
	if scan.DeviceFingerprint == nil {
		return
	}
	n, err := e.source.CountDistinctDevices(ctx, scan.RedemptionToken)
	if err != nil {
		e.signalUnavailable("device_diversity", scan, err)
		return
	}
	if n > e.policy.MaxDevicesPerToken {
		v.Reasons = append(v.Reasons, fmt.Sprintf("multiple devices used for same token (%d distinct)", n))
	}
}

func (e *Evaluator) checkIPDiversity(ctx context.Context, scan *models.ScanAttempt, v *Verdict) {
	if scan.IPAddress == nil {
		return
	}
	n, err := e.source.CountDistinctIPs(ctx, scan.RedemptionToken)
	if err != nil {
		e.signalUnavailable("ip_diversity", scan, err)
		return
	}
	if n > e.policy.MaxIPsPerToken {
		v.Reasons = append(v.Reasons, fmt.Sprintf("multiple IP addresses used for same token (%d distinct)", n))
	}
}

func (e *Evaluator) checkMerchantVelocity(ctx context.Context, scan *models.ScanAttempt, v *Verdict) {
	if scan.MerchantID == nil {
		return
	}
	since := scan.ScannedAt.Add(-e.policy.VelocityWindow)
	n, err := e.source.CountMerchantScans(ctx, *scan.MerchantID, since)
	if err != nil {
		e.signalUnavailable("merchant_velocity", scan, err)
		return
	}
	if n > e.policy.MaxMerchantScansPerWindow {
		v.MerchantReasons = append(v.MerchantReasons,
			fmt.Sprintf("merchant scanned %d codes in the last %s", n, e.policy.VelocityWindow))
	}
}

func (e *Evaluator) checkMerchantUserReuse(ctx context.Context, scan *models.ScanAttempt, v *Verdict) {
	if scan.MerchantID == nil {
		return
	}
	since := scan.ScannedAt.Add(-e.policy.VelocityWindow)
	total, err := e.source.CountMerchantScans(ctx, *scan.MerchantID, since)
	if err != nil {
		e.signalUnavailable("merchant_user_reuse", scan, err)
		return
	}
	if total < e.policy.MinScansForUserRatio {
		return
	}
	distinct, err := e.source.CountDistinctMerchantUsers(ctx, *scan.MerchantID, since)
	if err != nil {
		e.signalUnavailable("merchant_user_reuse", scan, err)
		return
	}
	if distinct*100 < total*e.policy.MinDistinctUserPercent {
		v.MerchantReasons = append(v.MerchantReasons,
			fmt.Sprintf("merchant scanned only %d distinct users across %d scans", distinct, total))
	}
}

func (e *Evaluator) checkImpossibleTravel(ctx context.Context, scan *models.ScanAttempt, v *Verdict) {
	if scan.Latitude == nil || scan.Longitude == nil {
		return
	}
	recent, err := e.source.RecentGeoScans(ctx, scan.RedemptionToken, 2)
	if err != nil {
		e.signalUnavailable("impossible_travel", scan, err)
		return
	}
	if len(recent) < 2 {
		return
	}
	// newest first: recent[0] is the current scan, recent[1] the previous one
	a, b := recent[0], recent[1]
	distKm := HaversineKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
	elapsed := a.ScannedAt.Sub(b.ScannedAt)
	if elapsed < time.Second {
		elapsed = time.Second
	}
	speedKmh := distKm / elapsed.Hours()
	if speedKmh > e.policy.MaxTravelSpeedKmh {
		v.Reasons = append(v.Reasons,
			fmt.Sprintf("impossible travel: %.0f km in %s (%.0f km/h)", distKm, elapsed.Round(time.Second), speedKmh))
	}
}

func (e *Evaluator) signalUnavailable(signal string, scan *models.ScanAttempt, err error) {
	e.logger.Warn("abuse signal unavailable",
		zap.String("signal", signal),
		zap.String("redemption_token", scan.RedemptionToken),
		zap.Error(err),
	)
}
