package scans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/abuse"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/redemptions"
)

// AttemptStore persists scan attempts. Implemented by Repository.
type AttemptStore interface {
	Record(ctx context.Context, s *models.ScanAttempt) error
	Resolve(ctx context.Context, id uuid.UUID, result models.ScanResult, wasSuccessful bool, failureReason *string, redemptionID *uuid.UUID) error
	FlagSuspicious(ctx context.Context, id uuid.UUID, reason string) error
	MarkSuspicious(ctx context.Context, id uuid.UUID, reason string) error
}

// RedemptionStore looks up and claims redemptions by token. Implemented by
// the redemptions repository.
type RedemptionStore interface {
	GetByToken(ctx context.Context, token string) (*models.OfferRedemption, error)
	ClaimByToken(ctx context.Context, token string, verifierID uuid.UUID) (*models.OfferRedemption, error)
}

// OfferStore loads offers. Implemented by the offers repository.
type OfferStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

// Input is one merchant-side presentation of a redemption QR code, with
// whatever device and geo metadata the scanning client could capture.
type Input struct {
	Token              string
	MerchantID         uuid.UUID
	MerchantLocationID *uuid.UUID
	VerifierID         uuid.UUID
	DeviceFingerprint  *string
	IPAddress          *string
	UserAgent          *string
	Latitude           *float64
	Longitude          *float64
}

// Outcome is the resolved result of a scan. Every scan produces an outcome;
// failures to redeem are expected results, not errors.
type Outcome struct {
	Result     models.ScanResult       `json:"result"`
	Message    string                  `json:"message,omitempty"`
	Suspicious bool                    `json:"suspicious"`
	Attempt    *models.ScanAttempt     `json:"attempt"`
	Redemption *models.OfferRedemption `json:"redemption,omitempty"`
	Offer      *models.Offer           `json:"offer,omitempty"`
}

// Service orchestrates a scan: record the attempt, score abuse signals,
// validate the token and offer, then claim the redemption. The attempt is
// recorded before any validation so failed and malicious scans still land in
// the audit trail, and signals are scored before any rejection so a rejected
// scan still carries its suspicion. Re-presenting an already-used token from
// a second device is the canonical token-sharing pattern; it must come back
// both ALREADY_REDEEMED and suspicious.
type Service struct {
	scans       AttemptStore
	redemptions RedemptionStore
	offers      OfferStore
	evaluator   *abuse.Evaluator
	policy      config.AbuseConfig
	logger      *zap.Logger
}

// NewService creates a scan service.
func NewService(scanRepo AttemptStore, redemptionRepo RedemptionStore, offerRepo OfferStore,
	evaluator *abuse.Evaluator, policy config.AbuseConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scans:       scanRepo,
		redemptions: redemptionRepo,
		offers:      offerRepo,
		evaluator:   evaluator,
		policy:      policy,
		logger:      logger,
	}
}

// Scan processes one QR presentation end to end. The returned error covers
// infrastructure failures only; business rejections come back in the Outcome.
func (s *Service) Scan(ctx context.Context, in Input) (*Outcome, error) {
	red, err := s.redemptions.GetByToken(ctx, in.Token)
	if err != nil && !errors.Is(err, redemptions.ErrNotFound) {
		return nil, err
	}

	attempt := &models.ScanAttempt{
		RedemptionToken:    in.Token,
		DeviceFingerprint:  in.DeviceFingerprint,
		IPAddress:          in.IPAddress,
		UserAgent:          in.UserAgent,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		MerchantID:         &in.MerchantID,
		MerchantLocationID: in.MerchantLocationID,
	}
	if red != nil {
		attempt.OfferID = &red.OfferID
		attempt.UserID = &red.UserID
	}
	if err := s.scans.Record(ctx, attempt); err != nil {
		return nil, err
	}

	verdict := s.evaluator.Evaluate(ctx, attempt)
	if verdict.Suspicious {
		attempt.IsSuspicious = true
		reason := verdict.Reason()
		attempt.SuspicionReason = &reason
		if err := s.scans.MarkSuspicious(ctx, attempt.ID, reason); err != nil {
			s.logger.Warn("mark suspicious failed", zap.Error(err), zap.String("scan_id", attempt.ID.String()))
		}
	}
	s.applyMerchantFlags(ctx, attempt, verdict)

	if red == nil {
		return s.reject(ctx, attempt, models.ScanInvalid, "unknown redemption token"), nil
	}

	if outcome := s.checkRedemptionState(ctx, attempt, red); outcome != nil {
		return outcome, nil
	}

	offer, err := s.offers.GetByID(ctx, red.OfferID)
	if err != nil {
		return nil, err
	}
	if outcome := s.checkOffer(ctx, attempt, offer, in.MerchantID); outcome != nil {
		return outcome, nil
	}

	if verdict.Suspicious && s.policy.RejectFlagged {
		if err := s.scans.FlagSuspicious(ctx, attempt.ID, verdict.Reason()); err != nil {
			s.resolveConflict(attempt, err)
		}
		return &Outcome{
			Result:     models.ScanFlagged,
			Message:    "scan flagged for review",
			Suspicious: true,
			Attempt:    attempt,
		}, nil
	}

	claimed, err := s.redemptions.ClaimByToken(ctx, in.Token, in.VerifierID)
	if err != nil {
		switch {
		case errors.Is(err, redemptions.ErrAlreadyRedeemed):
			return s.reject(ctx, attempt, models.ScanAlreadyRedeemed, "code has already been redeemed"), nil
		case errors.Is(err, redemptions.ErrUsageLimitReached):
			return s.reject(ctx, attempt, models.ScanInvalid, "offer usage limit reached"), nil
		case errors.Is(err, redemptions.ErrPerUserLimitReached):
			return s.reject(ctx, attempt, models.ScanInvalid, "per-user redemption limit reached"), nil
		default:
			return nil, err
		}
	}

	if err := s.scans.Resolve(ctx, attempt.ID, models.ScanSuccess, true, nil, &claimed.ID); err != nil {
		s.resolveConflict(attempt, err)
	}
	attempt.Result = models.ScanSuccess
	attempt.WasSuccessful = true
	attempt.RedemptionID = &claimed.ID

	return &Outcome{
		Result:     models.ScanSuccess,
		Suspicious: verdict.Suspicious,
		Attempt:    attempt,
		Redemption: claimed,
		Offer:      offer,
	}, nil
}

// checkRedemptionState rejects tokens whose redemption already left pending.
func (s *Service) checkRedemptionState(ctx context.Context, attempt *models.ScanAttempt, red *models.OfferRedemption) *Outcome {
	switch red.Status {
	case models.RedemptionPending:
		return nil
	case models.RedemptionVerified, models.RedemptionCompleted:
		return s.reject(ctx, attempt, models.ScanAlreadyRedeemed, "code has already been redeemed")
	case models.RedemptionExpired:
		return s.reject(ctx, attempt, models.ScanExpired, "redemption has expired")
	default: // cancelled
		return s.reject(ctx, attempt, models.ScanInvalid, "redemption was cancelled")
	}
}

// checkOffer rejects scans against expired, inactive or foreign offers.
func (s *Service) checkOffer(ctx context.Context, attempt *models.ScanAttempt, offer *models.Offer, merchantID uuid.UUID) *Outcome {
	now := time.Now()
	switch {
	case offer.MerchantID != merchantID:
		return s.reject(ctx, attempt, models.ScanInvalid, "offer belongs to another merchant")
	case !now.Before(offer.ValidUntil):
		return s.reject(ctx, attempt, models.ScanExpired, "offer has expired")
	case !now.After(offer.ValidFrom):
		return s.reject(ctx, attempt, models.ScanInvalid, "offer is not yet valid")
	case offer.Status != models.OfferStatusActive:
		return s.reject(ctx, attempt, models.ScanInvalid, "offer is not active")
	}
	return nil
}

// applyMerchantFlags records merchant-level suspicion without blocking the
// scan: bulk scanning is an operator review matter, not a customer denial.
func (s *Service) applyMerchantFlags(ctx context.Context, attempt *models.ScanAttempt, verdict abuse.Verdict) {
	if !verdict.MerchantFlagged {
		return
	}
	reason := "merchant activity: " + verdict.MerchantReasons[0]
	s.logger.Warn("merchant scan pattern flagged",
		zap.String("merchant_id", attempt.MerchantID.String()),
		zap.Strings("reasons", verdict.MerchantReasons),
	)
	if err := s.scans.MarkSuspicious(ctx, attempt.ID, reason); err != nil {
		s.logger.Warn("mark suspicious failed", zap.Error(err), zap.String("scan_id", attempt.ID.String()))
	}
}

func (s *Service) reject(ctx context.Context, attempt *models.ScanAttempt, result models.ScanResult, reason string) *Outcome {
	if err := s.scans.Resolve(ctx, attempt.ID, result, false, &reason, nil); err != nil {
		s.resolveConflict(attempt, err)
	}
	attempt.Result = result
	attempt.FailureReason = &reason
	return &Outcome{
		Result:     result,
		Message:    reason,
		Suspicious: attempt.IsSuspicious,
		Attempt:    attempt,
	}
}

// resolveConflict logs a lost resolution race. The attempt keeps whatever
// outcome the winner wrote; the audit row is never overwritten.
func (s *Service) resolveConflict(attempt *models.ScanAttempt, err error) {
	if errors.Is(err, ErrAlreadyResolved) {
		s.logger.Warn("scan attempt resolved concurrently", zap.String("scan_id", attempt.ID.String()))
		return
	}
	s.logger.Error("resolve scan attempt failed", zap.Error(err), zap.String("scan_id", attempt.ID.String()))
}
