package scans

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/abuse"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/redemptions"
)

type fakeAttempts struct {
	recorded   []*models.ScanAttempt
	resolved   map[uuid.UUID]models.ScanResult
	flagged    map[uuid.UUID]string
	suspicious map[uuid.UUID]string
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		resolved:   make(map[uuid.UUID]models.ScanResult),
		flagged:    make(map[uuid.UUID]string),
		suspicious: make(map[uuid.UUID]string),
	}
}

func (f *fakeAttempts) Record(ctx context.Context, s *models.ScanAttempt) error {
	s.ID = uuid.New()
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now()
	}
	s.Result = models.ScanPending
	f.recorded = append(f.recorded, s)
	return nil
}

func (f *fakeAttempts) Resolve(ctx context.Context, id uuid.UUID, result models.ScanResult, wasSuccessful bool, failureReason *string, redemptionID *uuid.UUID) error {
	if _, done := f.resolved[id]; done {
		return ErrAlreadyResolved
	}
	f.resolved[id] = result
	return nil
}

func (f *fakeAttempts) FlagSuspicious(ctx context.Context, id uuid.UUID, reason string) error {
	if _, done := f.resolved[id]; done {
		return ErrAlreadyResolved
	}
	f.resolved[id] = models.ScanFlagged
	f.flagged[id] = reason
	return nil
}

func (f *fakeAttempts) MarkSuspicious(ctx context.Context, id uuid.UUID, reason string) error {
	if _, done := f.suspicious[id]; !done {
		f.suspicious[id] = reason
	}
	return nil
}

type fakeRedemptions struct {
	byToken  map[string]*models.OfferRedemption
	claimErr error
	claims   int
}

func (f *fakeRedemptions) GetByToken(ctx context.Context, token string) (*models.OfferRedemption, error) {
	red, ok := f.byToken[token]
	if !ok {
		return nil, redemptions.ErrNotFound
	}
	cp := *red
	return &cp, nil
}

func (f *fakeRedemptions) ClaimByToken(ctx context.Context, token string, verifierID uuid.UUID) (*models.OfferRedemption, error) {
	f.claims++
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	red, ok := f.byToken[token]
	if !ok {
		return nil, redemptions.ErrNotFound
	}
	cp := *red
	cp.Status = models.RedemptionVerified
	cp.VerifiedBy = &verifierID
	return &cp, nil
}

type fakeOffers struct {
	byID map[uuid.UUID]*models.Offer
}

func (f *fakeOffers) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return f.byID[id], nil
}

type fakeSignals struct {
	devices int
	ips     int
}

func (f *fakeSignals) CountDistinctDevices(ctx context.Context, token string) (int, error) {
	return f.devices, nil
}
func (f *fakeSignals) CountDistinctIPs(ctx context.Context, token string) (int, error) {
	return f.ips, nil
}
func (f *fakeSignals) CountMerchantScans(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	return 0, nil
}
func (f *fakeSignals) CountDistinctMerchantUsers(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	return 0, nil
}
func (f *fakeSignals) RecentGeoScans(ctx context.Context, token string, limit int) ([]models.ScanAttempt, error) {
	return nil, nil
}

type fixture struct {
	attempts *fakeAttempts
	reds     *fakeRedemptions
	offerMap *fakeOffers
	service  *Service

	merchantID uuid.UUID
	offer      *models.Offer
	redemption *models.OfferRedemption
}

func newFixture(signals abuse.SignalSource, policy config.AbuseConfig) *fixture {
	merchantID := uuid.New()
	offer := &models.Offer{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Status:     models.OfferStatusActive,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
	}
	red := &models.OfferRedemption{
		ID:              uuid.New(),
		OfferID:         offer.ID,
		UserID:          uuid.New(),
		MerchantID:      merchantID,
		RedemptionToken: "tok-1",
		Status:          models.RedemptionPending,
	}
	f := &fixture{
		attempts:   newFakeAttempts(),
		reds:       &fakeRedemptions{byToken: map[string]*models.OfferRedemption{red.RedemptionToken: red}},
		offerMap:   &fakeOffers{byID: map[uuid.UUID]*models.Offer{offer.ID: offer}},
		merchantID: merchantID,
		offer:      offer,
		redemption: red,
	}
	evaluator := abuse.NewEvaluator(signals, policy, nil)
	f.service = NewService(f.attempts, f.reds, f.offerMap, evaluator, policy, nil)
	return f
}

func scanPolicy() config.AbuseConfig {
	return config.AbuseConfig{
		MaxDevicesPerToken:        3,
		MaxIPsPerToken:            5,
		VelocityWindow:            time.Hour,
		MaxMerchantScansPerWindow: 100,
		MinScansForUserRatio:      20,
		MinDistinctUserPercent:    30,
		MaxTravelSpeedKmh:         800,
	}
}

func scanInput(f *fixture) Input {
	fp := "device-b"
	return Input{
		Token:             f.redemption.RedemptionToken,
		MerchantID:        f.merchantID,
		VerifierID:        uuid.New(),
		DeviceFingerprint: &fp,
	}
}

func TestScanSuccess(t *testing.T) {
	f := newFixture(&fakeSignals{devices: 1, ips: 1}, scanPolicy())

	out, err := f.service.Scan(context.Background(), scanInput(f))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanSuccess {
		t.Fatalf("result: got %s, want success", out.Result)
	}
	if out.Suspicious {
		t.Error("clean scan marked suspicious")
	}
	if out.Redemption == nil || out.Redemption.Status != models.RedemptionVerified {
		t.Error("redemption not claimed")
	}
	if got := f.attempts.resolved[out.Attempt.ID]; got != models.ScanSuccess {
		t.Errorf("attempt resolved as %s, want success", got)
	}
}

func TestScanAlreadyRedeemedTokenIsFlagged(t *testing.T) {
	// a second device presents a token whose redemption already succeeded:
	// the scan must come back already_redeemed AND carry the device
	// diversity suspicion
	f := newFixture(&fakeSignals{devices: 4, ips: 1}, scanPolicy())
	f.redemption.Status = models.RedemptionVerified

	out, err := f.service.Scan(context.Background(), scanInput(f))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanAlreadyRedeemed {
		t.Fatalf("result: got %s, want already_redeemed", out.Result)
	}
	if !out.Suspicious {
		t.Fatal("token sharing after a successful use must be marked suspicious")
	}
	if !out.Attempt.IsSuspicious {
		t.Error("attempt not marked suspicious")
	}
	reason := f.attempts.suspicious[out.Attempt.ID]
	if !strings.Contains(reason, "devices") {
		t.Errorf("suspicion reason missing device signal: %q", reason)
	}
	if f.reds.claims != 0 {
		t.Error("already-redeemed token must not be claimed again")
	}
}

func TestScanUnknownToken(t *testing.T) {
	f := newFixture(&fakeSignals{devices: 1, ips: 1}, scanPolicy())

	in := scanInput(f)
	in.Token = "no-such-token"
	out, err := f.service.Scan(context.Background(), in)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanInvalid {
		t.Fatalf("result: got %s, want invalid", out.Result)
	}
	if out.Attempt.OfferID != nil || out.Attempt.UserID != nil {
		t.Error("unknown token must not attribute an offer or user")
	}
}

func TestScanForeignMerchant(t *testing.T) {
	f := newFixture(&fakeSignals{devices: 1, ips: 1}, scanPolicy())

	in := scanInput(f)
	in.MerchantID = uuid.New()
	out, err := f.service.Scan(context.Background(), in)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanInvalid {
		t.Fatalf("result: got %s, want invalid", out.Result)
	}
	if f.reds.claims != 0 {
		t.Error("foreign-merchant scan must not claim")
	}
}

func TestScanUsageLimitReached(t *testing.T) {
	f := newFixture(&fakeSignals{devices: 1, ips: 1}, scanPolicy())
	f.reds.claimErr = redemptions.ErrUsageLimitReached

	out, err := f.service.Scan(context.Background(), scanInput(f))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanInvalid {
		t.Fatalf("result: got %s, want invalid", out.Result)
	}
	if !strings.Contains(out.Message, "usage limit") {
		t.Errorf("message: %q", out.Message)
	}
}

func TestScanPerUserLimitReached(t *testing.T) {
	f := newFixture(&fakeSignals{devices: 1, ips: 1}, scanPolicy())
	f.reds.claimErr = redemptions.ErrPerUserLimitReached

	out, err := f.service.Scan(context.Background(), scanInput(f))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanInvalid {
		t.Fatalf("result: got %s, want invalid", out.Result)
	}
	if !strings.Contains(out.Message, "per-user") {
		t.Errorf("message: %q", out.Message)
	}
}

func TestScanRejectFlaggedPolicy(t *testing.T) {
	policy := scanPolicy()
	policy.RejectFlagged = true
	f := newFixture(&fakeSignals{devices: 4, ips: 1}, policy)

	out, err := f.service.Scan(context.Background(), scanInput(f))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Result != models.ScanFlagged {
		t.Fatalf("result: got %s, want flagged", out.Result)
	}
	if !out.Suspicious {
		t.Error("flagged outcome not suspicious")
	}
	if f.reds.claims != 0 {
		t.Error("flagged scan must not claim under the reject policy")
	}
}
