package abuse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

type fakeSource struct {
	devices       int
	ips           int
	merchantScans int
	distinctUsers int
	geoScans      []models.ScanAttempt
	err           error
}

func (f *fakeSource) CountDistinctDevices(ctx context.Context, token string) (int, error) {
	return f.devices, f.err
}

func (f *fakeSource) CountDistinctIPs(ctx context.Context, token string) (int, error) {
	return f.ips, f.err
}

func (f *fakeSource) CountMerchantScans(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	return f.merchantScans, f.err
}

func (f *fakeSource) CountDistinctMerchantUsers(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	return f.distinctUsers, f.err
}

func (f *fakeSource) RecentGeoScans(ctx context.Context, token string, limit int) ([]models.ScanAttempt, error) {
	return f.geoScans, f.err
}

func testPolicy() config.AbuseConfig {
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

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func baseScan() *models.ScanAttempt {
	mid := uuid.New()
	return &models.ScanAttempt{
		RedemptionToken:   "tok",
		ScannedAt:         time.Now(),
		DeviceFingerprint: strPtr("fp"),
		IPAddress:         strPtr("203.0.113.9"),
		MerchantID:        &mid,
	}
}

func TestEvaluateClean(t *testing.T) {
	src := &fakeSource{devices: 1, ips: 1, merchantScans: 5, distinctUsers: 5}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if v.Suspicious {
		t.Fatalf("clean scan flagged suspicious: %v", v.Reasons)
	}
	if v.MerchantFlagged {
		t.Fatalf("clean scan flagged merchant: %v", v.MerchantReasons)
	}
}

func TestEvaluateDeviceDiversity(t *testing.T) {
	src := &fakeSource{devices: 4, ips: 1}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if !v.Suspicious {
		t.Fatal("expected suspicious verdict for device diversity")
	}
	if !strings.Contains(v.Reason(), "devices") {
		t.Errorf("reason missing device signal: %q", v.Reason())
	}
}

func TestEvaluateDeviceDiversitySkippedWithoutFingerprint(t *testing.T) {
	src := &fakeSource{devices: 10}
	e := NewEvaluator(src, testPolicy(), nil)

	scan := baseScan()
	scan.DeviceFingerprint = nil
	scan.IPAddress = nil
	v := e.Evaluate(context.Background(), scan)
	if v.Suspicious {
		t.Fatalf("signal should be skipped when fingerprint absent: %v", v.Reasons)
	}
}

func TestEvaluateIPDiversity(t *testing.T) {
	src := &fakeSource{devices: 1, ips: 6}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if !v.Suspicious {
		t.Fatal("expected suspicious verdict for IP diversity")
	}
}

func TestEvaluateMerchantVelocity(t *testing.T) {
	src := &fakeSource{devices: 1, ips: 1, merchantScans: 150, distinctUsers: 100}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if v.Suspicious {
		t.Fatalf("merchant velocity must not blame the card holder: %v", v.Reasons)
	}
	if !v.MerchantFlagged {
		t.Fatal("expected merchant flag for bulk scanning")
	}
}

func TestEvaluateMerchantUserReuse(t *testing.T) {
	// 50 scans, 5 distinct users: 10% distinct, below the 30% floor
	src := &fakeSource{devices: 1, ips: 1, merchantScans: 50, distinctUsers: 5}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if !v.MerchantFlagged {
		t.Fatal("expected merchant flag for user reuse")
	}
}

func TestEvaluateUserReuseSkippedBelowMinScans(t *testing.T) {
	src := &fakeSource{devices: 1, ips: 1, merchantScans: 10, distinctUsers: 1}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if v.MerchantFlagged {
		t.Fatalf("ratio should not apply below %d scans: %v", testPolicy().MinScansForUserRatio, v.MerchantReasons)
	}
}

func TestEvaluateImpossibleTravel(t *testing.T) {
	now := time.Now()
	// New York then Los Angeles ten minutes earlier, roughly 23600 km/h
	src := &fakeSource{
		devices: 1, ips: 1,
		geoScans: []models.ScanAttempt{
			{ScannedAt: now, Latitude: f64Ptr(40.7128), Longitude: f64Ptr(-74.0060)},
			{ScannedAt: now.Add(-10 * time.Minute), Latitude: f64Ptr(34.0522), Longitude: f64Ptr(-118.2437)},
		},
	}
	e := NewEvaluator(src, testPolicy(), nil)

	scan := baseScan()
	scan.ScannedAt = now
	scan.Latitude = f64Ptr(40.7128)
	scan.Longitude = f64Ptr(-74.0060)
	v := e.Evaluate(context.Background(), scan)
	if !v.Suspicious {
		t.Fatal("expected suspicious verdict for impossible travel")
	}
	if !strings.Contains(v.Reason(), "impossible travel") {
		t.Errorf("reason missing travel signal: %q", v.Reason())
	}
}

func TestEvaluatePlausibleTravel(t *testing.T) {
	now := time.Now()
	// same city, an hour apart
	src := &fakeSource{
		devices: 1, ips: 1,
		geoScans: []models.ScanAttempt{
			{ScannedAt: now, Latitude: f64Ptr(40.7128), Longitude: f64Ptr(-74.0060)},
			{ScannedAt: now.Add(-time.Hour), Latitude: f64Ptr(40.7306), Longitude: f64Ptr(-73.9866)},
		},
	}
	e := NewEvaluator(src, testPolicy(), nil)

	scan := baseScan()
	scan.ScannedAt = now
	scan.Latitude = f64Ptr(40.7128)
	scan.Longitude = f64Ptr(-74.0060)
	v := e.Evaluate(context.Background(), scan)
	if v.Suspicious {
		t.Fatalf("plausible travel flagged: %v", v.Reasons)
	}
}

func TestEvaluateSignalErrorsAreSkipped(t *testing.T) {
	src := &fakeSource{err: errors.New("store unavailable")}
	e := NewEvaluator(src, testPolicy(), nil)

	v := e.Evaluate(context.Background(), baseScan())
	if v.Suspicious || v.MerchantFlagged {
		t.Fatal("unavailable signals must never flag a scan")
	}
}
