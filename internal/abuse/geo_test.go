package abuse

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 0.001},
		{"new york to los angeles", 40.7128, -74.0060, 34.0522, -118.2437, 3936, 20},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 344, 5},
		{"across the equator", -1.0, 30.0, 1.0, 30.0, 222, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolKm {
				t.Errorf("got %.1f km, want %.1f km (±%.1f)", got, tt.wantKm, tt.tolKm)
			}
		})
	}
}
