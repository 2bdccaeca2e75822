package redemptions

import (
	"encoding/json"
	"testing"
)

func TestCompleteRequestPurchase(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"absent treated as zero", `{}`, 0},
		{"explicit zero accepted", `{"purchase_cents": 0}`, 0},
		{"zero with manual discount", `{"purchase_cents": 0, "discount_cents": 500}`, 0},
		{"positive amount", `{"purchase_cents": 2500}`, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req completeRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := req.purchase(); got != tt.want {
				t.Errorf("purchase() = %d, want %d", got, tt.want)
			}
		})
	}
}
