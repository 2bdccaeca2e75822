package scouts

import (
	"strings"
	"testing"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			t.Fatalf("GenerateReferralCode: %v", err)
		}
		if !strings.HasPrefix(code, "CAMP-") {
			t.Fatalf("missing prefix: %q", code)
		}
		suffix := strings.TrimPrefix(code, "CAMP-")
		if len(suffix) != 6 {
			t.Fatalf("unexpected length: %q", code)
		}
		for _, ch := range suffix {
			if !strings.ContainsRune(referralAlphabet, ch) {
				t.Fatalf("code %q contains character outside alphabet: %q", code, ch)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
