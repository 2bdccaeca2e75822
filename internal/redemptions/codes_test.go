package redemptions

import (
	"strings"
	"testing"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("GenerateVerificationCode: %v", err)
		}
		if len(code) != 9 || code[4] != '-' {
			t.Fatalf("unexpected code format: %q", code)
		}
		for _, ch := range strings.ReplaceAll(code, "-", "") {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains character outside alphabet: %q", code, ch)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("tokens are not unique")
	}
	if len(a) < 40 {
		t.Fatalf("token too short: %d chars", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token %q is not URL-safe", a)
	}
}
