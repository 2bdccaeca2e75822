package redemptions

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// codeAlphabet avoids ambiguous characters (0/O, 1/I/L) since the code is
// read aloud or typed at the register.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateVerificationCode returns a short human-readable code, e.g. "K7MP-2XQF".
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, 0, 9)
	for i, b := range buf {
		if i == 4 {
			out = append(out, '-')
		}
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}

// GenerateToken returns the opaque redemption token embedded in the QR code.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
