package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "scout@example.com", "scout")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user ID: got %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "scout@example.com" {
		t.Errorf("email: got %q", claims.Email)
	}
	if claims.Role != "scout" {
		t.Errorf("role: got %q", claims.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@b.c", "merchant")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err == nil {
		t.Fatal("token signed with another secret validated")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "a@b.c", "scout")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	if _, err := svc.Validate("not-a-jwt"); err == nil {
		t.Fatal("malformed token validated")
	}
}
