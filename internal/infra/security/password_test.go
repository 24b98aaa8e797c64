package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %s", hash)
	}

	match, err := VerifyPassword("Sup3r$ecret", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !match {
		t.Fatal("expected password to verify")
	}

	match, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for mismatch: %v", err)
	}
	if match {
		t.Fatal("expected mismatch to fail verification")
	}
}

func TestVerifyPasswordEmptyInputs(t *testing.T) {
	match, err := VerifyPassword("", "$2a$12$abcdefghijklmnopqrstuv")
	if err != nil || match {
		t.Fatalf("expected empty password to fail cleanly, got match=%v err=%v", match, err)
	}

	match, err = VerifyPassword("password", "")
	if err != nil || match {
		t.Fatalf("expected empty hash to fail cleanly, got match=%v err=%v", match, err)
	}
}

func TestConfigureBcryptCostFloor(t *testing.T) {
	if err := ConfigureBcryptCost(11); err == nil {
		t.Fatal("expected cost below floor to be rejected")
	}
	if err := ConfigureBcryptCost(12); err != nil {
		t.Fatalf("expected cost 12 to be accepted: %v", err)
	}
	if got := CurrentBcryptCost(); got != 12 {
		t.Fatalf("expected active cost 12, got %d", got)
	}
}
