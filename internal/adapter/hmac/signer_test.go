package hmac_test

import (
	"strings"
	"testing"
	"time"

	signer "github.com/neomorfeo/trasvase/internal/adapter/hmac"
	"github.com/neomorfeo/trasvase/internal/domain"
)

func TestIssue(t *testing.T) {
	s := signer.New("secret", "")

	token, err := s.Issue("transfer-1", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if len(token.ID) != 32 {
		t.Errorf("token ID length = %d, want 32", len(token.ID))
	}
	if strings.Contains(token.ID, "-") {
		t.Errorf("token ID %q contains dashes", token.ID)
	}
	if token.Signature == "" {
		t.Error("token has empty signature")
	}
	if got := token.ExpiresAt.Sub(token.IssuedAt); got != 7*24*time.Hour {
		t.Errorf("validity window = %v, want %v", got, 7*24*time.Hour)
	}
}

func TestIssue_NonPositiveTTL(t *testing.T) {
	s := signer.New("secret", "")

	if _, err := s.Issue("transfer-1", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
	if _, err := s.Issue("transfer-1", -time.Hour); err == nil {
		t.Error("expected error for negative ttl")
	}
}

func TestIssue_UniqueIDs(t *testing.T) {
	s := signer.New("secret", "")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := s.Issue("transfer-1", time.Hour)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if seen[token.ID] {
			t.Fatalf("duplicate token ID %q", token.ID)
		}
		seen[token.ID] = true
	}
}

func TestVerify_Valid(t *testing.T) {
	s := signer.New("secret", "")

	token, err := s.Issue("transfer-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	status := s.Verify(token.ID, "transfer-1", token.Signature, token.IssuedAt, token.ExpiresAt)
	if status != domain.TokenValid {
		t.Errorf("status = %v, want %v", status, domain.TokenValid)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	s := signer.New("secret", "")

	token, err := s.Issue("transfer-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := token.Signature[:len(token.Signature)-1] + "0"
	if tampered == token.Signature {
		tampered = token.Signature[:len(token.Signature)-1] + "1"
	}

	status := s.Verify(token.ID, "transfer-1", tampered, token.IssuedAt, token.ExpiresAt)
	if status != domain.TokenInvalidSignature {
		t.Errorf("status = %v, want %v", status, domain.TokenInvalidSignature)
	}
}

func TestVerify_WrongTransfer(t *testing.T) {
	s := signer.New("secret", "")

	token, err := s.Issue("transfer-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// A valid signature does not transfer between transfers.
	status := s.Verify(token.ID, "transfer-2", token.Signature, token.IssuedAt, token.ExpiresAt)
	if status != domain.TokenInvalidSignature {
		t.Errorf("status = %v, want %v", status, domain.TokenInvalidSignature)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := signer.New("secret", "")

	issuedAt := time.Now().UTC().Add(-2 * time.Hour)
	expiresAt := issuedAt.Add(time.Hour)
	signature := s.Signature("token-1", "transfer-1", issuedAt, expiresAt)

	// Expiry wins even over a correct signature.
	status := s.Verify("token-1", "transfer-1", signature, issuedAt, expiresAt)
	if status != domain.TokenExpired {
		t.Errorf("status = %v, want %v", status, domain.TokenExpired)
	}
}

func TestVerify_ExpiredBeatsTampered(t *testing.T) {
	s := signer.New("secret", "")

	issuedAt := time.Now().UTC().Add(-2 * time.Hour)
	expiresAt := issuedAt.Add(time.Hour)

	status := s.Verify("token-1", "transfer-1", "garbage", issuedAt, expiresAt)
	if status != domain.TokenExpired {
		t.Errorf("status = %v, want %v", status, domain.TokenExpired)
	}
}

func TestVerify_RotationGrace(t *testing.T) {
	old := signer.New("old-secret", "")

	token, err := old.Issue("transfer-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// After rotation the old secret is kept as previous; tokens minted
	// before the rotation still verify until they expire.
	rotated := signer.New("new-secret", "old-secret")
	status := rotated.Verify(token.ID, "transfer-1", token.Signature, token.IssuedAt, token.ExpiresAt)
	if status != domain.TokenValid {
		t.Errorf("status = %v, want %v", status, domain.TokenValid)
	}

	// Without the previous secret the old token is rejected.
	dropped := signer.New("new-secret", "")
	status = dropped.Verify(token.ID, "transfer-1", token.Signature, token.IssuedAt, token.ExpiresAt)
	if status != domain.TokenInvalidSignature {
		t.Errorf("status = %v, want %v", status, domain.TokenInvalidSignature)
	}
}

func TestSignature_Deterministic(t *testing.T) {
	s := signer.New("secret", "")

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(time.Hour)

	a := s.Signature("token-1", "transfer-1", issuedAt, expiresAt)
	b := s.Signature("token-1", "transfer-1", issuedAt, expiresAt)
	if a != b {
		t.Error("same payload produced different signatures")
	}

	c := s.Signature("token-2", "transfer-1", issuedAt, expiresAt)
	if a == c {
		t.Error("different token ids produced the same signature")
	}
}
