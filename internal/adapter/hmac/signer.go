// Package hmac signs and verifies the confirmation tokens carried inside
// QR codes on printed transfer orders.
package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// Compile-time check: Signer implements domain.TokenSigner.
var _ domain.TokenSigner = (*Signer)(nil)

// Signer issues HMAC-SHA256 signed confirmation tokens with a
// service-level secret. A previous secret may be configured so that
// tokens minted before a rotation stay verifiable until they expire.
type Signer struct {
	secret   []byte
	previous []byte
}

// New creates a signer. previousSecret may be empty when no rotation is
// in flight.
func New(secret, previousSecret string) *Signer {
	s := &Signer{secret: []byte(secret)}
	if previousSecret != "" {
		s.previous = []byte(previousSecret)
	}
	return s
}

// Issue mints a token bound to the given transfer. The token id is a
// 32-character hex string with 122 bits of entropy.
func (s *Signer) Issue(transferID string, ttl time.Duration) (domain.ConfirmationToken, error) {
	if ttl <= 0 {
		return domain.ConfirmationToken{}, fmt.Errorf("token ttl must be positive, got %v", ttl)
	}

	tokenID := strings.ReplaceAll(uuid.NewString(), "-", "")
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)

	return domain.ConfirmationToken{
		ID:        tokenID,
		Signature: s.Signature(tokenID, transferID, issuedAt, expiresAt),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Signature computes the hex signature over the canonical token payload
// using the current secret.
func (s *Signer) Signature(tokenID, transferID string, issuedAt, expiresAt time.Time) string {
	return sign(s.secret, canonical(tokenID, transferID, issuedAt, expiresAt))
}

// Verify checks a presented signature against the canonical payload.
// Expiry is checked first: an expired token reports Expired even when the
// signature would otherwise verify. Comparison is constant-time, and the
// previous secret is accepted during a rotation grace window.
func (s *Signer) Verify(tokenID, transferID, signature string, issuedAt, expiresAt time.Time) domain.TokenStatus {
	if time.Now().UTC().After(expiresAt) {
		return domain.TokenExpired
	}

	payload := canonical(tokenID, transferID, issuedAt, expiresAt)
	if hmac.Equal([]byte(signature), []byte(sign(s.secret, payload))) {
		return domain.TokenValid
	}
	if s.previous != nil && hmac.Equal([]byte(signature), []byte(sign(s.previous, payload))) {
		return domain.TokenValid
	}
	return domain.TokenInvalidSignature
}

// canonical builds the signed representation. Unix timestamps keep the
// payload stable across timezone and formatting differences.
func canonical(tokenID, transferID string, issuedAt, expiresAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", tokenID, transferID, issuedAt.Unix(), expiresAt.Unix())
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
