package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/neomorfeo/trasvase/internal/domain"
)

const meterName = "github.com/neomorfeo/trasvase/internal/adapter/otel"

// MeteredSigner wraps a domain.TokenSigner with verification outcome
// metrics. Attributes carry only the outcome; token ids and signatures
// never leave the signer.
type MeteredSigner struct {
	next    domain.TokenSigner
	issued  metric.Int64Counter
	checked metric.Int64Counter
}

// Compile-time check: MeteredSigner implements domain.TokenSigner.
var _ domain.TokenSigner = (*MeteredSigner)(nil)

// NewMeteredSigner creates a metrics decorator around the given signer.
func NewMeteredSigner(next domain.TokenSigner) *MeteredSigner {
	meter := otel.Meter(meterName)
	issued, _ := meter.Int64Counter("trasvase.tokens.issued",
		metric.WithDescription("Confirmation tokens minted"))
	checked, _ := meter.Int64Counter("trasvase.tokens.verified",
		metric.WithDescription("Confirmation token verification attempts by outcome"))

	return &MeteredSigner{next: next, issued: issued, checked: checked}
}

func (s *MeteredSigner) Issue(transferID string, ttl time.Duration) (domain.ConfirmationToken, error) {
	token, err := s.next.Issue(transferID, ttl)
	if err == nil {
		s.issued.Add(context.Background(), 1)
	}
	return token, err
}

func (s *MeteredSigner) Signature(tokenID, transferID string, issuedAt, expiresAt time.Time) string {
	return s.next.Signature(tokenID, transferID, issuedAt, expiresAt)
}

func (s *MeteredSigner) Verify(tokenID, transferID, signature string, issuedAt, expiresAt time.Time) domain.TokenStatus {
	status := s.next.Verify(tokenID, transferID, signature, issuedAt, expiresAt)
	s.checked.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("outcome", status.String()),
	))
	return status
}
