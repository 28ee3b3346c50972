package domain

import "time"

// TokenStatus is the outcome of verifying a confirmation token signature.
// It is a tagged type rather than a bool so callers cannot coerce a
// security failure into a generic falsy value.
type TokenStatus int

const (
	TokenValid TokenStatus = iota
	TokenInvalidSignature
	TokenExpired
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenInvalidSignature:
		return "invalid_signature"
	case TokenExpired:
		return "expired"
	}
	return "unknown"
}

// ConfirmationAction is one of the two single-use scans a token permits.
type ConfirmationAction string

const (
	ActionDeparture ConfirmationAction = "departure"
	ActionReceipt   ConfirmationAction = "receipt"
)

// ConfirmationToken is a signed, expiring credential bound to exactly one
// transfer. It is carried inside a QR code and consumed once per action.
type ConfirmationToken struct {
	ID        string
	Signature string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
