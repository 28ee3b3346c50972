package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrSubUnitNotFound  = errors.New("sub-unit not found")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrInvalidToken     = errors.New("invalid confirmation token")
	ErrTokenExpired     = errors.New("confirmation token expired")

	// ErrUnavailable is surfaced when a store transaction keeps failing
	// after the engine's single retry.
	ErrUnavailable = errors.New("service unavailable")

	// Request validation errors.
	ErrNoLines                = errors.New("transfer has no lines")
	ErrReasonRequired         = errors.New("a non-empty reason is required")
	ErrQuantityExceedsRequest = errors.New("approved quantity exceeds requested quantity")
)

// InvalidTenantPairError is returned when origin and destination tenants
// are the same; such moves use the internal movement path.
type InvalidTenantPairError struct {
	TenantID string
}

func (e *InvalidTenantPairError) Error() string {
	return fmt.Sprintf("origin and destination are the same tenant %q", e.TenantID)
}

// InsufficientStockError is returned when an asset cannot cover a
// requested quantity.
type InsufficientStockError struct {
	AssetID   string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("asset %q has %d available, %d requested", e.AssetID, e.Available, e.Requested)
}

// ReservationConflictError is returned when an approval loses a race for
// stock: a concurrent operation depleted the asset between the request-time
// soft check and the hold.
type ReservationConflictError struct {
	AssetID string
}

func (e *ReservationConflictError) Error() string {
	return fmt.Sprintf("reservation conflict on asset %q", e.AssetID)
}

// WrongStateError is returned when a workflow event is not legal from the
// transfer's current state, including lost compare-and-set races.
type WrongStateError struct {
	Event   Event
	Current State
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ForbiddenError is returned when an actor lacks the tenant or role
// required for an operation.
type ForbiddenError struct {
	Actor  string
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q may not %s", e.Actor, e.Action)
}
