package domain_test

import (
	"testing"

	"github.com/neomorfeo/trasvase/internal/domain"
)

func TestInvalidTenantPairError_Error(t *testing.T) {
	err := &domain.InvalidTenantPairError{TenantID: "tenant-a"}
	want := `origin and destination are the same tenant "tenant-a"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestInsufficientStockError_Error(t *testing.T) {
	err := &domain.InsufficientStockError{AssetID: "asset-1", Requested: 8, Available: 3}
	want := `asset "asset-1" has 3 available, 8 requested`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrongStateError_Error(t *testing.T) {
	err := &domain.WrongStateError{
		Event:   domain.EventDepart,
		Current: domain.StateApproved,
	}
	want := `event "confirm_departure" is not valid from state "approved"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestForbiddenError_Error(t *testing.T) {
	err := &domain.ForbiddenError{Actor: "user-1", Action: "approve this transfer"}
	want := `actor "user-1" may not approve this transfer`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
